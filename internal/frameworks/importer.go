package frameworks

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/agencyhub/internal/checksum"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/parser"
	"github.com/starford/agencyhub/internal/sse"
)

// ImportReport counts what an import pass changed.
type ImportReport struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

func (r ImportReport) changed() bool {
	return r.Created+r.Updated+r.Removed > 0
}

// ImportDir walks dir and brings the frameworks imported from it up to date:
//   - new or changed .md files are parsed and upserted by source path
//   - frameworks whose file disappeared from dir are soft-deleted
//
// Source paths are absolute, so imports from different directories do not
// touch each other's frameworks.
//
// Per-file failures are logged and counted, not returned.
func (s *Service) ImportDir(ctx context.Context, dir string) (ImportReport, error) {
	var rep ImportReport
	root, err := filepath.Abs(dir)
	if err != nil {
		return rep, fmt.Errorf("frameworks: resolve %s: %w", dir, err)
	}

	known, err := s.db.FrameworkSources(ctx, filepath.ToSlash(root))
	if err != nil {
		return rep, err
	}

	seen := make(map[string]struct{})
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		src := filepath.ToSlash(path)
		seen[src] = struct{}{}

		outcome, err := s.importFile(ctx, path, src, rel)
		if err != nil {
			rep.Failed++
			slog.Warn("framework import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		switch outcome {
		case "created":
			rep.Created++
		case "updated":
			rep.Updated++
		default:
			rep.Unchanged++
		}
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("frameworks: walk %s: %w", root, err)
	}

	for src := range known {
		if _, ok := seen[src]; ok {
			continue
		}
		f, err := s.db.FrameworkBySource(ctx, src)
		if err != nil || f == nil {
			continue
		}
		if err := s.Delete(ctx, f.ID); err != nil {
			slog.Warn("framework remove failed", slog.String("path", src), slog.String("error", err.Error()))
			continue
		}
		rep.Removed++
	}

	slog.Info("frameworks imported",
		slog.String("dir", root),
		slog.Int("created", rep.Created),
		slog.Int("updated", rep.Updated),
		slog.Int("removed", rep.Removed),
		slog.Int("failed", rep.Failed))
	return rep, nil
}

// importFile upserts one file keyed by src, its absolute slash-separated
// path. rel, the path below the import root, names frameworks without a
// title. It returns "created", "updated" or "unchanged".
func (s *Service) importFile(ctx context.Context, abs, src, rel string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	doc, err := parser.Parse(data, rel)
	if err != nil {
		return "", err
	}

	cur, err := s.db.FrameworkBySource(ctx, src)
	if err != nil {
		return "", err
	}
	if cur == nil {
		f := &models.Framework{Name: doc.Name, Description: doc.Description, Content: doc.Body, SourcePath: src}
		if err := s.Create(ctx, f); err != nil {
			return "", err
		}
		return "created", nil
	}

	if cur.DeletedAt == nil && cur.ContentChecksum == checksum.String(doc.Body) &&
		cur.Name == doc.Name && cur.Description == doc.Description {
		return "unchanged", nil
	}
	f := *cur
	f.Name, f.Description, f.Content = doc.Name, doc.Description, doc.Body
	if err := s.apply(ctx, &f, cur); err != nil {
		return "", err
	}
	return "updated", nil
}

// apply writes an imported revision. Unlike Update it accepts soft-deleted
// rows, which UpdateFramework revives.
func (s *Service) apply(ctx context.Context, f, cur *models.Framework) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f.ContentChecksum = checksum.String(f.Content)
	if err := s.db.UpdateFramework(ctx, f); err != nil {
		return err
	}
	if f.ContentChecksum != cur.ContentChecksum || cur.ChunkCount == 0 || cur.DeletedAt != nil {
		s.index(ctx, f)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityFramework, Action: sse.ActionUpdated, ID: f.ID})
	return nil
}
