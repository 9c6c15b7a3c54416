package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/jmoiron/sqlx"

	"github.com/starford/agencyhub/internal/models"
)

type frameworkRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Description     string         `db:"description"`
	Content         string         `db:"content"`
	SourcePath      sql.NullString `db:"source_path"`
	ContentChecksum string         `db:"content_checksum"`
	ChunkCount      int            `db:"chunk_count"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       sql.NullTime   `db:"deleted_at"`
}

func (r frameworkRow) model() models.Framework {
	f := models.Framework{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Content:         r.Content,
		ContentChecksum: r.ContentChecksum,
		ChunkCount:      r.ChunkCount,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
		DeletedAt:       timePtr(r.DeletedAt),
	}
	if r.SourcePath.Valid {
		f.SourcePath = r.SourcePath.String
	}
	return f
}

const frameworkSelect = `SELECT f.id, f.name, f.description, f.content, f.source_path, f.content_checksum,
	f.created_at, f.updated_at, f.deleted_at,
	(SELECT count(*) FROM framework_chunks ch WHERE ch.framework_id = f.id) AS chunk_count
	FROM frameworks f`

// CreateFramework inserts a framework.
func (db *DB) CreateFramework(ctx context.Context, f *models.Framework) error {
	now := db.now()
	f.ID = newID()
	f.CreatedAt, f.UpdatedAt = now, now
	_, err := db.x.ExecContext(ctx, `
		INSERT INTO frameworks (id, name, description, content, source_path, content_checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Description, f.Content, nullString(&f.SourcePath), f.ContentChecksum, now, now)
	if err != nil {
		return fmt.Errorf("store: insert framework: %w", err)
	}
	return nil
}

// GetFramework returns a live framework.
func (db *DB) GetFramework(ctx context.Context, id string) (*models.Framework, error) {
	var row frameworkRow
	if err := db.x.GetContext(ctx, &row, frameworkSelect+` WHERE f.id = ? AND f.deleted_at IS NULL`, id); err != nil {
		return nil, notFound(err, "get framework")
	}
	f := row.model()
	return &f, nil
}

// FrameworkBySource returns the framework imported from path, including a
// soft-deleted one so re-imports can revive it. It returns (nil, nil) when
// nothing was imported from path.
func (db *DB) FrameworkBySource(ctx context.Context, path string) (*models.Framework, error) {
	var row frameworkRow
	err := db.x.GetContext(ctx, &row, frameworkSelect+` WHERE f.source_path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: framework by source: %w", err)
	}
	f := row.model()
	return &f, nil
}

// ListFrameworks returns live frameworks by name.
func (db *DB) ListFrameworks(ctx context.Context) ([]models.Framework, error) {
	var rows []frameworkRow
	if err := db.x.SelectContext(ctx, &rows,
		frameworkSelect+` WHERE f.deleted_at IS NULL ORDER BY f.name COLLATE NOCASE`); err != nil {
		return nil, fmt.Errorf("store: list frameworks: %w", err)
	}
	out := make([]models.Framework, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// UpdateFramework rewrites a framework and clears deleted_at.
func (db *DB) UpdateFramework(ctx context.Context, f *models.Framework) error {
	f.UpdatedAt = db.now()
	f.DeletedAt = nil
	res, err := db.x.ExecContext(ctx, `
		UPDATE frameworks SET name = ?, description = ?, content = ?, content_checksum = ?,
			updated_at = ?, deleted_at = NULL
		WHERE id = ?`,
		f.Name, f.Description, f.Content, f.ContentChecksum, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("store: update framework: %w", err)
	}
	return requireRow(res, "update framework")
}

// DeleteFramework soft-deletes a framework and drops its chunks so it no
// longer takes part in retrieval.
func (db *DB) DeleteFramework(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		now := db.now()
		res, err := tx.ExecContext(ctx,
			`UPDATE frameworks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
		if err != nil {
			return fmt.Errorf("store: delete framework: %w", err)
		}
		if err := requireRow(res, "delete framework"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM framework_chunks WHERE framework_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete chunks: %w", err)
		}
		return nil
	})
}

// FrameworkSources maps every live source path under the import root dir to
// its checksum. Sources of other roots are left out.
func (db *DB) FrameworkSources(ctx context.Context, dir string) (map[string]string, error) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	rows, err := db.x.QueryxContext(ctx, `
		SELECT source_path, content_checksum FROM frameworks
		WHERE source_path LIKE ? ESCAPE '\' AND deleted_at IS NULL`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("store: framework sources: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var path, sum string
		if err := rows.Scan(&path, &sum); err != nil {
			return nil, err
		}
		out[path] = sum
	}
	return out, rows.Err()
}

// ReplaceChunks swaps a framework's chunk set in one transaction.
func (db *DB) ReplaceChunks(ctx context.Context, frameworkID string, chunks []models.FrameworkChunk) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM framework_chunks WHERE framework_id = ?`, frameworkID); err != nil {
			return fmt.Errorf("store: clear chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO framework_chunks (id, framework_id, chunk_index, content, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare chunk insert: %w", err)
		}
		defer stmt.Close()
		now := db.now()
		for i := range chunks {
			ch := &chunks[i]
			blob, err := vec.SerializeFloat32(ch.Embedding)
			if err != nil {
				return fmt.Errorf("store: serialize embedding: %w", err)
			}
			ch.ID = newID()
			ch.FrameworkID = frameworkID
			ch.CreatedAt = now
			if _, err := stmt.ExecContext(ctx, ch.ID, frameworkID, ch.ChunkIndex, ch.Content, blob, now); err != nil {
				return fmt.Errorf("store: insert chunk: %w", err)
			}
		}
		return nil
	})
}

// NearestChunks returns the k chunks closest to query by cosine distance.
// Chunks embedded with a different dimension are skipped.
func (db *DB) NearestChunks(ctx context.Context, query []float32, k int) ([]models.ChunkMatch, error) {
	if len(query) == 0 || k <= 0 {
		return []models.ChunkMatch{}, nil
	}
	blob, err := vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("store: serialize query: %w", err)
	}
	var rows []struct {
		ChunkID       string  `db:"chunk_id"`
		FrameworkID   string  `db:"framework_id"`
		FrameworkName string  `db:"framework_name"`
		Content       string  `db:"content"`
		Distance      float64 `db:"distance"`
	}
	err = db.x.SelectContext(ctx, &rows, `
		SELECT ch.id AS chunk_id, ch.framework_id, f.name AS framework_name, ch.content,
		       vec_distance_cosine(ch.embedding, ?) AS distance
		FROM framework_chunks ch
		JOIN frameworks f ON f.id = ch.framework_id
		WHERE f.deleted_at IS NULL AND length(ch.embedding) = ?
		ORDER BY distance ASC
		LIMIT ?`, blob, len(blob), k)
	if err != nil {
		return nil, fmt.Errorf("store: nearest chunks: %w", err)
	}
	out := make([]models.ChunkMatch, len(rows))
	for i, r := range rows {
		out[i] = models.ChunkMatch{
			ChunkID:       r.ChunkID,
			FrameworkID:   r.FrameworkID,
			FrameworkName: r.FrameworkName,
			Content:       r.Content,
			Similarity:    1 - r.Distance,
		}
	}
	return out, nil
}
