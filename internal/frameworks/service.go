// Package frameworks manages the copywriting framework library and keeps its
// retrieval index current.
package frameworks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/checksum"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/rag"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

// ErrIndex marks a failure to chunk or embed a framework.
var ErrIndex = errors.New("frameworks: indexing failed")

// Service coordinates the framework table and the RAG index. The indexer and
// retriever are nil when no embedding provider is configured; frameworks are
// then stored without chunks.
type Service struct {
	db        *store.DB
	indexer   *rag.Indexer
	retriever *rag.Retriever
	notify    sse.Notifier
}

func NewService(db *store.DB, indexer *rag.Indexer, retriever *rag.Retriever, notify sse.Notifier) *Service {
	if notify == nil {
		notify = sse.Nop
	}
	return &Service{db: db, indexer: indexer, retriever: retriever, notify: notify}
}

func (s *Service) List(ctx context.Context) ([]models.Framework, error) {
	return s.db.ListFrameworks(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Framework, error) {
	return s.db.GetFramework(ctx, id)
}

// Create stores f and indexes it. An indexing failure is logged and leaves
// the framework without chunks until Reindex succeeds.
func (s *Service) Create(ctx context.Context, f *models.Framework) error {
	if err := apperr.FromRules(f.Validate()); err != nil {
		return err
	}
	f.ContentChecksum = checksum.String(f.Content)
	if err := s.db.CreateFramework(ctx, f); err != nil {
		return err
	}
	s.index(ctx, f)
	s.notify.Notify(sse.Change{Entity: sse.EntityFramework, Action: sse.ActionCreated, ID: f.ID})
	return nil
}

// Update rewrites name, description and content. Chunks are rebuilt only
// when the content checksum changed.
func (s *Service) Update(ctx context.Context, f *models.Framework) error {
	if err := apperr.FromRules(f.Validate()); err != nil {
		return err
	}
	cur, err := s.db.GetFramework(ctx, f.ID)
	if err != nil {
		return err
	}
	f.ContentChecksum = checksum.String(f.Content)
	f.SourcePath = cur.SourcePath
	f.CreatedAt = cur.CreatedAt
	f.ChunkCount = cur.ChunkCount
	if err := s.db.UpdateFramework(ctx, f); err != nil {
		return err
	}
	if f.ContentChecksum != cur.ContentChecksum || cur.ChunkCount == 0 {
		s.index(ctx, f)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityFramework, Action: sse.ActionUpdated, ID: f.ID})
	return nil
}

// Delete soft-deletes a framework and removes it from retrieval.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteFramework(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityFramework, Action: sse.ActionDeleted, ID: id})
	return nil
}

// Reindex rebuilds the chunks of one framework and returns their count.
func (s *Service) Reindex(ctx context.Context, id string) (int, error) {
	f, err := s.db.GetFramework(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.indexer == nil {
		return 0, apperr.Invalid("embedding", "no embedding provider is configured")
	}
	n, err := s.indexer.Index(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIndex, err)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityFramework, Action: sse.ActionReindexed, ID: id})
	return n, nil
}

// Search previews what the studio would retrieve for a prompt.
func (s *Service) Search(ctx context.Context, q rag.Query) ([]models.ChunkMatch, error) {
	if s.retriever == nil {
		return nil, apperr.Invalid("embedding", "no embedding provider is configured")
	}
	if q.Threshold != nil && (*q.Threshold < -1 || *q.Threshold > 1) {
		return nil, apperr.Invalid("threshold", "must be between -1 and 1")
	}
	out, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndex, err)
	}
	if out == nil {
		out = []models.ChunkMatch{}
	}
	return out, nil
}

func (s *Service) index(ctx context.Context, f *models.Framework) {
	if s.indexer == nil {
		return
	}
	n, err := s.indexer.Index(ctx, f)
	if err != nil {
		slog.Warn("framework index failed", slog.String("framework", f.ID), slog.String("error", err.Error()))
		return
	}
	f.ChunkCount = n
}
