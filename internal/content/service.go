// Package content manages the content library: notes and generated copy,
// uploaded files, bulk actions and PDF export.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/export"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/storage"
	"github.com/starford/agencyhub/internal/store"
)

// Service coordinates the content table and object storage.
type Service struct {
	db     *store.DB
	blobs  storage.Provider
	signer *storage.Signer
	notify sse.Notifier
	cfg    Config
}

// Config sets the URL layout and upload limit.
type Config struct {
	UploadBase     string // e.g. /api/uploads
	FileBase       string // e.g. /api/files
	MaxUploadBytes int64
}

func NewService(db *store.DB, blobs storage.Provider, signer *storage.Signer, notify sse.Notifier, cfg Config) *Service {
	if notify == nil {
		notify = sse.Nop
	}
	if cfg.UploadBase == "" {
		cfg.UploadBase = "/api/uploads"
	}
	if cfg.FileBase == "" {
		cfg.FileBase = "/api/files"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	return &Service{db: db, blobs: blobs, signer: signer, notify: notify, cfg: cfg}
}

// checkOwner verifies the client exists and the project, if any, belongs to it.
func (s *Service) checkOwner(ctx context.Context, clientID string, projectID *string) error {
	if _, err := s.db.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("client_id", "unknown client")
		}
		return err
	}
	if projectID == nil {
		return nil
	}
	p, err := s.db.GetProject(ctx, *projectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("project_id", "unknown project")
		}
		return err
	}
	if p.ClientID != clientID {
		return apperr.Invalid("project_id", "belongs to another client")
	}
	return nil
}

// objectKeyTaken turns a duplicate object key into a field error. One blob
// backs at most one asset, so deleting an asset can always delete its blob.
func objectKeyTaken(err error) error {
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return apperr.Invalid("object_key", "is already registered to another asset")
	}
	return err
}

func normalize(a *models.ContentAsset) {
	if a.ProjectID != nil && *a.ProjectID == "" {
		a.ProjectID = nil
	}
}

// Create validates and stores a new asset.
func (s *Service) Create(ctx context.Context, a *models.ContentAsset) error {
	normalize(a)
	if err := apperr.FromRules(a.Validate()); err != nil {
		return err
	}
	if err := s.checkOwner(ctx, a.ClientID, a.ProjectID); err != nil {
		return err
	}
	if err := s.db.CreateContent(ctx, a); err != nil {
		return objectKeyTaken(err)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityContent, Action: sse.ActionCreated, ID: a.ID, ClientID: a.ClientID})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.ContentAsset, error) {
	return s.db.GetContent(ctx, id)
}

// List returns one page of assets, newest first, and the total match count.
func (s *Service) List(ctx context.Context, f store.ContentFilter) ([]models.ContentAsset, int, error) {
	if f.AssetType != "" && !f.AssetType.Valid() {
		return nil, 0, apperr.Invalid("type", "unknown asset type")
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.db.ListContent(ctx, f)
}

// Update replaces an asset. AI provenance in the stored metadata is kept
// when the update carries none.
func (s *Service) Update(ctx context.Context, a *models.ContentAsset) error {
	normalize(a)
	if err := apperr.FromRules(a.Validate()); err != nil {
		return err
	}
	cur, err := s.db.GetContent(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(ctx, a.ClientID, a.ProjectID); err != nil {
		return err
	}
	if a.Metadata.AI == nil {
		a.Metadata.AI = cur.Metadata.AI
	}
	a.CreatedAt = cur.CreatedAt
	if err := s.db.UpdateContent(ctx, a); err != nil {
		return objectKeyTaken(err)
	}
	if cur.Body.File != nil && (a.Body.File == nil || a.Body.File.ObjectKey != cur.Body.File.ObjectKey) {
		s.removeBlob(cur.Body.File.ObjectKey)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityContent, Action: sse.ActionUpdated, ID: a.ID, ClientID: a.ClientID})
	return nil
}

// Delete removes an asset and, for files, its blob.
func (s *Service) Delete(ctx context.Context, id string) error {
	cur, err := s.db.GetContent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteContent(ctx, id); err != nil {
		return err
	}
	if cur.Body.File != nil {
		s.removeBlob(cur.Body.File.ObjectKey)
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityContent, Action: sse.ActionDeleted, ID: id, ClientID: cur.ClientID})
	return nil
}

func (s *Service) removeBlob(key string) {
	if err := s.blobs.Delete(key); err != nil {
		slog.Warn("delete blob", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// BulkAction names a bulk operation.
type BulkAction string

const (
	BulkDelete        BulkAction = "delete"
	BulkAssignProject BulkAction = "assign_project"
)

// Bulk applies action to ids and reports how many assets changed.
func (s *Service) Bulk(ctx context.Context, action BulkAction, ids []string, projectID *string) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Invalid("ids", "cannot be blank")
	}
	if len(ids) > 500 {
		return 0, apperr.Invalid("ids", "at most 500 ids per request")
	}
	var (
		n   int
		err error
	)
	switch action {
	case BulkDelete:
		var blobs []string
		for _, id := range ids {
			if a, err := s.db.GetContent(ctx, id); err == nil && a.Body.File != nil {
				blobs = append(blobs, a.Body.File.ObjectKey)
			}
		}
		if n, err = s.db.BulkDeleteContent(ctx, ids); err != nil {
			return 0, err
		}
		for _, key := range blobs {
			s.removeBlob(key)
		}
	case BulkAssignProject:
		if projectID != nil && *projectID == "" {
			projectID = nil
		}
		n, err = s.db.BulkAssignProject(ctx, ids, projectID)
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, apperr.Invalid("project_id", "unknown project")
		}
		if err != nil {
			return 0, err
		}
	default:
		return 0, apperr.Invalid("action", "must be delete or assign_project")
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityContent, Action: sse.BulkAction(string(action)), IDs: ids})
	return n, nil
}

// ExportPDF renders a note asset to PDF and returns it with its title.
func (s *Service) ExportPDF(ctx context.Context, id string) ([]byte, string, error) {
	a, err := s.db.GetContent(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := export.AssetPDF(a)
	if err != nil {
		return nil, "", fmt.Errorf("content: export %s: %w", id, err)
	}
	return data, a.Title, nil
}
