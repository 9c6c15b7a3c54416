package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/storage"
)

// SignUpload reserves an object key for filename and returns the signed URL
// the browser PUTs the bytes to.
func (s *Service) SignUpload(filename string) (storage.SignedUpload, error) {
	if strings.TrimSpace(filename) == "" {
		return storage.SignedUpload{}, apperr.Invalid("filename", "cannot be blank")
	}
	key := storage.NewObjectKey(filename, time.Now().UTC())
	return s.signer.Sign(key, s.cfg.UploadBase, s.cfg.FileBase), nil
}

// Upload stores the body of a signed PUT.
func (s *Service) Upload(ctx context.Context, key, expires, sig string, r io.Reader) (storage.Object, error) {
	if err := s.signer.Verify(key, expires, sig); err != nil {
		return storage.Object{}, err
	}
	obj, err := s.blobs.Put(ctx, key, r, s.cfg.MaxUploadBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return storage.Object{}, apperr.Invalid("file", fmt.Sprintf("exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	return obj, err
}

// Open returns a stored blob for download.
func (s *Service) Open(key string) (io.ReadSeekCloser, storage.Object, error) {
	return s.blobs.Open(key)
}

// FileRegistration attaches an uploaded object to the library.
type FileRegistration struct {
	ClientID  string
	ProjectID *string
	Title     string
	AssetType models.AssetType
	ObjectKey string
	Filename  string
}

// RegisterFile creates a file asset for an object that was uploaded through a
// signed URL. Size and MIME type come from the stored bytes, not the caller.
func (s *Service) RegisterFile(ctx context.Context, reg FileRegistration) (*models.ContentAsset, error) {
	if reg.ObjectKey == "" {
		return nil, apperr.Invalid("object_key", "cannot be blank")
	}
	obj, err := s.blobs.Stat(reg.ObjectKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Invalid("object_key", "no uploaded file under this key")
	}
	if err != nil {
		return nil, err
	}

	at := reg.AssetType
	if at == "" {
		at = models.AssetFile
		if obj.MimeType == "application/pdf" {
			at = models.AssetResearchPDF
		}
	}
	if at != models.AssetFile && at != models.AssetResearchPDF {
		return nil, apperr.Invalid("asset_type", "uploads must be file or research_pdf")
	}
	title := strings.TrimSpace(reg.Title)
	if title == "" {
		title = reg.Filename
	}

	a := &models.ContentAsset{
		ClientID:  reg.ClientID,
		ProjectID: reg.ProjectID,
		Title:     title,
		AssetType: at,
		Body: models.Body{File: &models.FileBody{
			URL:       strings.TrimRight(s.cfg.FileBase, "/") + "/" + obj.Key,
			ObjectKey: obj.Key,
			Size:      obj.Size,
			MimeType:  obj.MimeType,
			Filename:  reg.Filename,
		}},
	}
	if err := s.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ImportFile stores r under a fresh key and registers it in one step, for
// callers that already hold the bytes. The blob is removed again when
// registration fails.
func (s *Service) ImportFile(ctx context.Context, reg FileRegistration, r io.Reader) (*models.ContentAsset, error) {
	if strings.TrimSpace(reg.Filename) == "" {
		return nil, apperr.Invalid("filename", "cannot be blank")
	}
	reg.ObjectKey = storage.NewObjectKey(reg.Filename, time.Now().UTC())
	if _, err := s.blobs.Put(ctx, reg.ObjectKey, r, s.cfg.MaxUploadBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperr.Invalid("file", fmt.Sprintf("exceeds %d bytes", s.cfg.MaxUploadBytes))
		}
		return nil, err
	}
	a, err := s.RegisterFile(ctx, reg)
	if err != nil {
		_ = s.blobs.Delete(reg.ObjectKey)
		return nil, err
	}
	return a, nil
}
