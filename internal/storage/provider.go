// Package storage holds uploaded files (content assets, questionnaire
// attachments) and signs the URLs the browser uploads them through.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("storage: object too large")

// Object describes a stored blob.
type Object struct {
	Key      string    `json:"object_key"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mime_type"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"-"`
}

// Provider is the object-storage abstraction. Keys are slash-separated and
// relative to the store root.
type Provider interface {
	// Put streams r into key, reading at most maxBytes (0 = unlimited).
	Put(ctx context.Context, key string, r io.Reader, maxBytes int64) (Object, error)
	// Open returns a reader for key and its metadata.
	Open(key string) (io.ReadSeekCloser, Object, error)
	// Stat returns metadata without opening the blob.
	Stat(key string) (Object, error)
	// Delete removes key.
	Delete(key string) error
}
