package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/starford/agencyhub/internal/apperr"
)

// FS implements Provider on the local file system.
type FS struct {
	root string // absolute path to the blob directory
}

var _ Provider = (*FS)(nil)

// NewFS creates an FS provider rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves key against the root and rejects anything that escapes it.
func (f *FS) safePath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: empty key")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute keys not allowed: %s", key)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve key: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes root: %s", key)
	}
	return abs, nil
}

// Put writes atomically: temp file, fsync, rename. The digest and MIME type
// are computed from the written bytes.
func (f *FS) Put(ctx context.Context, key string, r io.Reader, maxBytes int64) (Object, error) {
	abs, err := f.safePath(key)
	if err != nil {
		return Object{}, err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".agencyhub-tmp-*")
	if err != nil {
		return Object{}, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), ctxReader{ctx: ctx, r: src})
	if err != nil {
		return Object{}, fmt.Errorf("storage: write temp: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		return Object{}, ErrTooLarge
	}
	if err := tmp.Sync(); err != nil {
		return Object{}, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: close temp: %w", err)
	}
	mt, err := mimetype.DetectFile(tmpName)
	if err != nil {
		return Object{}, fmt.Errorf("storage: detect type: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return Object{}, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return Object{
		Key:      filepath.ToSlash(key),
		Size:     n,
		MimeType: mt.String(),
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Open returns the blob at key. A missing blob is apperr.ErrNotFound.
func (f *FS) Open(key string) (io.ReadSeekCloser, Object, error) {
	obj, err := f.Stat(key)
	if err != nil {
		return nil, Object{}, err
	}
	abs, _ := f.safePath(key)
	file, err := os.Open(abs)
	if err != nil {
		return nil, Object{}, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return file, obj, nil
}

// Stat reports size and MIME type. Checksum is left empty.
func (f *FS) Stat(key string) (Object, error) {
	abs, err := f.safePath(key)
	if err != nil {
		return Object{}, err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, fmt.Errorf("storage: %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return Object{}, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if info.IsDir() {
		return Object{}, fmt.Errorf("storage: %s: %w", key, apperr.ErrNotFound)
	}
	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return Object{}, fmt.Errorf("storage: detect type: %w", err)
	}
	return Object{Key: filepath.ToSlash(key), Size: info.Size(), MimeType: mt.String(), ModTime: info.ModTime()}, nil
}

// Delete removes a blob. Deleting a missing key is not an error.
func (f *FS) Delete(key string) error {
	abs, err := f.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
