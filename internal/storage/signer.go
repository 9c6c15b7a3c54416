package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/agencyhub/internal/apperr"
)

// Signer issues and checks time-limited upload URLs. A signature is
// HMAC-SHA256 over "key|expires" (unix seconds).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. ttl bounds how long a signed URL stays valid.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SignedUpload is what the browser needs to PUT a file.
type SignedUpload struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sign returns an upload URL for key below base (e.g. "/api/uploads").
// fileBase is where the stored object will be served from.
func (s *Signer) Sign(key, base, fileBase string) SignedUpload {
	exp := s.now().Add(s.ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("sig", s.mac(key, exp))
	return SignedUpload{
		ObjectKey: key,
		UploadURL: strings.TrimRight(base, "/") + "/" + key + "?" + q.Encode(),
		FileURL:   strings.TrimRight(fileBase, "/") + "/" + key,
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}
}

// Verify checks a signature from an upload request. Expired or tampered
// signatures return apperr.ErrForbidden.
func (s *Signer) Verify(key, expires, sig string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("storage: bad expiry: %w", apperr.ErrForbidden)
	}
	if s.now().Unix() > exp {
		return fmt.Errorf("storage: upload url expired: %w", apperr.ErrForbidden)
	}
	want := s.mac(key, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return fmt.Errorf("storage: bad signature: %w", apperr.ErrForbidden)
	}
	return nil
}

func (s *Signer) mac(key string, exp int64) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(key + "|" + strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(m.Sum(nil))
}

// NewObjectKey builds a collision-free key for an upload:
// uploads/YYYY/MM/<uuid>-<sanitized name>.
func NewObjectKey(filename string, now time.Time) string {
	name := sanitize(path.Base(filename))
	return fmt.Sprintf("uploads/%04d/%02d/%s-%s", now.Year(), now.Month(), uuid.NewString(), name)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "file"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
