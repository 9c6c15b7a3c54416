// Package checksum computes the content digests used for ETags and change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for text.
func String(s string) string {
	return Sum([]byte(s))
}

// JSON digests the canonical JSON encoding of v. encoding/json sorts map keys,
// so equal maps always produce equal digests.
func JSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return Sum(data)
}
