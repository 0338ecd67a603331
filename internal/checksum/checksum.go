// Package checksum computes content digests used as note checksums and ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns sum as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}
