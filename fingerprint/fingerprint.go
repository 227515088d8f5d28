// Package fingerprint derives stable hexadecimal digests from string
// content. Digests serve double duty: they build the storage keys for
// cache entries, and they validate caller-supplied content against a
// stored hash without retaining the content itself.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key namespaces. A path always maps to the same (data, meta) key pair.
const (
	dataPrefix = "cache_json_"
	metaPrefix = "cache_meta_"
)

// Hex returns the lowercase hex SHA-256 digest of content.
//
// Contract:
// - Determinism: same input always yields the same digest.
// - Purity: no state; safe for concurrent use.
func Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DataKey returns the storage key for the encoded payload of path.
func DataKey(path string) string {
	return dataPrefix + Hex(path)
}

// MetaKey returns the storage key for the metadata document of path.
func MetaKey(path string) string {
	return metaPrefix + Hex(path)
}
