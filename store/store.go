package store

import (
	"context"
	"time"
)

// Store is a minimal string store with per-key TTLs.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Transparency: Get must return exactly the string previously passed
//     to Put for the same key; no re-encoding, no added metadata.
//   - Errors: Get returns (_, false, nil) on miss or lapsed TTL; an error
//     return means the backend itself failed.
//   - Atomicity: per key only. Nothing is promised across keys.
type Store interface {
	// Get retrieves a value. Returns ("", false, nil) on miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores a value that expires after ttl. TTL <= 0 means the
	// value is not stored.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Remove deletes a key. Idempotent - no error on miss.
	Remove(ctx context.Context, key string) error
}
