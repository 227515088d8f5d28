package engine

import (
	"context"

	"github.com/jonwraymond/cachekit/store"
)

// FetchInfo accompanies every fetch invocation.
type FetchInfo struct {
	// ExistingMeta is the parsed metadata found on the path, if any,
	// even when the entry failed validation. Informational only; the
	// entry itself may already have been removed.
	ExistingMeta *Metadata

	// Scope is the cache scope the write will target.
	Scope store.Scope
}

// FetchFunc produces fresh data for a path on cache miss. Its errors
// propagate to the caller unchanged; the engine performs no retry.
type FetchFunc func(ctx context.Context, path string, info FetchInfo) (any, error)

// FetchResult lets a fetch override per-write cache parameters. A
// FetchFunc may return one (by value or pointer) instead of a plain
// value.
type FetchResult struct {
	// Data is the value to return and cache.
	Data any

	// Content, when non-nil, replaces the caller's validation content;
	// its fingerprint is stored as the entry's content hash.
	Content *string

	// Expiration, when non-empty, overrides the requested TTL for this
	// write only.
	Expiration string
}

// asFetchResult unwraps a fetch return value.
func asFetchResult(v any) (FetchResult, bool) {
	switch r := v.(type) {
	case FetchResult:
		return r, true
	case *FetchResult:
		if r == nil {
			return FetchResult{}, false
		}
		return *r, true
	default:
		return FetchResult{}, false
	}
}

// resolveRefreshSource turns ForceRefresh's value-or-function argument
// into a FetchFunc.
func resolveRefreshSource(dataOrFn any) FetchFunc {
	switch f := dataOrFn.(type) {
	case FetchFunc:
		return f
	case func(ctx context.Context, path string, info FetchInfo) (any, error):
		return f
	default:
		return func(context.Context, string, FetchInfo) (any, error) {
			return dataOrFn, nil
		}
	}
}
