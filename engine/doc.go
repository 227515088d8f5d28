// Package engine implements a validated, self-describing cache layer
// on top of an opaque key-value store that offers nothing beyond
// per-key TTL expiry.
//
// Every entry is a two-key pair: an encoded payload under a data key
// and a JSON metadata document under a meta key, both derived from the
// caller's path. The store has no cross-key atomicity, so writes use a
// compensating pattern instead of a transaction: data first, then
// metadata carrying a fresh transaction token, then a read-back
// verification that rolls both keys back on any mismatch. This detects
// torn writes after the fact rather than preventing them; the worst
// observable outcome of a race is a spurious cache miss, never stale
// data returned as valid.
//
// Read paths never surface storage or decode failures to the caller.
// An entry that fails expiry, content-hash validation, consistency
// checks, or decoding is treated as absent and both keys are deleted.
// Errors from the caller's fetch function propagate unchanged.
package engine
