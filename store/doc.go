// Package store defines the opaque key-value contract the cache layer
// is built on, the USER/SCRIPT/DOCUMENT scope selection that partitions
// the keyspace, and two backends: an in-memory store and a persistent
// bbolt-backed store.
//
// The contract is deliberately minimal: per-key get/put/remove with
// independent TTL expiry, no listing, no transactions, no external
// expiry inspection. Everything stronger is layered on top by the
// engine package.
package store
