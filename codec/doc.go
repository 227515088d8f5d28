// Package codec turns JSON-serializable values into compact strings
// safe to hold in a string-only store, and recovers values from
// payloads whose real encoding may have drifted from what the writer
// recorded.
//
// Encoding is JSON -> gzip -> base64. Decoding runs an ordered chain
// of recovery strategies (plain JSON, gzip, raw string) so that
// entries written uncompressed, written before a compression flag
// existed, or written by a differently configured peer still decode
// instead of failing on the happy-path assumption.
package codec
