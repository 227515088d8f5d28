package engine

import (
	"github.com/jonwraymond/cachekit/codec"
	"github.com/jonwraymond/cachekit/fingerprint"
)

// Metadata is the self-describing document stored beside each encoded
// payload. It carries everything needed to validate the entry without
// decoding it: logical expiry, the fingerprint of the validation
// content supplied at write time, and the transaction token of the
// write that produced it.
type Metadata struct {
	// Path is informational; keys are derived from it, not vice versa.
	Path string `json:"path"`

	// CreatedAt and LastModified are epoch milliseconds.
	CreatedAt    int64 `json:"createdAt"`
	LastModified int64 `json:"lastModified"`

	// ExpiresAt is the absolute logical expiry in epoch milliseconds.
	// The underlying store enforces its own physical TTL independently.
	ExpiresAt int64 `json:"expiresAt"`

	// Size is the byte length of the encoded payload.
	Size int `json:"size"`

	// ContentHash is the fingerprint of the validation content supplied
	// at write time; empty when no validation content was given.
	ContentHash string `json:"contentHash,omitempty"`

	// TransactionID is regenerated on every successful write and
	// verified on read-back to detect torn writes.
	TransactionID string `json:"transactionId"`

	// IsCompressed records whether the payload was stored compressed.
	// Nil on entries written before the flag existed; the decoder then
	// infers compression from the payload itself.
	IsCompressed *bool `json:"isCompressed,omitempty"`
}

// expired reports whether the logical expiry has passed at nowMillis.
func (m *Metadata) expired(nowMillis int64) bool {
	return m.ExpiresAt <= nowMillis
}

// matchesContent checks the stored hash against caller-supplied
// validation content. The asymmetry is deliberate: no requested
// validation always matches, but a requested validation against an
// entry written without a content hash is a mismatch. Treating the
// missing-hash case as a match would let an unvalidated write satisfy
// a validated read.
func (m *Metadata) matchesContent(validation *string) bool {
	if validation == nil {
		return true
	}
	if m.ContentHash == "" {
		return false
	}
	return m.ContentHash == fingerprint.Hex(*validation)
}

// hint maps the compression flag to a codec hint.
func (m *Metadata) hint() codec.Hint {
	switch {
	case m.IsCompressed == nil:
		return codec.HintUnknown
	case *m.IsCompressed:
		return codec.HintCompressed
	default:
		return codec.HintUncompressed
	}
}
