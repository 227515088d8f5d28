package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Hint tells Decode what the entry's metadata recorded about
// compression, if anything.
type Hint int

const (
	// HintUnknown means no metadata hint exists; compression is
	// inferred from the payload's leading bytes.
	HintUnknown Hint = iota

	// HintCompressed means metadata flagged the payload as compressed.
	HintCompressed

	// HintUncompressed means metadata flagged the payload as stored raw.
	HintUncompressed
)

// gzip member header, RFC 1952.
var gzipMagic = []byte{0x1f, 0x8b}

// Encode serializes v to JSON, compresses it, and base64-encodes the
// result. If compression fails the JSON bytes are stored raw and
// compressed=false is returned; encoding never aborts over the
// compressor alone.
func Encode(v any) (payload string, compressed bool, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false, fmt.Errorf("codec: marshal: %w", err)
	}

	body, compressed := tryCompress(raw)
	return base64.StdEncoding.EncodeToString(body), compressed, nil
}

func tryCompress(raw []byte) ([]byte, bool) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return raw, false
	}
	if err := zw.Close(); err != nil {
		return raw, false
	}
	return buf.Bytes(), true
}

// strategy is one recovery attempt in the ordered decode chain.
type strategy struct {
	name    string
	applies func() bool
	attempt func() (any, error)
}

// Decode reconstructs the value behind payload. The hint is advisory:
// the real encoding may disagree with what metadata recorded, so
// Decode walks an ordered strategy chain and returns the first
// success.
//
// Chain: empty decoded bytes fail fast with ErrCorruptPayload; then
// plain JSON over the decoded bytes, gunzip+JSON when flagged or
// inferred compressed, and finally the raw payload string itself as
// JSON (covers writers that never base64-encoded). Exhaustion yields
// ErrUnrecoverablePayload.
func Decode(payload string, hint Hint) (any, error) {
	decoded, b64Err := base64.StdEncoding.DecodeString(payload)
	if b64Err == nil && len(decoded) == 0 {
		if payload == "" {
			return nil, fmt.Errorf("%w: empty payload", ErrCorruptPayload)
		}
		return nil, fmt.Errorf("%w: base64 decoded to zero bytes", ErrCorruptPayload)
	}

	compressed := hint == HintCompressed
	if hint == HintUnknown && b64Err == nil {
		compressed = bytes.HasPrefix(decoded, gzipMagic)
	}

	chain := []strategy{
		{
			name:    "plain-json",
			applies: func() bool { return b64Err == nil },
			attempt: func() (any, error) { return unmarshal(decoded) },
		},
		{
			name:    "gunzip-json",
			applies: func() bool { return b64Err == nil && compressed },
			attempt: func() (any, error) {
				raw, err := gunzip(decoded)
				if err != nil {
					return nil, err
				}
				return unmarshal(raw)
			},
		},
		{
			name:    "raw-string-json",
			applies: func() bool { return true },
			attempt: func() (any, error) { return unmarshal([]byte(payload)) },
		},
	}

	for _, s := range chain {
		if !s.applies() {
			continue
		}
		if v, err := s.attempt(); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: all decode strategies failed", ErrUnrecoverablePayload)
}

func unmarshal(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func gunzip(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
