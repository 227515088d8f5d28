package codec

import "errors"

var (
	// ErrCorruptPayload indicates the payload is structurally unusable
	// before any strategy ran (e.g. it decodes to zero bytes).
	ErrCorruptPayload = errors.New("codec: corrupt payload")

	// ErrUnrecoverablePayload indicates every decode strategy failed.
	ErrUnrecoverablePayload = errors.New("codec: unrecoverable payload")
)
