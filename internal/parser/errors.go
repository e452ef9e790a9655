package parser

import (
	"errors"
	"fmt"
)

// Error kinds returned by the decoder. Every error produced while decoding
// wraps exactly one of them, so callers can branch with errors.Is.
var (
	ErrInsufficientBytes      = errors.New("insufficient bytes")
	ErrFramingViolation       = errors.New("framing violation")
	ErrInvalidEncoding        = errors.New("invalid encoding")
	ErrUnexpectedDiscriminant = errors.New("unexpected discriminant")
	ErrNotReplay              = errors.New("not a replay")
)

// DecodeError locates a failure in the input buffer.
type DecodeError struct {
	Kind   error
	Offset int
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func newDecodeError(kind error, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// framed turns a shortfall inside a bounded body into a framing violation:
// the body tried to read past its declared length.
func framed(err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Kind == ErrInsufficientBytes {
		return &DecodeError{Kind: ErrFramingViolation, Offset: de.Offset, Detail: "body overran declared length: " + err.Error()}
	}
	return err
}
