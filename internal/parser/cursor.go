package parser

import (
	"bytes"
	"encoding/binary"
)

// Cursor is a forward-only view over an input buffer. The underlying bytes
// are never modified; slices returned by Bytes alias the input.
type Cursor struct {
	buf  []byte
	pos  int
	base int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Offset is the absolute position in the original input.
func (c *Cursor) Offset() int {
	return c.base + c.pos
}

// Remaining reports how many bytes are left.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Consumed reports how many bytes have been read from this cursor.
func (c *Cursor) Consumed() int {
	return c.pos
}

func (c *Cursor) check(n int) error {
	if n < 0 {
		return newDecodeError(ErrInsufficientBytes, c.Offset(), "negative length %d", n)
	}
	if n > c.Remaining() {
		return newDecodeError(ErrInsufficientBytes, c.Offset(), "need %d bytes, have %d", n, c.Remaining())
	}
	return nil
}

// Bytes returns the next n bytes and advances past them.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.check(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances past n bytes without looking at them.
func (c *Cursor) Skip(n int) error {
	if err := c.check(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// HasPrefix reports whether the unread input starts with p.
func (c *Cursor) HasPrefix(p []byte) bool {
	return bytes.HasPrefix(c.buf[c.pos:], p)
}

// Sub splits off the next n bytes as a bounded cursor and advances this one
// past them. Reads on the returned cursor can never see beyond those n bytes.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{buf: b, base: c.Offset() - n}, nil
}

// SubLen is Sub for a length read off the wire.
func (c *Cursor) SubLen(n uint32) (*Cursor, error) {
	if uint64(n) > uint64(c.Remaining()) {
		return nil, newDecodeError(ErrInsufficientBytes, c.Offset(), "need %d bytes, have %d", n, c.Remaining())
	}
	return c.Sub(int(n))
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// expectUint8 reads one byte and fails with ErrUnexpectedDiscriminant when it
// is not want.
func (c *Cursor) expectUint8(want uint8) error {
	off := c.Offset()
	got, err := c.Uint8()
	if err != nil {
		return err
	}
	if got != want {
		return newDecodeError(ErrUnexpectedDiscriminant, off, "want %d, got %d", want, got)
	}
	return nil
}
