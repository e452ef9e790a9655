package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReads(t *testing.T) {
	w := &wire{}
	w.u8(0xAB).u16(0x1234).u32(0xDEADBEEF).u64(42)
	c := NewCursor(w.bytes())

	u8, err := c.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	u16, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := c.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u64)

	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 15, c.Offset())
}

func TestCursorShortRead(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	require.NoError(t, c.Skip(1))

	_, err := c.Uint32()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBytes)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Offset)

	// a failed read does not advance
	assert.Equal(t, 2, c.Remaining())
}

func TestCursorNegativeLength(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	_, err := c.Bytes(-1)
	assert.ErrorIs(t, err, ErrInsufficientBytes)
}

func TestCursorSub(t *testing.T) {
	c := NewCursor([]byte{0, 1, 2, 3, 4, 5})
	require.NoError(t, c.Skip(1))

	sub, err := c.Sub(3)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Remaining(), "parent advances past the sub view")
	assert.Equal(t, 1, sub.Offset())

	b, err := sub.Bytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, err = sub.Uint8()
	assert.ErrorIs(t, err, ErrInsufficientBytes, "sub view cannot read past its bound")
	assert.Equal(t, 4, sub.Offset())
}

func TestCursorSubLenUntrusted(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4})
	_, err := c.SubLen(0xFFFFFFFF)
	assert.ErrorIs(t, err, ErrInsufficientBytes)
	assert.Equal(t, 4, c.Remaining())
}

func TestCursorHasPrefix(t *testing.T) {
	c := NewCursor(append([]byte{9}, ChunkyMagic...))
	assert.False(t, c.HasPrefix(ChunkyMagic))
	require.NoError(t, c.Skip(1))
	assert.True(t, c.HasPrefix(ChunkyMagic))
}

func TestExpectUint8(t *testing.T) {
	c := NewCursor([]byte{3, 4})
	require.NoError(t, c.expectUint8(3))
	err := c.expectUint8(3)
	assert.ErrorIs(t, err, ErrUnexpectedDiscriminant)
	assert.Contains(t, err.Error(), "want 3, got 4")
}
