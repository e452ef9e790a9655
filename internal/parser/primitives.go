package parser

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// CountFunc reads a length or element count from the cursor.
type CountFunc func(c *Cursor) (int, error)

// U32Count reads a u32 length field.
func U32Count(c *Cursor) (int, error) {
	n, err := c.Uint32()
	if err != nil {
		return 0, err
	}
	if uint64(n) > math.MaxInt {
		return 0, newDecodeError(ErrInsufficientBytes, c.Offset(), "length %d out of range", n)
	}
	return int(n), nil
}

// DerivedCount reads two consecutive counts and yields their product. Only
// the option list of the session record is encoded this way.
func DerivedCount(a, b CountFunc) CountFunc {
	return func(c *Cursor) (int, error) {
		off := c.Offset()
		x, err := a(c)
		if err != nil {
			return 0, err
		}
		y, err := b(c)
		if err != nil {
			return 0, err
		}
		if x != 0 && y > math.MaxInt/x {
			return 0, newDecodeError(ErrInsufficientBytes, off, "derived count %d*%d out of range", x, y)
		}
		return x * y, nil
	}
}

// VariableString reads a length and that many bytes of UTF-8.
func VariableString(c *Cursor, count CountFunc) (string, error) {
	n, err := count(c)
	if err != nil {
		return "", err
	}
	off := c.Offset()
	b, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", newDecodeError(ErrInvalidEncoding, off, "string of %d bytes is not valid UTF-8", n)
	}
	return string(b), nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// VariableUTF16 reads a length in UTF-16 code units and decodes that many
// little-endian units.
func VariableUTF16(c *Cursor, count CountFunc) (string, error) {
	n, err := count(c)
	if err != nil {
		return "", err
	}
	if n > c.Remaining()/2 {
		return "", newDecodeError(ErrInsufficientBytes, c.Offset(), "need %d UTF-16 units, have %d bytes", n, c.Remaining())
	}
	off := c.Offset()
	b, err := c.Bytes(n * 2)
	if err != nil {
		return "", err
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", newDecodeError(ErrInvalidEncoding, off, "UTF-16 string: %v", err)
	}
	return string(out), nil
}

// maxPrealloc bounds the capacity reserved from an untrusted count. Longer
// sequences grow by append as elements actually decode.
const maxPrealloc = 64

// Sequence reads a count and then exactly that many elements.
func Sequence[T any](c *Cursor, count CountFunc, elem func(*Cursor) (T, error)) ([]T, error) {
	n, err := count(c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := elem(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// OpaqueBlock reads a u32-prefixed run of bytes whose content is not modeled.
func OpaqueBlock(c *Cursor) ([]byte, error) {
	n, err := U32Count(c)
	if err != nil {
		return nil, err
	}
	return c.Bytes(n)
}

func u32String(c *Cursor) (string, error) {
	return VariableString(c, U32Count)
}

func u32UTF16(c *Cursor) (string, error) {
	return VariableUTF16(c, U32Count)
}
