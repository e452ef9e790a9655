package parser

import (
	"fmt"
)

// ChunkType is the type tag in a chunk header.
type ChunkType uint32

const (
	ChunkFold ChunkType = 0x00
	ChunkData ChunkType = 0x01
	ChunkSdsc ChunkType = 0x02
)

func (t ChunkType) String() string {
	switch t {
	case ChunkFold:
		return "FOLD"
	case ChunkData:
		return "DATA"
	case ChunkSdsc:
		return "SDSC"
	default:
		return fmt.Sprintf("0x%02x", uint32(t))
	}
}

// Header precedes every chunk body. Length is the exact byte size of the body.
type Header struct {
	Type    ChunkType
	Version uint16
	Length  uint32
}

// HeaderSize is the encoded size of a Header.
const HeaderSize = 10

func parseHeader(c *Cursor) (Header, error) {
	var h Header
	tag, err := c.Uint32()
	if err != nil {
		return h, err
	}
	h.Type = ChunkType(tag)
	if h.Version, err = c.Uint16(); err != nil {
		return h, err
	}
	if h.Length, err = c.Uint32(); err != nil {
		return h, err
	}
	return h, nil
}

// Chunk is one decoded record of the chunk tree.
type Chunk interface {
	ChunkHeader() Header
	isChunk()
}

// FoldChunk groups child chunks.
type FoldChunk struct {
	Header   Header
	Children []Chunk
}

// TrashChunk holds the raw body of a chunk whose type or version is not modeled.
type TrashChunk struct {
	Header Header
	Body   []byte
}

func (c *FoldChunk) ChunkHeader() Header  { return c.Header }
func (c *TrashChunk) ChunkHeader() Header { return c.Header }

func (*FoldChunk) isChunk()  {}
func (*TrashChunk) isChunk() {}

// bodyDecoder decodes a chunk body from a cursor bounded to header.Length.
type bodyDecoder func(p *Parser, h Header, body *Cursor, replayVersion uint16) (Chunk, error)

// decoderFor maps a type tag to its body decoder. Unknown tags decode as trash.
func decoderFor(t ChunkType) (bodyDecoder, bool) {
	switch t {
	case ChunkFold:
		return parseFoldBody, true
	case ChunkData:
		return parseDataBody, true
	case ChunkSdsc:
		return parseSdscBody, true
	default:
		return parseTrashBody, false
	}
}

// ParseChunk reads one header and its body. Once the header is read, the
// body must decode from exactly header.Length bytes; anything else is fatal.
func (p *Parser) ParseChunk(c *Cursor, replayVersion uint16) (Chunk, error) {
	start := c.Offset()
	h, err := parseHeader(c)
	if err != nil {
		return nil, fmt.Errorf("parsing chunk header at %d: %w", start, err)
	}
	body, err := c.SubLen(h.Length)
	if err != nil {
		return nil, fmt.Errorf("parsing %s chunk body: %w", h.Type, err)
	}

	decode, known := decoderFor(h.Type)
	if !known {
		p.logger.Debug("unrecognized chunk type, keeping raw body", "type", h.Type.String(), "version", h.Version, "length", h.Length)
	}
	chunk, err := decode(p, h, body, replayVersion)
	if err != nil {
		return nil, fmt.Errorf("parsing %s chunk v%d: %w", h.Type, h.Version, framed(err))
	}
	if body.Remaining() != 0 {
		return nil, fmt.Errorf("parsing %s chunk v%d: %w", h.Type, h.Version,
			newDecodeError(ErrFramingViolation, body.Offset(), "body consumed %d of %d bytes", body.Consumed(), h.Length))
	}
	return chunk, nil
}

// parseChunks decodes chunks until the cursor is exhausted.
func (p *Parser) parseChunks(c *Cursor, replayVersion uint16) ([]Chunk, error) {
	var chunks []Chunk
	for c.Remaining() > 0 {
		chunk, err := p.ParseChunk(c, replayVersion)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func parseFoldBody(p *Parser, h Header, body *Cursor, replayVersion uint16) (Chunk, error) {
	children, err := p.parseChunks(body, replayVersion)
	if err != nil {
		return nil, err
	}
	return &FoldChunk{Header: h, Children: children}, nil
}

func parseTrashBody(_ *Parser, h Header, body *Cursor, _ uint16) (Chunk, error) {
	raw, err := body.Bytes(body.Remaining())
	if err != nil {
		return nil, err
	}
	return &TrashChunk{Header: h, Body: raw}, nil
}

// Walk visits chunks depth-first, parents before children. It stops early
// when fn returns false.
func Walk(chunks []Chunk, fn func(Chunk) bool) bool {
	for _, c := range chunks {
		if !fn(c) {
			return false
		}
		if f, ok := c.(*FoldChunk); ok {
			if !Walk(f.Children, fn) {
				return false
			}
		}
	}
	return true
}
