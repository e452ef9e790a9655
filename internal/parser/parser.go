package parser

import (
	"fmt"
	"log/slog"
)

// Parser decodes replay bytes into raw records. It keeps no state between
// calls and is safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{logger: logger}
}

// ChunkyMagic opens every chunky container.
var ChunkyMagic = []byte("Relic Chunky\r\n\x1a\x00")

// Product is the product tag of supported replays.
const Product = "COH3"

// ReplayHeader is the fixed preamble of a replay file.
type ReplayHeader struct {
	Version   uint16
	Product   string
	Timestamp string
}

// Chunky is a container of chunks.
type Chunky struct {
	Version  uint32
	Platform uint32
	Chunks   []Chunk
}

// Data is the raw decode of one replay file.
type Data struct {
	Header   ReplayHeader
	Chunkies []Chunky
	Ticks    []Tick
}

// Parse decodes a whole replay. It returns either complete data or an error.
func (p *Parser) Parse(b []byte) (*Data, error) {
	c := NewCursor(b)

	h, err := parseReplayHeader(c)
	if err != nil {
		return nil, fmt.Errorf("parsing replay header: %w", err)
	}
	d := &Data{Header: h}

	if !c.HasPrefix(ChunkyMagic) {
		return nil, newDecodeError(ErrNotReplay, c.Offset(), "missing chunky magic")
	}
	for c.HasPrefix(ChunkyMagic) {
		ch, err := p.parseChunky(c, h.Version)
		if err != nil {
			return nil, fmt.Errorf("parsing chunky %d: %w", len(d.Chunkies), err)
		}
		d.Chunkies = append(d.Chunkies, ch)
	}

	if d.Ticks, err = p.ParseTicks(c); err != nil {
		return nil, err
	}

	p.logger.Debug("replay decoded", "version", h.Version, "chunkies", len(d.Chunkies), "ticks", len(d.Ticks))
	return d, nil
}

func parseReplayHeader(c *Cursor) (ReplayHeader, error) {
	var h ReplayHeader
	var err error
	if err = c.Skip(2); err != nil {
		return h, err
	}
	if h.Version, err = c.Uint16(); err != nil {
		return h, err
	}
	off := c.Offset()
	product, err := c.Bytes(len(Product))
	if err != nil {
		return h, err
	}
	if string(product) != Product {
		return h, newDecodeError(ErrNotReplay, off, "product %q", product)
	}
	h.Product = Product
	if h.Timestamp, err = u32UTF16(c); err != nil {
		return h, fmt.Errorf("timestamp: %w", err)
	}
	return h, nil
}

func (p *Parser) parseChunky(c *Cursor, replayVersion uint16) (Chunky, error) {
	var ch Chunky
	var err error
	if err = c.Skip(len(ChunkyMagic)); err != nil {
		return ch, err
	}
	if ch.Version, err = c.Uint32(); err != nil {
		return ch, err
	}
	if ch.Platform, err = c.Uint32(); err != nil {
		return ch, err
	}
	length, err := c.Uint32()
	if err != nil {
		return ch, err
	}
	body, err := c.SubLen(length)
	if err != nil {
		return ch, err
	}
	if ch.Chunks, err = p.parseChunks(body, replayVersion); err != nil {
		return ch, framed(err)
	}
	return ch, nil
}
