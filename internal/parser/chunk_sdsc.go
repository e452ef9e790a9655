package parser

import "fmt"

// SdscChunk describes the scenario: map file and its localization ids.
type SdscChunk struct {
	Header                 Header
	Filename               string
	LocalizedNameID        string
	LocalizedDescriptionID string
}

func (c *SdscChunk) ChunkHeader() Header { return c.Header }
func (*SdscChunk) isChunk()              {}

var sdscLayouts = []layout[bodyDecoder]{
	{since: 1, decode: parseSdscUTF16},
	{since: 3, decode: parseSdscUTF8},
}

func parseSdscBody(p *Parser, h Header, body *Cursor, replayVersion uint16) (Chunk, error) {
	decode, ok := pickLayout(sdscLayouts, h.Version)
	if !ok {
		decode = parseTrashBody
	}
	return decode(p, h, body, replayVersion)
}

// Versions 1 and 2 store the localization ids as UTF-16.
func parseSdscUTF16(_ *Parser, h Header, c *Cursor, _ uint16) (Chunk, error) {
	return parseSdsc(h, c, u32UTF16, 4)
}

func parseSdscUTF8(_ *Parser, h Header, c *Cursor, _ uint16) (Chunk, error) {
	return parseSdsc(h, c, u32String, 8)
}

func parseSdsc(h Header, c *Cursor, localized func(*Cursor) (string, error), trailer int) (Chunk, error) {
	s := &SdscChunk{Header: h}
	var err error
	if err = c.Skip(4); err != nil {
		return nil, err
	}
	if s.Filename, err = u32String(c); err != nil {
		return nil, fmt.Errorf("map filename: %w", err)
	}
	if err = c.Skip(8); err != nil {
		return nil, err
	}
	if s.LocalizedNameID, err = localized(c); err != nil {
		return nil, fmt.Errorf("map name id: %w", err)
	}
	if s.LocalizedDescriptionID, err = localized(c); err != nil {
		return nil, fmt.Errorf("map description id: %w", err)
	}
	if err = c.Skip(trailer); err != nil {
		return nil, err
	}
	return s, nil
}
