package parser

import "fmt"

// DataDataChunk is the session record: opponents, players, match id and
// game options.
type DataDataChunk struct {
	Header         Header
	OpponentType   uint32
	Players        []Player
	BlockA         []byte
	BlockB         []byte
	MatchHistoryID uint64
	Options        []Option
	UnknownString  string
}

func (c *DataDataChunk) ChunkHeader() Header { return c.Header }
func (*DataDataChunk) isChunk()              {}

// Option is a named numeric game setting.
type Option struct {
	Name  string
	Value uint32
}

var dataLayouts = []layout[bodyDecoder]{
	{since: 1, decode: parseTrashBody},
	{since: 2, decode: parseDataDataV2},
}

func parseDataBody(p *Parser, h Header, body *Cursor, replayVersion uint16) (Chunk, error) {
	decode, ok := pickLayout(dataLayouts, h.Version)
	if !ok {
		decode = parseTrashBody
	}
	return decode(p, h, body, replayVersion)
}

func parseDataDataV2(_ *Parser, h Header, c *Cursor, replayVersion uint16) (Chunk, error) {
	d := &DataDataChunk{Header: h}
	var err error

	if d.OpponentType, err = c.Uint32(); err != nil {
		return nil, fmt.Errorf("opponent type: %w", err)
	}
	if err = c.Skip(6); err != nil {
		return nil, err
	}
	if d.Players, err = parsePlayers(c, replayVersion); err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	if d.BlockA, err = OpaqueBlock(c); err != nil {
		return nil, fmt.Errorf("first opaque block: %w", err)
	}
	if d.BlockB, err = OpaqueBlock(c); err != nil {
		return nil, fmt.Errorf("second opaque block: %w", err)
	}
	if d.MatchHistoryID, err = c.Uint64(); err != nil {
		return nil, fmt.Errorf("match history id: %w", err)
	}
	if err = c.Skip(16); err != nil {
		return nil, err
	}
	if d.Options, err = Sequence(c, DerivedCount(U32Count, U32Count), parseOption); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if err = c.Skip(12); err != nil {
		return nil, err
	}
	if d.UnknownString, err = u32String(c); err != nil {
		return nil, fmt.Errorf("trailing string: %w", err)
	}
	return d, nil
}

func parseOption(c *Cursor) (Option, error) {
	var o Option
	var err error
	if o.Name, err = u32String(c); err != nil {
		return o, err
	}
	if o.Value, err = c.Uint32(); err != nil {
		return o, err
	}
	return o, nil
}
