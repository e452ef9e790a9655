package parser

import (
	"fmt"
)

// TickKind is the type field of a tick record.
type TickKind uint32

const (
	TickCommand TickKind = 0
	TickMessage TickKind = 1
)

// Tick is one record of the event log.
type Tick interface {
	isTick()
}

// CommandTick carries the command bundles issued during one game tick.
type CommandTick struct {
	TickID  uint32
	Bundles []Bundle
}

// MessageTick carries chat messages.
type MessageTick struct {
	Messages []Message
}

// OpaqueTick is a tick kind that carries nothing decoded.
type OpaqueTick struct {
	Kind TickKind
	Size uint32
}

func (*CommandTick) isTick() {}
func (*MessageTick) isTick() {}
func (*OpaqueTick) isTick()  {}

// Bundle wraps one player's command payload.
type Bundle struct {
	Kind    CommandKind
	Command CommandData
}

// Message is one chat line.
type Message struct {
	Sender string
	Text   string
}

// ParseTicks decodes tick records until the input is exhausted.
func (p *Parser) ParseTicks(c *Cursor) ([]Tick, error) {
	var ticks []Tick
	for c.Remaining() > 0 {
		t, err := p.parseTick(c)
		if err != nil {
			return nil, fmt.Errorf("parsing tick %d: %w", len(ticks)+1, err)
		}
		ticks = append(ticks, t)
	}
	return ticks, nil
}

func (p *Parser) parseTick(c *Cursor) (Tick, error) {
	kind, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	size, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	body, err := c.SubLen(size)
	if err != nil {
		return nil, err
	}

	var t Tick
	switch TickKind(kind) {
	case TickCommand:
		t, err = p.parseCommandTick(body)
	case TickMessage:
		t, err = parseMessageTick(body)
	default:
		return &OpaqueTick{Kind: TickKind(kind), Size: size}, nil
	}
	if err != nil {
		return nil, err
	}
	if body.Remaining() != 0 {
		return nil, newDecodeError(ErrFramingViolation, body.Offset(), "tick consumed %d of %d bytes", body.Consumed(), size)
	}
	return t, nil
}

func (p *Parser) parseCommandTick(c *Cursor) (*CommandTick, error) {
	t := &CommandTick{}
	var err error
	if err = c.Skip(1); err != nil {
		return nil, framed(err)
	}
	if t.TickID, err = c.Uint32(); err != nil {
		return nil, framed(err)
	}
	if err = c.Skip(4); err != nil {
		return nil, framed(err)
	}
	n, err := U32Count(c)
	if err != nil {
		return nil, framed(err)
	}
	t.Bundles = make([]Bundle, 0, min(n, c.Remaining()/5))
	for i := 0; i < n; i++ {
		b, err := p.parseBundle(c)
		if err != nil {
			return nil, fmt.Errorf("tick %d bundle %d: %w", t.TickID, i, err)
		}
		t.Bundles = append(t.Bundles, b)
	}
	return t, nil
}

func (p *Parser) parseBundle(c *Cursor) (Bundle, error) {
	kind, err := c.Uint8()
	if err != nil {
		return Bundle{}, framed(err)
	}
	length, err := c.Uint32()
	if err != nil {
		return Bundle{}, framed(err)
	}
	payload, err := c.SubLen(length)
	if err != nil {
		return Bundle{}, framed(err)
	}
	data, err := ParseCommand(CommandKind(kind), payload)
	if err != nil {
		return Bundle{}, err
	}
	if u, ok := data.(UnknownData); ok {
		p.logger.Debug("unrecognized command kind, keeping raw payload", "kind", kind, "length", len(u.Raw))
	}
	return Bundle{Kind: CommandKind(kind), Command: data}, nil
}

func parseMessageTick(c *Cursor) (*MessageTick, error) {
	if err := c.Skip(4); err != nil {
		return nil, framed(err)
	}
	msgs, err := Sequence(c, U32Count, parseMessage)
	if err != nil {
		return nil, fmt.Errorf("messages: %w", framed(err))
	}
	return &MessageTick{Messages: msgs}, nil
}

func parseMessage(c *Cursor) (Message, error) {
	var m Message
	var err error
	if m.Sender, err = u32UTF16(c); err != nil {
		return m, err
	}
	if m.Text, err = u32UTF16(c); err != nil {
		return m, err
	}
	return m, nil
}
