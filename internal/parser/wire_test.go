package parser

import (
	"bytes"
	"encoding/binary"
	"log/slog"
)

// wire assembles little-endian test input.
type wire struct {
	buf bytes.Buffer
}

func (w *wire) u8(v uint8) *wire {
	w.buf.WriteByte(v)
	return w
}

func (w *wire) u16(v uint16) *wire {
	binary.Write(&w.buf, binary.LittleEndian, v)
	return w
}

func (w *wire) u32(v uint32) *wire {
	binary.Write(&w.buf, binary.LittleEndian, v)
	return w
}

func (w *wire) u64(v uint64) *wire {
	binary.Write(&w.buf, binary.LittleEndian, v)
	return w
}

func (w *wire) zeros(n int) *wire {
	w.buf.Write(make([]byte, n))
	return w
}

func (w *wire) raw(b []byte) *wire {
	w.buf.Write(b)
	return w
}

func (w *wire) str(s string) *wire {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

func (w *wire) utf16(s string) *wire {
	enc, err := utf16le.NewEncoder().String(s)
	if err != nil {
		panic(err)
	}
	w.u32(uint32(len(enc) / 2))
	w.buf.WriteString(enc)
	return w
}

func (w *wire) bytes() []byte {
	return w.buf.Bytes()
}

func chunkBytes(tag ChunkType, version uint16, body []byte) []byte {
	w := &wire{}
	w.u32(uint32(tag)).u16(version).u32(uint32(len(body))).raw(body)
	return w.bytes()
}

// dataDataBody encodes a modern session record with the given players.
func dataDataBody(matchID uint64, players [][]byte, options []Option) []byte {
	w := &wire{}
	w.u32(1).zeros(6)
	w.u32(uint32(len(players)))
	for _, p := range players {
		w.raw(p)
	}
	w.u32(0).u32(0)
	w.u64(matchID).zeros(16)
	w.u32(uint32(len(options))).u32(1)
	for _, o := range options {
		w.str(o.Name).u32(o.Value)
	}
	w.zeros(12).str("x")
	return w.bytes()
}

type testPlayer struct {
	human       bool
	name        string
	team        uint32
	id          uint32
	faction     string
	steamID     string
	profileID   uint64
	battlegroup uint32
	aiType      string
}

func playerBytes(p testPlayer, replayVersion uint16) []byte {
	w := &wire{}
	human := uint8(0)
	if p.human {
		human = 1
	}
	w.u8(human).utf16(p.name).u32(p.team).u32(p.id).str(p.faction).zeros(4).str(p.steamID).u64(p.profileID)
	if replayVersion >= VersionBattlegroups {
		w.u32(p.battlegroup)
	}
	if replayVersion >= VersionAIType {
		w.str(p.aiType)
	}
	return w.bytes()
}

func sdscBody(filename, name, desc string) []byte {
	w := &wire{}
	w.zeros(4).str(filename).zeros(8).str(name).str(desc).zeros(8)
	return w.bytes()
}

func buildSquadPayload(action, player uint8, source uint16, pgbid uint32) []byte {
	w := &wire{}
	w.zeros(2).u8(action).u8(player).zeros(26).u16(source).zeros(3).u32(pgbid)
	return w.bytes()
}

func bundleBytes(kind CommandKind, payload []byte) []byte {
	w := &wire{}
	w.u8(uint8(kind)).u32(uint32(len(payload))).raw(payload)
	return w.bytes()
}

func commandTickBytes(tickID uint32, bundles ...[]byte) []byte {
	body := &wire{}
	body.u8(0).u32(tickID).zeros(4).u32(uint32(len(bundles)))
	for _, b := range bundles {
		body.raw(b)
	}
	return tickBytes(TickCommand, body.bytes())
}

func messageTickBytes(msgs ...Message) []byte {
	body := &wire{}
	body.zeros(4).u32(uint32(len(msgs)))
	for _, m := range msgs {
		body.utf16(m.Sender).utf16(m.Text)
	}
	return tickBytes(TickMessage, body.bytes())
}

func tickBytes(kind TickKind, body []byte) []byte {
	w := &wire{}
	w.u32(uint32(kind)).u32(uint32(len(body))).raw(body)
	return w.bytes()
}

func chunkyBytes(chunks ...[]byte) []byte {
	var stream []byte
	for _, c := range chunks {
		stream = append(stream, c...)
	}
	w := &wire{}
	w.raw(ChunkyMagic).u32(3).u32(1).u32(uint32(len(stream))).raw(stream)
	return w.bytes()
}

func replayBytes(version uint16, chunkies [][]byte, ticks ...[]byte) []byte {
	w := &wire{}
	w.zeros(2).u16(version).raw([]byte(Product)).utf16("2024-05-01 18:30")
	for _, c := range chunkies {
		w.raw(c)
	}
	for _, t := range ticks {
		w.raw(t)
	}
	return w.bytes()
}

func newTestParser() *Parser {
	return NewParser(slog.Default())
}
