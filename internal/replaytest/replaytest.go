// Package replaytest builds synthetic replay files for tests.
package replaytest

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

const (
	chunkFold = 0x00
	chunkData = 0x01
	chunkSdsc = 0x02

	tickCommand = 0
	tickMessage = 1
	tickOther   = 2

	versionBattlegroups = 8369
	versionAIType       = 21283

	// NoBattlegroup encodes a player without a battlegroup.
	NoBattlegroup = 0xFFFFFFFF
)

var magic = []byte("Relic Chunky\r\n\x1a\x00")

type writer struct {
	bytes.Buffer
}

func (w *writer) u8(v uint8)   { w.WriteByte(v) }
func (w *writer) u16(v uint16) { binary.Write(w, binary.LittleEndian, v) }
func (w *writer) u32(v uint32) { binary.Write(w, binary.LittleEndian, v) }
func (w *writer) u64(v uint64) { binary.Write(w, binary.LittleEndian, v) }
func (w *writer) zeros(n int)  { w.Write(make([]byte, n)) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.WriteString(s)
}

func (w *writer) utf16(s string) {
	enc, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(s)
	if err != nil {
		panic(err)
	}
	w.u32(uint32(len(enc) / 2))
	w.WriteString(enc)
}

func chunk(tag uint32, version uint16, body []byte) []byte {
	w := &writer{}
	w.u32(tag)
	w.u16(version)
	w.u32(uint32(len(body)))
	w.Write(body)
	return w.Bytes()
}

// Player describes one entry of the session record.
type Player struct {
	Human       bool
	Name        string
	Team        uint32
	ID          uint32
	Faction     string
	SteamID     string
	ProfileID   uint64
	Battlegroup uint32
	AIType      string
}

// Option is a lobby setting.
type Option struct {
	Name  string
	Value uint32
}

// Replay describes a synthetic replay file.
type Replay struct {
	Version        uint16
	Timestamp      string
	OpponentType   uint32
	MatchHistoryID uint64
	Players        []Player
	Options        []Option
	MapFilename    string
	MapName        string
	MapDescription string
	Ticks          [][]byte
}

// Bytes encodes the replay.
func (r Replay) Bytes() []byte {
	w := &writer{}
	w.zeros(2)
	w.u16(r.Version)
	w.WriteString("COH3")
	w.utf16(r.Timestamp)

	w.Write(chunky(chunk(chunkFold, 1, chunk(0x40, 1, []byte("FOLDINFO")))))
	session := append(chunk(chunkData, 2, r.dataBody()), chunk(chunkSdsc, 3, r.sdscBody())...)
	w.Write(chunky(chunk(chunkFold, 1, session)))

	for _, t := range r.Ticks {
		w.Write(t)
	}
	return w.Bytes()
}

func chunky(stream []byte) []byte {
	w := &writer{}
	w.Write(magic)
	w.u32(3)
	w.u32(1)
	w.u32(uint32(len(stream)))
	w.Write(stream)
	return w.Bytes()
}

func (r Replay) dataBody() []byte {
	w := &writer{}
	w.u32(r.OpponentType)
	w.zeros(6)
	w.u32(uint32(len(r.Players)))
	for _, p := range r.Players {
		w.u8(boolByte(p.Human))
		w.utf16(p.Name)
		w.u32(p.Team)
		w.u32(p.ID)
		w.str(p.Faction)
		w.zeros(4)
		w.str(p.SteamID)
		w.u64(p.ProfileID)
		if r.Version >= versionBattlegroups {
			w.u32(p.Battlegroup)
		}
		if r.Version >= versionAIType {
			w.str(p.AIType)
		}
	}
	w.u32(0)
	w.u32(0)
	w.u64(r.MatchHistoryID)
	w.zeros(16)
	w.u32(uint32(len(r.Options)))
	w.u32(1)
	for _, o := range r.Options {
		w.str(o.Name)
		w.u32(o.Value)
	}
	w.zeros(12)
	w.str("")
	return w.Bytes()
}

func (r Replay) sdscBody() []byte {
	w := &writer{}
	w.zeros(4)
	w.str(r.MapFilename)
	w.zeros(8)
	w.str(r.MapName)
	w.str(r.MapDescription)
	w.zeros(8)
	return w.Bytes()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func tick(kind uint32, body []byte) []byte {
	w := &writer{}
	w.u32(kind)
	w.u32(uint32(len(body)))
	w.Write(body)
	return w.Bytes()
}

// CommandTick encodes a command tick holding the given bundles.
func CommandTick(id uint32, bundles ...[]byte) []byte {
	w := &writer{}
	w.u8(0)
	w.u32(id)
	w.zeros(4)
	w.u32(uint32(len(bundles)))
	for _, b := range bundles {
		w.Write(b)
	}
	return tick(tickCommand, w.Bytes())
}

// MessageTick encodes a tick carrying one chat line.
func MessageTick(sender, text string) []byte {
	w := &writer{}
	w.zeros(4)
	w.u32(1)
	w.utf16(sender)
	w.utf16(text)
	return tick(tickMessage, w.Bytes())
}

// IdleTick encodes a tick of a kind that carries nothing decoded.
func IdleTick() []byte {
	return tick(tickOther, []byte{0, 0, 0, 0})
}

// Bundle wraps a command payload with its outer kind.
func Bundle(kind uint8, payload []byte) []byte {
	w := &writer{}
	w.u8(kind)
	w.u32(uint32(len(payload)))
	w.Write(payload)
	return w.Bytes()
}

// BuildSquad encodes a build squad bundle.
func BuildSquad(player uint8, source uint16, pgbid uint32) []byte {
	w := &writer{}
	w.zeros(2)
	w.u8(3)
	w.u8(player)
	w.zeros(26)
	w.u16(source)
	w.zeros(3)
	w.u32(pgbid)
	return Bundle(3, w.Bytes())
}

// SelectBattlegroup encodes a battlegroup selection bundle.
func SelectBattlegroup(player uint8, pgbid uint32) []byte {
	w := &writer{}
	w.zeros(2)
	w.u8(125)
	w.u8(player)
	w.zeros(13)
	w.u32(pgbid)
	return Bundle(125, w.Bytes())
}

// Sample is a two player match with a handful of commands and a chat line.
func Sample() Replay {
	return Replay{
		Version:        10612,
		Timestamp:      "5/1/2024 6:30 PM",
		OpponentType:   1,
		MatchHistoryID: 4242,
		Players: []Player{
			{Human: true, Name: "madhax", Team: 0, ID: 0, Faction: "americans", SteamID: "/steam/76561198000000001", ProfileID: 111, Battlegroup: 2072430},
			{Human: true, Name: "Quixalotl", Team: 1, ID: 1, Faction: "afrika_korps", SteamID: "/steam/76561198000000002", ProfileID: 222, Battlegroup: 196934},
		},
		Options:        []Option{{Name: "VictoryPoints", Value: 500}},
		MapFilename:    "data:scenarios\\multiplayer\\twin_beaches_2p\\twin_beaches_2p",
		MapName:        "$11233954",
		MapDescription: "$11233955",
		Ticks: [][]byte{
			IdleTick(),
			CommandTick(1, BuildSquad(0, 12, 198374)),
			MessageTick("madhax", "gl hf"),
			CommandTick(2, SelectBattlegroup(1, 196934), BuildSquad(1, 4, 198375)),
			IdleTick(),
			CommandTick(3, BuildSquad(0, 12, 198376)),
		},
	}
}
