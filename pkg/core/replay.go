// pkg/core/replay.go
package core

import "time"

// TickDuration is the simulation step of a match: 8 ticks per second.
const TickDuration = 125 * time.Millisecond

// Replay is a fully decoded match.
type Replay struct {
	Version        uint16
	Timestamp      string
	MatchHistoryID uint64
	OpponentType   OpponentType
	Map            Map
	Players        []Player
	Messages       []Message
	Options        []Option
	// Length is the number of ticks in the event log.
	Length uint32
}

// Duration is the wall-clock length of the match.
func (r *Replay) Duration() time.Duration {
	return time.Duration(r.Length) * TickDuration
}

// Player returns the player with the given id.
func (r *Replay) Player(id uint32) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i], true
		}
	}
	return nil, false
}

// OpponentType describes who the match was played against.
type OpponentType uint32

const (
	OpponentHuman OpponentType = 1
	OpponentAI    OpponentType = 2
	OpponentMixed OpponentType = 3
)

func (o OpponentType) String() string {
	switch o {
	case OpponentHuman:
		return "Human"
	case OpponentAI:
		return "AI"
	case OpponentMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// Map identifies the scenario and its localization keys.
type Map struct {
	Filename               string
	LocalizedNameID        string
	LocalizedDescriptionID string
}

// Message is a chat line sent during the match.
type Message struct {
	Tick   uint32
	Sender string
	Text   string
}

// Option is a named lobby setting.
type Option struct {
	Name  string
	Value uint32
}
