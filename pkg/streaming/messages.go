// Package streaming defines the messages a replay is streamed as over a
// WebSocket.
package streaming

import (
	"encoding/json"

	"github.com/vaultcoh/vault/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeReplayStart = "replay_start"
	TypePlayer      = "player"
	TypeCommands    = "commands"
	TypeMessage     = "message"
	TypeReplayEnd   = "replay_end"
	TypeAck         = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// ReplayStartPayload opens a replay stream.
type ReplayStartPayload struct {
	Hash            string            `json:"hash"`
	Filename        string            `json:"filename"`
	Version         uint16            `json:"version"`
	Timestamp       string            `json:"timestamp"`
	MatchHistoryID  uint64            `json:"matchHistoryId"`
	OpponentType    string            `json:"opponentType"`
	Map             MapPayload        `json:"map"`
	LengthTicks     uint32            `json:"lengthTicks"`
	DurationSeconds float64           `json:"durationSeconds"`
	Options         map[string]uint32 `json:"options"`
}

type MapPayload struct {
	Filename      string `json:"filename"`
	NameID        string `json:"nameId"`
	DescriptionID string `json:"descriptionId"`
}

// PlayerPayload describes one participant. Its commands follow in one or
// more commands messages.
type PlayerPayload struct {
	ID          uint32  `json:"id"`
	Name        string  `json:"name"`
	Human       bool    `json:"human"`
	Faction     string  `json:"faction"`
	Team        string  `json:"team"`
	SteamID     string  `json:"steamId,omitempty"`
	ProfileID   uint64  `json:"profileId,omitempty"`
	Battlegroup *uint32 `json:"battlegroup,omitempty"`
	AIType      string  `json:"aiType,omitempty"`
}

// CommandsPayload is a batch of one player's commands in tick order.
type CommandsPayload struct {
	PlayerID uint32               `json:"playerId"`
	Commands []core.CommandFields `json:"commands"`
}

type MessagePayload struct {
	Tick   uint32 `json:"tick"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ReplayEndPayload closes a replay stream with totals the server can check.
type ReplayEndPayload struct {
	Hash     string `json:"hash"`
	Players  int    `json:"players"`
	Commands int    `json:"commands"`
	Messages int    `json:"messages"`
}

// NewReplayStart builds the opening payload for r.
func NewReplayStart(hash, filename string, r *core.Replay) ReplayStartPayload {
	opts := make(map[string]uint32, len(r.Options))
	for _, o := range r.Options {
		opts[o.Name] = o.Value
	}
	return ReplayStartPayload{
		Hash:           hash,
		Filename:       filename,
		Version:        r.Version,
		Timestamp:      r.Timestamp,
		MatchHistoryID: r.MatchHistoryID,
		OpponentType:   r.OpponentType.String(),
		Map: MapPayload{
			Filename:      r.Map.Filename,
			NameID:        r.Map.LocalizedNameID,
			DescriptionID: r.Map.LocalizedDescriptionID,
		},
		LengthTicks:     r.Length,
		DurationSeconds: r.Duration().Seconds(),
		Options:         opts,
	}
}

func NewPlayer(p core.Player) PlayerPayload {
	return PlayerPayload{
		ID:          p.ID,
		Name:        p.Name,
		Human:       p.Human,
		Faction:     string(p.Faction),
		Team:        p.Team.String(),
		SteamID:     p.SteamID,
		ProfileID:   p.ProfileID,
		Battlegroup: p.Battlegroup,
		AIType:      p.AIType,
	}
}
