// Package v1 is the JSON export format of a decoded replay.
package v1

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON document.
type Export struct {
	FormatVersion   int       `json:"formatVersion"`
	Hash            string    `json:"hash"`
	Filename        string    `json:"filename"`
	Version         uint16    `json:"version"`
	Timestamp       string    `json:"timestamp"`
	MatchHistoryID  uint64    `json:"matchHistoryId"`
	OpponentType    string    `json:"opponentType"`
	Map             Map       `json:"map"`
	LengthTicks     uint32    `json:"lengthTicks"`
	DurationSeconds float64   `json:"durationSeconds"`
	Options         []Option  `json:"options"`
	Players         []Player  `json:"players"`
	Messages        []Message `json:"messages"`
}

type Map struct {
	Filename      string `json:"filename"`
	NameID        string `json:"nameId"`
	DescriptionID string `json:"descriptionId"`
}

type Option struct {
	Name  string `json:"name"`
	Value uint32 `json:"value"`
}

// Player carries the participant and their commands in tick order.
type Player struct {
	ID          uint32    `json:"id"`
	Name        string    `json:"name"`
	Human       bool      `json:"human"`
	Faction     string    `json:"faction"`
	Team        int       `json:"team"`
	SteamID     string    `json:"steamId,omitempty"`
	ProfileID   uint64    `json:"profileId,omitempty"`
	Battlegroup *uint32   `json:"battlegroup"`
	AIType      string    `json:"aiType,omitempty"`
	Commands    []Command `json:"commands"`
}

// Command is [tick, kind, fields] compacted into an object.
type Command struct {
	Tick   uint32         `json:"tick"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

type Message struct {
	Tick   uint32 `json:"tick"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
