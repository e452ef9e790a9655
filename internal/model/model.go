package model

import (
	"database/sql"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Replay{},
	&Player{},
	&Command{},
	&Message{},
}

// Replay is one stored match. Hash is the SHA-256 of the replay file and
// keeps re-imports idempotent.
type Replay struct {
	gorm.Model
	Hash             string         `json:"hash" gorm:"size:64;uniqueIndex:idx_replay_hash"`
	Filename         string         `json:"filename" gorm:"size:255"`
	Version          uint16         `json:"version" gorm:"index:idx_replay_version"`
	Timestamp        string         `json:"timestamp" gorm:"size:64"`
	MatchHistoryID   uint64         `json:"matchHistoryId" gorm:"index:idx_replay_match_history_id"`
	OpponentType     string         `json:"opponentType" gorm:"size:16"`
	MapFilename      string         `json:"mapFilename" gorm:"size:255"`
	MapNameID        string         `json:"mapNameId" gorm:"size:64"`
	MapDescriptionID string         `json:"mapDescriptionId" gorm:"size:64"`
	LengthTicks      uint32         `json:"lengthTicks"`
	DurationSeconds  float64        `json:"durationSeconds"`
	Options          datatypes.JSON `json:"options"`

	Players  []Player
	Messages []Message
}

func (*Replay) TableName() string {
	return "replays"
}

// Player is a participant of a stored replay.
type Player struct {
	ID          uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	ReplayID    uint          `json:"replayId" gorm:"index:idx_player_replay_id"`
	Replay      Replay        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ReplayID;"`
	PlayerID    uint32        `json:"playerId"`
	Name        string        `json:"name" gorm:"size:64"`
	Human       bool          `json:"human"`
	Faction     string        `json:"faction" gorm:"size:32;index:idx_player_faction"`
	Team        string        `json:"team" gorm:"size:16"`
	SteamID     string        `json:"steamId" gorm:"size:64"`
	ProfileID   uint64        `json:"profileId" gorm:"index:idx_player_profile_id"`
	Battlegroup sql.NullInt64 `json:"battlegroup" gorm:"default:NULL"`
	AIType      string        `json:"aiType" gorm:"size:64"`
}

func (*Player) TableName() string {
	return "players"
}

// Command is one player action. Payload holds the full variant as JSON; the
// common identifiers are lifted into columns for querying.
type Command struct {
	ID               uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	ReplayID         uint           `json:"replayId" gorm:"index:idx_command_replay_id"`
	Replay           Replay         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ReplayID;"`
	PlayerID         uint32         `json:"playerId" gorm:"index:idx_command_player_id"`
	Tick             uint32         `json:"tick" gorm:"index:idx_command_tick"`
	Kind             string         `json:"kind" gorm:"size:32;index:idx_command_kind"`
	PGBID            sql.NullInt64  `json:"pgbid" gorm:"default:NULL"`
	SourceIdentifier sql.NullInt32  `json:"sourceIdentifier" gorm:"default:NULL"`
	Payload          datatypes.JSON `json:"payload"`
}

func (*Command) TableName() string {
	return "commands"
}

// Message is a chat line of a stored replay.
type Message struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	ReplayID uint   `json:"replayId" gorm:"index:idx_message_replay_id"`
	Replay   Replay `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ReplayID;"`
	Tick     uint32 `json:"tick"`
	Sender   string `json:"sender" gorm:"size:64"`
	Text     string `json:"text"`
}

func (*Message) TableName() string {
	return "messages"
}
