// pkg/core/player.go
package core

// Player is a match participant and the commands they issued.
type Player struct {
	ID          uint32
	Name        string
	Human       bool
	Faction     Faction
	Team        Team
	SteamID     string
	ProfileID   uint64
	Battlegroup *uint32
	AIType      string
	Commands    []Command
}

// Faction is the army a player fields.
type Faction string

const (
	FactionAmericans   Faction = "americans"
	FactionBritish     Faction = "british_africa"
	FactionWehrmacht   Faction = "germans"
	FactionAfrikaKorps Faction = "afrika_korps"
)

// Known reports whether f is one of the shipped factions. Other values are
// kept verbatim from the replay.
func (f Faction) Known() bool {
	switch f {
	case FactionAmericans, FactionBritish, FactionWehrmacht, FactionAfrikaKorps:
		return true
	default:
		return false
	}
}

// DisplayName is the in-game name of the faction.
func (f Faction) DisplayName() string {
	switch f {
	case FactionAmericans:
		return "US Forces"
	case FactionBritish:
		return "British Forces"
	case FactionWehrmacht:
		return "Wehrmacht"
	case FactionAfrikaKorps:
		return "Deutsches Afrikakorps"
	default:
		return "Unknown"
	}
}

// Team is the side of a player.
type Team uint32

const (
	TeamFirst  Team = 0
	TeamSecond Team = 1
)

func (t Team) String() string {
	switch t {
	case TeamFirst:
		return "First"
	case TeamSecond:
		return "Second"
	default:
		return "Unknown"
	}
}
