package parser

import "fmt"

// NoBattlegroup marks a player record without a selected battlegroup.
const NoBattlegroup = 0xFFFFFFFF

// Replay versions at which the player record changed shape.
const (
	VersionBattlegroups uint16 = 8369
	VersionAIType       uint16 = 21283
)

// Player is one entry of the session record's player list.
type Player struct {
	Human       bool
	Name        string
	Team        uint32
	ID          uint32
	Faction     string
	SteamID     string
	ProfileID   uint64
	Battlegroup *uint32
	AIType      string
}

type playerDecoder func(c *Cursor) (Player, error)

var playerLayouts = []layout[playerDecoder]{
	{since: 0, decode: parsePlayerLaunch},
	{since: VersionBattlegroups, decode: parsePlayerBattlegroups},
	{since: VersionAIType, decode: parsePlayerAIType},
}

func parsePlayers(c *Cursor, replayVersion uint16) ([]Player, error) {
	decode, _ := pickLayout(playerLayouts, replayVersion)
	return Sequence(c, U32Count, decode)
}

func parsePlayerLaunch(c *Cursor) (Player, error) {
	var p Player
	human, err := c.Uint8()
	if err != nil {
		return p, err
	}
	p.Human = human != 0
	if p.Name, err = u32UTF16(c); err != nil {
		return p, fmt.Errorf("player name: %w", err)
	}
	if p.Team, err = c.Uint32(); err != nil {
		return p, err
	}
	if p.ID, err = c.Uint32(); err != nil {
		return p, err
	}
	if p.Faction, err = u32String(c); err != nil {
		return p, fmt.Errorf("player %q faction: %w", p.Name, err)
	}
	if err = c.Skip(4); err != nil {
		return p, err
	}
	if p.SteamID, err = u32String(c); err != nil {
		return p, fmt.Errorf("player %q steam id: %w", p.Name, err)
	}
	if p.ProfileID, err = c.Uint64(); err != nil {
		return p, err
	}
	return p, nil
}

func parsePlayerBattlegroups(c *Cursor) (Player, error) {
	p, err := parsePlayerLaunch(c)
	if err != nil {
		return p, err
	}
	bg, err := c.Uint32()
	if err != nil {
		return p, err
	}
	if bg != NoBattlegroup {
		p.Battlegroup = &bg
	}
	return p, nil
}

func parsePlayerAIType(c *Cursor) (Player, error) {
	p, err := parsePlayerBattlegroups(c)
	if err != nil {
		return p, err
	}
	if p.AIType, err = u32String(c); err != nil {
		return p, fmt.Errorf("player %q ai type: %w", p.Name, err)
	}
	return p, nil
}
