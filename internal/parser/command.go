package parser

import "fmt"

// CommandKind is the outer tag of a bundle. For every modeled kind it equals
// the action byte inside the payload.
type CommandKind uint8

const (
	KindBuildSquad               CommandKind = 3
	KindCancelProduction         CommandKind = 5
	KindCancelConstruction       CommandKind = 14
	KindBuildGlobalUpgrade       CommandKind = 46
	KindUseAbility               CommandKind = 48
	KindSelectBattlegroup        CommandKind = 125
	KindSelectBattlegroupAbility CommandKind = 126
	KindUseBattlegroupAbility    CommandKind = 127
)

// CommandData is a decoded bundle payload.
type CommandData interface {
	// PlayerID reports the issuing player. The second result is false
	// when the payload was too short to carry one.
	PlayerID() (uint8, bool)
	isCommandData()
}

type BuildGlobalUpgradeData struct {
	Player uint8
	PGBID  uint32
}

type BuildSquadData struct {
	Player           uint8
	PGBID            uint32
	SourceIdentifier uint16
}

type CancelConstructionData struct {
	Player           uint8
	SourceIdentifier uint16
}

type CancelProductionData struct {
	Player           uint8
	SourceIdentifier uint16
	QueueIndex       uint32
}

type SelectBattlegroupData struct {
	Player uint8
	PGBID  uint32
}

type SelectBattlegroupAbilityData struct {
	Player uint8
	PGBID  uint32
}

type UseAbilityData struct {
	Player           uint8
	PGBID            uint32
	SourceIdentifier uint16
}

type UseBattlegroupAbilityData struct {
	Player uint8
	PGBID  uint32
}

// UnknownData keeps a payload whose kind is not modeled.
type UnknownData struct {
	Kind      CommandKind
	Player    uint8
	HasPlayer bool
	Raw       []byte
}

func (d BuildGlobalUpgradeData) PlayerID() (uint8, bool)       { return d.Player, true }
func (d BuildSquadData) PlayerID() (uint8, bool)               { return d.Player, true }
func (d CancelConstructionData) PlayerID() (uint8, bool)       { return d.Player, true }
func (d CancelProductionData) PlayerID() (uint8, bool)         { return d.Player, true }
func (d SelectBattlegroupData) PlayerID() (uint8, bool)        { return d.Player, true }
func (d SelectBattlegroupAbilityData) PlayerID() (uint8, bool) { return d.Player, true }
func (d UseAbilityData) PlayerID() (uint8, bool)               { return d.Player, true }
func (d UseBattlegroupAbilityData) PlayerID() (uint8, bool)    { return d.Player, true }
func (d UnknownData) PlayerID() (uint8, bool)                  { return d.Player, d.HasPlayer }

func (BuildGlobalUpgradeData) isCommandData()       {}
func (BuildSquadData) isCommandData()               {}
func (CancelConstructionData) isCommandData()       {}
func (CancelProductionData) isCommandData()         {}
func (SelectBattlegroupData) isCommandData()        {}
func (SelectBattlegroupAbilityData) isCommandData() {}
func (UseAbilityData) isCommandData()               {}
func (UseBattlegroupAbilityData) isCommandData()    {}
func (UnknownData) isCommandData()                  {}

type commandDecoder func(c *Cursor) (CommandData, error)

func commandDecoderFor(k CommandKind) (commandDecoder, bool) {
	switch k {
	case KindBuildSquad:
		return parseBuildSquad, true
	case KindCancelProduction:
		return parseCancelProduction, true
	case KindCancelConstruction:
		return parseCancelConstruction, true
	case KindBuildGlobalUpgrade:
		return pgbidCommand(KindBuildGlobalUpgrade, func(pid uint8, pgbid uint32) CommandData {
			return BuildGlobalUpgradeData{Player: pid, PGBID: pgbid}
		}), true
	case KindUseAbility:
		return parseUseAbility, true
	case KindSelectBattlegroup:
		return pgbidCommand(KindSelectBattlegroup, func(pid uint8, pgbid uint32) CommandData {
			return SelectBattlegroupData{Player: pid, PGBID: pgbid}
		}), true
	case KindSelectBattlegroupAbility:
		return pgbidCommand(KindSelectBattlegroupAbility, func(pid uint8, pgbid uint32) CommandData {
			return SelectBattlegroupAbilityData{Player: pid, PGBID: pgbid}
		}), true
	case KindUseBattlegroupAbility:
		return pgbidCommand(KindUseBattlegroupAbility, func(pid uint8, pgbid uint32) CommandData {
			return UseBattlegroupAbilityData{Player: pid, PGBID: pgbid}
		}), true
	default:
		return nil, false
	}
}

// ParseCommand decodes one bundle payload of the given outer kind. Unknown
// kinds never fail; a known kind with a bad action byte or a short payload
// does.
func ParseCommand(kind CommandKind, payload *Cursor) (CommandData, error) {
	decode, ok := commandDecoderFor(kind)
	if !ok {
		return parseUnknown(kind, payload)
	}
	d, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("command kind %d: %w", kind, err)
	}
	return d, nil
}

// preamble skips the two reserved bytes, checks the action byte and reads
// the player id that every payload starts with.
func preamble(c *Cursor, action CommandKind) (uint8, error) {
	if err := c.Skip(2); err != nil {
		return 0, err
	}
	if err := c.expectUint8(uint8(action)); err != nil {
		return 0, err
	}
	return c.Uint8()
}

func parseBuildSquad(c *Cursor) (CommandData, error) {
	var d BuildSquadData
	var err error
	if d.Player, err = preamble(c, KindBuildSquad); err != nil {
		return nil, err
	}
	if err = c.Skip(26); err != nil {
		return nil, err
	}
	if d.SourceIdentifier, err = c.Uint16(); err != nil {
		return nil, err
	}
	if err = c.Skip(3); err != nil {
		return nil, err
	}
	if d.PGBID, err = c.Uint32(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseCancelProduction(c *Cursor) (CommandData, error) {
	var d CancelProductionData
	var err error
	if d.Player, err = preamble(c, KindCancelProduction); err != nil {
		return nil, err
	}
	if err = c.Skip(26); err != nil {
		return nil, err
	}
	if d.SourceIdentifier, err = c.Uint16(); err != nil {
		return nil, err
	}
	if err = c.Skip(3); err != nil {
		return nil, err
	}
	if d.QueueIndex, err = c.Uint32(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseCancelConstruction(c *Cursor) (CommandData, error) {
	var d CancelConstructionData
	var err error
	if d.Player, err = preamble(c, KindCancelConstruction); err != nil {
		return nil, err
	}
	if err = c.Skip(26); err != nil {
		return nil, err
	}
	if d.SourceIdentifier, err = c.Uint16(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseUseAbility(c *Cursor) (CommandData, error) {
	var d UseAbilityData
	var err error
	if d.Player, err = preamble(c, KindUseAbility); err != nil {
		return nil, err
	}
	if err = c.Skip(26); err != nil {
		return nil, err
	}
	if d.SourceIdentifier, err = c.Uint16(); err != nil {
		return nil, err
	}
	if err = c.Skip(3); err != nil {
		return nil, err
	}
	if d.PGBID, err = c.Uint32(); err != nil {
		return nil, err
	}
	return d, nil
}

// pgbidCommand builds a decoder for the short layout shared by global
// upgrades and battlegroup commands: preamble, 13 reserved bytes, pgbid.
func pgbidCommand(action CommandKind, build func(pid uint8, pgbid uint32) CommandData) commandDecoder {
	return func(c *Cursor) (CommandData, error) {
		pid, err := preamble(c, action)
		if err != nil {
			return nil, err
		}
		if err = c.Skip(13); err != nil {
			return nil, err
		}
		pgbid, err := c.Uint32()
		if err != nil {
			return nil, err
		}
		return build(pid, pgbid), nil
	}
}

func parseUnknown(kind CommandKind, c *Cursor) (CommandData, error) {
	raw, err := c.Bytes(c.Remaining())
	if err != nil {
		return nil, err
	}
	d := UnknownData{Kind: kind, Raw: raw}
	if len(raw) >= 4 {
		d.Player = raw[3]
		d.HasPlayer = true
	}
	return d, nil
}
