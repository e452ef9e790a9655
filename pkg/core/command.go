// pkg/core/command.go
package core

// CommandKind names a command variant.
type CommandKind string

const (
	KindBuildGlobalUpgrade       CommandKind = "BuildGlobalUpgrade"
	KindBuildSquad               CommandKind = "BuildSquad"
	KindCancelConstruction       CommandKind = "CancelConstruction"
	KindCancelProduction         CommandKind = "CancelProduction"
	KindSelectBattlegroup        CommandKind = "SelectBattlegroup"
	KindSelectBattlegroupAbility CommandKind = "SelectBattlegroupAbility"
	KindUseAbility               CommandKind = "UseAbility"
	KindUseBattlegroupAbility    CommandKind = "UseBattlegroupAbility"
	KindUnknown                  CommandKind = "Unknown"
)

// Command is one player action, stamped with the 1-based tick it occurred at.
// The issuing player is the Player that holds it.
type Command interface {
	Kind() CommandKind
	TickIndex() uint32
	isCommand()
}

// At carries the tick stamp shared by every command variant.
type At struct {
	Tick uint32 `json:"tick"`
}

func (a At) TickIndex() uint32 { return a.Tick }

type BuildGlobalUpgrade struct {
	At
	PGBID uint32 `json:"pgbid"`
}

type BuildSquad struct {
	At
	PGBID            uint32 `json:"pgbid"`
	SourceIdentifier uint16 `json:"sourceIdentifier"`
}

type CancelConstruction struct {
	At
	SourceIdentifier uint16 `json:"sourceIdentifier"`
}

type CancelProduction struct {
	At
	SourceIdentifier uint16 `json:"sourceIdentifier"`
	QueueIndex       uint32 `json:"queueIndex"`
}

type SelectBattlegroup struct {
	At
	PGBID uint32 `json:"pgbid"`
}

type SelectBattlegroupAbility struct {
	At
	PGBID uint32 `json:"pgbid"`
}

type UseAbility struct {
	At
	PGBID            uint32 `json:"pgbid"`
	SourceIdentifier uint16 `json:"sourceIdentifier"`
}

type UseBattlegroupAbility struct {
	At
	PGBID uint32 `json:"pgbid"`
}

// Unknown is a command whose layout is not modeled.
type Unknown struct {
	At
	Action uint8  `json:"action"`
	Raw    []byte `json:"raw"`
}

func (BuildGlobalUpgrade) Kind() CommandKind       { return KindBuildGlobalUpgrade }
func (BuildSquad) Kind() CommandKind               { return KindBuildSquad }
func (CancelConstruction) Kind() CommandKind       { return KindCancelConstruction }
func (CancelProduction) Kind() CommandKind         { return KindCancelProduction }
func (SelectBattlegroup) Kind() CommandKind        { return KindSelectBattlegroup }
func (SelectBattlegroupAbility) Kind() CommandKind { return KindSelectBattlegroupAbility }
func (UseAbility) Kind() CommandKind               { return KindUseAbility }
func (UseBattlegroupAbility) Kind() CommandKind    { return KindUseBattlegroupAbility }
func (Unknown) Kind() CommandKind                  { return KindUnknown }

func (BuildGlobalUpgrade) isCommand()       {}
func (BuildSquad) isCommand()               {}
func (CancelConstruction) isCommand()       {}
func (CancelProduction) isCommand()         {}
func (SelectBattlegroup) isCommand()        {}
func (SelectBattlegroupAbility) isCommand() {}
func (UseAbility) isCommand()               {}
func (UseBattlegroupAbility) isCommand()    {}
func (Unknown) isCommand()                  {}
