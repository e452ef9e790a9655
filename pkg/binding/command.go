package binding

import (
	"fmt"

	"github.com/vaultcoh/vault/pkg/core"
)

// ClassPrefix namespaces the class names exposed to the host runtime.
const ClassPrefix = "Vault::Commands::"

// VariantError is the panic value of an extractor called on the wrong
// command variant.
type VariantError struct {
	Want core.CommandKind
	Got  core.CommandKind
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("binding: want %s command, got %s", e.Want, e.Got)
}

// Command wraps a decoded command for the host runtime. The host checks
// ClassName and then calls the matching extractor.
type Command struct {
	cmd core.Command
}

func WrapCommand(c core.Command) Command {
	return Command{cmd: c}
}

// WrapCommands wraps every command of a player in order.
func WrapCommands(cmds []core.Command) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[i] = WrapCommand(c)
	}
	return out
}

func (c Command) Kind() core.CommandKind { return c.cmd.Kind() }
func (c Command) Tick() uint32           { return c.cmd.TickIndex() }

// ClassName is the host class the command maps to, e.g.
// Vault::Commands::BuildSquadCommand.
func (c Command) ClassName() string {
	return ClassPrefix + string(c.cmd.Kind()) + "Command"
}

func extract[T core.Command](c Command, want core.CommandKind) T {
	v, ok := c.cmd.(T)
	if !ok {
		panic(&VariantError{Want: want, Got: c.cmd.Kind()})
	}
	return v
}

func (c Command) ExtractBuildGlobalUpgrade() core.BuildGlobalUpgrade {
	return extract[core.BuildGlobalUpgrade](c, core.KindBuildGlobalUpgrade)
}

func (c Command) ExtractBuildSquad() core.BuildSquad {
	return extract[core.BuildSquad](c, core.KindBuildSquad)
}

func (c Command) ExtractCancelConstruction() core.CancelConstruction {
	return extract[core.CancelConstruction](c, core.KindCancelConstruction)
}

func (c Command) ExtractCancelProduction() core.CancelProduction {
	return extract[core.CancelProduction](c, core.KindCancelProduction)
}

func (c Command) ExtractSelectBattlegroup() core.SelectBattlegroup {
	return extract[core.SelectBattlegroup](c, core.KindSelectBattlegroup)
}

func (c Command) ExtractSelectBattlegroupAbility() core.SelectBattlegroupAbility {
	return extract[core.SelectBattlegroupAbility](c, core.KindSelectBattlegroupAbility)
}

func (c Command) ExtractUseAbility() core.UseAbility {
	return extract[core.UseAbility](c, core.KindUseAbility)
}

func (c Command) ExtractUseBattlegroupAbility() core.UseBattlegroupAbility {
	return extract[core.UseBattlegroupAbility](c, core.KindUseBattlegroupAbility)
}

func (c Command) ExtractUnknown() core.Unknown {
	return extract[core.Unknown](c, core.KindUnknown)
}

// commandView is the JSON shape of a command on the call surface.
type commandView struct {
	Class string `json:"class"`
	core.CommandFields
}

func (c Command) view() commandView {
	return commandView{Class: c.ClassName(), CommandFields: core.FieldsOf(c.cmd)}
}
