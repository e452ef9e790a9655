package convert

import (
	"github.com/vaultcoh/vault/internal/parser"
	"github.com/vaultcoh/vault/pkg/core"
)

// CommandFromData stamps a decoded payload with its tick. The returned id is
// the issuing player; ok is false when the payload did not carry one.
func CommandFromData(d parser.CommandData, tick uint32) (playerID uint8, ok bool, cmd core.Command) {
	at := core.At{Tick: tick}
	playerID, ok = d.PlayerID()

	switch v := d.(type) {
	case parser.BuildGlobalUpgradeData:
		cmd = core.BuildGlobalUpgrade{At: at, PGBID: v.PGBID}
	case parser.BuildSquadData:
		cmd = core.BuildSquad{At: at, PGBID: v.PGBID, SourceIdentifier: v.SourceIdentifier}
	case parser.CancelConstructionData:
		cmd = core.CancelConstruction{At: at, SourceIdentifier: v.SourceIdentifier}
	case parser.CancelProductionData:
		cmd = core.CancelProduction{At: at, SourceIdentifier: v.SourceIdentifier, QueueIndex: v.QueueIndex}
	case parser.SelectBattlegroupData:
		cmd = core.SelectBattlegroup{At: at, PGBID: v.PGBID}
	case parser.SelectBattlegroupAbilityData:
		cmd = core.SelectBattlegroupAbility{At: at, PGBID: v.PGBID}
	case parser.UseAbilityData:
		cmd = core.UseAbility{At: at, PGBID: v.PGBID, SourceIdentifier: v.SourceIdentifier}
	case parser.UseBattlegroupAbilityData:
		cmd = core.UseBattlegroupAbility{At: at, PGBID: v.PGBID}
	case parser.UnknownData:
		cmd = core.Unknown{At: at, Action: uint8(v.Kind), Raw: v.Raw}
	}
	return playerID, ok, cmd
}

// CommandsForPlayer returns the commands issued by playerID in stream order.
// The tick counter starts at 1 and advances on every tick, whatever its kind.
func CommandsForPlayer(ticks []parser.Tick, playerID uint32) []core.Command {
	var out []core.Command
	var tick uint32
	for _, t := range ticks {
		tick++
		ct, ok := t.(*parser.CommandTick)
		if !ok {
			continue
		}
		for _, b := range ct.Bundles {
			pid, ok, cmd := CommandFromData(b.Command, tick)
			if ok && uint32(pid) == playerID {
				out = append(out, cmd)
			}
		}
	}
	return out
}

// CommandsByPlayer groups every attributable command by issuing player in a
// single pass over the ticks.
func CommandsByPlayer(ticks []parser.Tick) map[uint32][]core.Command {
	out := make(map[uint32][]core.Command)
	var tick uint32
	for _, t := range ticks {
		tick++
		ct, ok := t.(*parser.CommandTick)
		if !ok {
			continue
		}
		for _, b := range ct.Bundles {
			if pid, ok, cmd := CommandFromData(b.Command, tick); ok {
				out[uint32(pid)] = append(out[uint32(pid)], cmd)
			}
		}
	}
	return out
}
