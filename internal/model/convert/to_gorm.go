package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/vaultcoh/vault/internal/model"
	"github.com/vaultcoh/vault/pkg/core"
	"gorm.io/datatypes"
)

// optionsToJSON converts game options to datatypes.JSON for DB storage.
func optionsToJSON(options []core.Option) datatypes.JSON {
	if len(options) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(options)
	return datatypes.JSON(data)
}

// CoreToReplay converts a decoded replay to a GORM model.Replay with its
// players and messages. Commands are converted per player with CoreToCommands
// once the replay row has an ID.
func CoreToReplay(r core.Replay, hash, filename string) model.Replay {
	out := model.Replay{
		Hash:             hash,
		Filename:         filename,
		Version:          r.Version,
		Timestamp:        r.Timestamp,
		MatchHistoryID:   r.MatchHistoryID,
		OpponentType:     r.OpponentType.String(),
		MapFilename:      r.Map.Filename,
		MapNameID:        r.Map.LocalizedNameID,
		MapDescriptionID: r.Map.LocalizedDescriptionID,
		LengthTicks:      r.Length,
		DurationSeconds:  r.Duration().Seconds(),
		Options:          optionsToJSON(r.Options),
	}
	for _, p := range r.Players {
		out.Players = append(out.Players, CoreToPlayer(p))
	}
	for _, m := range r.Messages {
		out.Messages = append(out.Messages, model.Message{Tick: m.Tick, Sender: m.Sender, Text: m.Text})
	}
	return out
}

// CoreToPlayer converts a core.Player to a GORM model.Player.
func CoreToPlayer(p core.Player) model.Player {
	var bg sql.NullInt64
	if p.Battlegroup != nil {
		bg = sql.NullInt64{Int64: int64(*p.Battlegroup), Valid: true}
	}
	return model.Player{
		PlayerID:    p.ID,
		Name:        p.Name,
		Human:       p.Human,
		Faction:     string(p.Faction),
		Team:        p.Team.String(),
		SteamID:     p.SteamID,
		ProfileID:   p.ProfileID,
		Battlegroup: bg,
		AIType:      p.AIType,
	}
}

// CoreToCommand converts one command of the given player.
func CoreToCommand(replayID uint, playerID uint32, c core.Command) model.Command {
	payload, _ := json.Marshal(c)
	out := model.Command{
		ReplayID: replayID,
		PlayerID: playerID,
		Tick:     c.TickIndex(),
		Kind:     string(c.Kind()),
		Payload:  datatypes.JSON(payload),
	}

	switch v := c.(type) {
	case core.BuildGlobalUpgrade:
		out.PGBID = validInt64(v.PGBID)
	case core.BuildSquad:
		out.PGBID = validInt64(v.PGBID)
		out.SourceIdentifier = validInt32(v.SourceIdentifier)
	case core.CancelConstruction:
		out.SourceIdentifier = validInt32(v.SourceIdentifier)
	case core.CancelProduction:
		out.SourceIdentifier = validInt32(v.SourceIdentifier)
	case core.SelectBattlegroup:
		out.PGBID = validInt64(v.PGBID)
	case core.SelectBattlegroupAbility:
		out.PGBID = validInt64(v.PGBID)
	case core.UseAbility:
		out.PGBID = validInt64(v.PGBID)
		out.SourceIdentifier = validInt32(v.SourceIdentifier)
	case core.UseBattlegroupAbility:
		out.PGBID = validInt64(v.PGBID)
	}
	return out
}

// CoreToCommands converts every command of every player.
func CoreToCommands(replayID uint, r core.Replay) []model.Command {
	var out []model.Command
	for _, p := range r.Players {
		for _, c := range p.Commands {
			out = append(out, CoreToCommand(replayID, p.ID, c))
		}
	}
	return out
}

func validInt64(v uint32) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func validInt32(v uint16) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(v), Valid: true}
}
