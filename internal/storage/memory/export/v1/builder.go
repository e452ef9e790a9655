package v1

import (
	"github.com/vaultcoh/vault/pkg/core"
)

// Build converts a decoded replay into its export document. Slices are never
// nil so the JSON always carries arrays.
func Build(hash, filename string, r *core.Replay) Export {
	export := Export{
		FormatVersion:   FormatVersion,
		Hash:            hash,
		Filename:        filename,
		Version:         r.Version,
		Timestamp:       r.Timestamp,
		MatchHistoryID:  r.MatchHistoryID,
		OpponentType:    r.OpponentType.String(),
		LengthTicks:     r.Length,
		DurationSeconds: r.Duration().Seconds(),
		Map: Map{
			Filename:      r.Map.Filename,
			NameID:        r.Map.LocalizedNameID,
			DescriptionID: r.Map.LocalizedDescriptionID,
		},
		Options:  make([]Option, 0, len(r.Options)),
		Players:  make([]Player, 0, len(r.Players)),
		Messages: make([]Message, 0, len(r.Messages)),
	}

	for _, o := range r.Options {
		export.Options = append(export.Options, Option{Name: o.Name, Value: o.Value})
	}
	for _, p := range r.Players {
		export.Players = append(export.Players, buildPlayer(p))
	}
	for _, m := range r.Messages {
		export.Messages = append(export.Messages, Message{Tick: m.Tick, Sender: m.Sender, Text: m.Text})
	}
	return export
}

func buildPlayer(p core.Player) Player {
	out := Player{
		ID:          p.ID,
		Name:        p.Name,
		Human:       p.Human,
		Faction:     string(p.Faction),
		Team:        int(p.Team),
		SteamID:     p.SteamID,
		ProfileID:   p.ProfileID,
		Battlegroup: p.Battlegroup,
		AIType:      p.AIType,
		Commands:    make([]Command, 0, len(p.Commands)),
	}
	for _, c := range p.Commands {
		out.Commands = append(out.Commands, buildCommand(c))
	}
	return out
}

func buildCommand(c core.Command) Command {
	f := core.FieldsOf(c)
	fields := make(map[string]any)
	if f.PGBID != nil {
		fields["pgbid"] = *f.PGBID
	}
	if f.SourceIdentifier != nil {
		fields["sourceIdentifier"] = *f.SourceIdentifier
	}
	if f.QueueIndex != nil {
		fields["queueIndex"] = *f.QueueIndex
	}
	if f.Action != nil {
		fields["action"] = *f.Action
	}
	if f.Raw != nil {
		fields["raw"] = f.Raw
	}
	cmd := Command{Tick: f.Tick, Kind: string(f.Kind)}
	if len(fields) > 0 {
		cmd.Fields = fields
	}
	return cmd
}
