// Package convert maps decoded replay records to the public model and the
// public model to database rows.
package convert

import (
	"github.com/vaultcoh/vault/internal/parser"
	"github.com/vaultcoh/vault/pkg/core"
)

// ReplayFromData assembles the public replay. Players and options come from
// the first session record found depth-first across all chunkies, the map
// from the first scenario record.
func ReplayFromData(d *parser.Data) *core.Replay {
	r := &core.Replay{
		Version:   d.Header.Version,
		Timestamp: d.Header.Timestamp,
		Length:    uint32(len(d.Ticks)),
	}

	var data *parser.DataDataChunk
	var sdsc *parser.SdscChunk
	for _, ch := range d.Chunkies {
		parser.Walk(ch.Chunks, func(c parser.Chunk) bool {
			switch v := c.(type) {
			case *parser.DataDataChunk:
				if data == nil {
					data = v
				}
			case *parser.SdscChunk:
				if sdsc == nil {
					sdsc = v
				}
			}
			return data == nil || sdsc == nil
		})
	}

	if sdsc != nil {
		r.Map = core.Map{
			Filename:               sdsc.Filename,
			LocalizedNameID:        sdsc.LocalizedNameID,
			LocalizedDescriptionID: sdsc.LocalizedDescriptionID,
		}
	}

	commands := CommandsByPlayer(d.Ticks)
	if data != nil {
		r.MatchHistoryID = data.MatchHistoryID
		r.OpponentType = core.OpponentType(data.OpponentType)
		r.Players = make([]core.Player, 0, len(data.Players))
		for _, p := range data.Players {
			player := PlayerFromData(p)
			player.Commands = commands[p.ID]
			r.Players = append(r.Players, player)
		}
		for _, o := range data.Options {
			r.Options = append(r.Options, core.Option{Name: o.Name, Value: o.Value})
		}
	}

	r.Messages = MessagesFromTicks(d.Ticks)
	return r
}

// PlayerFromData converts a player record. Commands are attached separately.
func PlayerFromData(p parser.Player) core.Player {
	return core.Player{
		ID:          p.ID,
		Name:        p.Name,
		Human:       p.Human,
		Faction:     core.Faction(p.Faction),
		Team:        core.Team(p.Team),
		SteamID:     p.SteamID,
		ProfileID:   p.ProfileID,
		Battlegroup: p.Battlegroup,
		AIType:      p.AIType,
	}
}

// MessagesFromTicks collects chat lines stamped with their 1-based tick.
func MessagesFromTicks(ticks []parser.Tick) []core.Message {
	var out []core.Message
	for i, t := range ticks {
		mt, ok := t.(*parser.MessageTick)
		if !ok {
			continue
		}
		for _, m := range mt.Messages {
			out = append(out, core.Message{Tick: uint32(i + 1), Sender: m.Sender, Text: m.Text})
		}
	}
	return out
}
