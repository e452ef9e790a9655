package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/pkg/core"
)

func TestNewReplayStart(t *testing.T) {
	r := &core.Replay{
		Version:        10612,
		MatchHistoryID: 99,
		OpponentType:   core.OpponentHuman,
		Map:            core.Map{Filename: "data:scenarios\\tunis", LocalizedNameID: "$11220"},
		Options:        []core.Option{{Name: "Resources", Value: 2}},
		Length:         80,
	}

	p := NewReplayStart("abc", "m.rec", r)
	assert.Equal(t, "Human", p.OpponentType)
	assert.Equal(t, 10.0, p.DurationSeconds)
	assert.Equal(t, map[string]uint32{"Resources": 2}, p.Options)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"map":{"filename":"data:scenarios\\tunis","nameId":"$11220","descriptionId":""}`)
}

func TestNewReplayStart_NoOptions(t *testing.T) {
	data, err := json.Marshal(NewReplayStart("abc", "m.rec", &core.Replay{}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"options":{}`)
}

func TestNewPlayer(t *testing.T) {
	bg := uint32(7)
	p := NewPlayer(core.Player{ID: 2, Name: "bot", Faction: core.FactionWehrmacht, Team: core.TeamSecond, Battlegroup: &bg, AIType: "hard"})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"name":"bot","human":false,"faction":"germans","team":"Second","battlegroup":7,"aiType":"hard"}`, string(data))
}
