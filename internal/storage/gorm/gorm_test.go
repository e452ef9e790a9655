package gormstorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vaultcoh/vault/internal/database"
	"github.com/vaultcoh/vault/internal/model"
	"github.com/vaultcoh/vault/pkg/core"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func testReplay() *core.Replay {
	bg := uint32(196934)
	return &core.Replay{
		Version:        10612,
		Timestamp:      "18/10/2026 20:15",
		MatchHistoryID: 4242,
		OpponentType:   core.OpponentHuman,
		Map:            core.Map{Filename: "data:scenarios/mp/desert_village_2p"},
		Options:        []core.Option{{Name: "Resources", Value: 1}},
		Messages:       []core.Message{{Tick: 3, Sender: "madhax", Text: "gl hf"}},
		Length:         16,
		Players: []core.Player{
			{
				ID: 0, Name: "madhax", Human: true, Faction: core.FactionAmericans, Battlegroup: &bg,
				Commands: []core.Command{
					core.BuildSquad{At: core.At{Tick: 4}, PGBID: 2001, SourceIdentifier: 7},
					core.SelectBattlegroup{At: core.At{Tick: 2}, PGBID: 196934},
				},
			},
			{
				ID: 1, Name: "Quixalotl", Faction: core.FactionWehrmacht, Team: core.TeamSecond,
				Commands: []core.Command{core.CancelConstruction{At: core.At{Tick: 9}, SourceIdentifier: 3}},
			},
		},
	}
}

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(Dependencies{DB: setupTestDB(t)})
	require.NoError(t, b.Init())
	return b
}

func TestInit_NoDB(t *testing.T) {
	assert.Error(t, New(Dependencies{}).Init())
}

func TestStoreReplay(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	require.NoError(t, b.StoreReplay(ctx, "abc", "match.rec", testReplay()))

	row, err := b.ReplayByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "match.rec", row.Filename)
	assert.Equal(t, uint64(4242), row.MatchHistoryID)
	assert.Equal(t, "Human", row.OpponentType)
	assert.Equal(t, uint32(16), row.LengthTicks)
	assert.JSONEq(t, `[{"Name":"Resources","Value":1}]`, string(row.Options))
	require.Len(t, row.Players, 2)
	require.Len(t, row.Messages, 1)
	assert.Equal(t, "gl hf", row.Messages[0].Text)

	commands, err := b.CommandsByReplay(ctx, row.ID)
	require.NoError(t, err)
	require.Len(t, commands, 3)
	assert.Equal(t, "SelectBattlegroup", commands[0].Kind)
	assert.Equal(t, uint32(2), commands[0].Tick)
	assert.Equal(t, "BuildSquad", commands[1].Kind)
	assert.Equal(t, int64(2001), commands[1].PGBID.Int64)
	assert.Equal(t, "CancelConstruction", commands[2].Kind)
	assert.Equal(t, uint32(1), commands[2].PlayerID)
	assert.False(t, commands[2].PGBID.Valid)
}

func TestStoreReplay_Idempotent(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	require.NoError(t, b.StoreReplay(ctx, "abc", "match.rec", testReplay()))
	require.NoError(t, b.StoreReplay(ctx, "abc", "copy.rec", testReplay()))

	var replays, commands int64
	require.NoError(t, b.DB().Model(&model.Replay{}).Count(&replays).Error)
	require.NoError(t, b.DB().Model(&model.Command{}).Count(&commands).Error)
	assert.Equal(t, int64(1), replays)
	assert.Equal(t, int64(3), commands)
}

func TestStoreReplay_NoCommands(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	require.NoError(t, b.StoreReplay(ctx, "empty", "empty.rec", &core.Replay{}))
	row, err := b.ReplayByHash(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, row.Players)
}

func TestReplayByHash_NotFound(t *testing.T) {
	b := newBackend(t)
	_, err := b.ReplayByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
