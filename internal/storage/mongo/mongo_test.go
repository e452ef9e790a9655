package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/pkg/core"
)

func testReplay() *core.Replay {
	return &core.Replay{
		Version:        10612,
		MatchHistoryID: 4242,
		OpponentType:   core.OpponentAI,
		Options:        []core.Option{{Name: "Resources", Value: 1}, {Name: "VictoryPoints", Value: 500}},
		Messages:       []core.Message{{Tick: 3, Sender: "madhax", Text: "gg"}},
		Length:         24,
		Players: []core.Player{{
			ID: 0, Name: "madhax", Human: true, Faction: core.FactionBritish, ProfileID: 1 << 40,
			Commands: []core.Command{core.CancelProduction{At: core.At{Tick: 7}, SourceIdentifier: 2, QueueIndex: 1}},
		}},
	}
}

func TestNewReplayDocument(t *testing.T) {
	doc := NewReplayDocument("abc", "match.rec", testReplay())

	assert.Equal(t, "abc", doc.Hash)
	assert.Equal(t, int64(4242), doc.MatchHistoryID)
	assert.Equal(t, "AI", doc.OpponentType)
	assert.Equal(t, 3.0, doc.DurationSeconds)
	assert.Equal(t, bson.M{"Resources": int64(1), "VictoryPoints": int64(500)}, doc.Options)
	require.Len(t, doc.Players, 1)
	assert.Equal(t, "First", doc.Players[0].Team)
	assert.Equal(t, int64(1<<40), doc.Players[0].ProfileID)
	require.Len(t, doc.Players[0].Commands, 1)
	assert.Equal(t, core.KindCancelProduction, doc.Players[0].Commands[0].Kind)
	assert.False(t, doc.StoredAt.IsZero())
}

func TestReplayDocument_MarshalsToBSON(t *testing.T) {
	data, err := bson.Marshal(NewReplayDocument("abc", "match.rec", testReplay()))
	require.NoError(t, err)

	var got bson.M
	require.NoError(t, bson.Unmarshal(data, &got))
	assert.Equal(t, "abc", got["_id"])
	assert.Equal(t, "match.rec", got["filename"])

	players, ok := got["players"].(bson.A)
	require.True(t, ok)
	require.Len(t, players, 1)
	player := players[0].(bson.M)
	assert.Equal(t, "madhax", player["name"])
	_, hasBattlegroup := player["battlegroup"]
	assert.False(t, hasBattlegroup, "nil battlegroup is omitted")

	cmd := player["commands"].(bson.A)[0].(bson.M)
	assert.Equal(t, "CancelProduction", cmd["kind"])
	_, hasPGBID := cmd["pgbid"]
	assert.False(t, hasPGBID)
}

func TestInit_NoURI(t *testing.T) {
	assert.Error(t, New(config.MongoConfig{}, nil).Init())
}

func TestStoreReplay_NotInitialized(t *testing.T) {
	b := New(config.MongoConfig{URI: "mongodb://localhost:27017", Database: "vault"}, nil)
	assert.Error(t, b.StoreReplay(context.Background(), "abc", "a.rec", testReplay()))
	assert.NoError(t, b.Close())
}
