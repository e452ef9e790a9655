package vault

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/internal/replaytest"
	"github.com/vaultcoh/vault/pkg/core"
)

func TestDecode(t *testing.T) {
	r, err := Decode(replaytest.Sample().Bytes())
	require.NoError(t, err)

	assert.Equal(t, uint16(10612), r.Version)
	assert.Equal(t, "5/1/2024 6:30 PM", r.Timestamp)
	assert.Equal(t, uint64(4242), r.MatchHistoryID)
	assert.Equal(t, uint32(6), r.Length)
	assert.Equal(t, 750*time.Millisecond, r.Duration())
	assert.Equal(t, "$11233954", r.Map.LocalizedNameID)
	assert.Equal(t, "$11233955", r.Map.LocalizedDescriptionID)
	assert.Equal(t, []core.Message{{Tick: 3, Sender: "madhax", Text: "gl hf"}}, r.Messages)

	names := make([]string, 0, len(r.Players))
	var battlegroups []uint32
	for _, p := range r.Players {
		names = append(names, p.Name)
		require.NotNil(t, p.Battlegroup)
		battlegroups = append(battlegroups, *p.Battlegroup)
	}
	assert.Equal(t, []string{"madhax", "Quixalotl"}, names)
	assert.Equal(t, []uint32{2072430, 196934}, battlegroups)

	assert.Equal(t, []core.Command{
		core.BuildSquad{At: core.At{Tick: 2}, PGBID: 198374, SourceIdentifier: 12},
		core.BuildSquad{At: core.At{Tick: 6}, PGBID: 198376, SourceIdentifier: 12},
	}, r.Players[0].Commands)
	assert.Equal(t, []core.Command{
		core.SelectBattlegroup{At: core.At{Tick: 4}, PGBID: 196934},
		core.BuildSquad{At: core.At{Tick: 4}, PGBID: 198375, SourceIdentifier: 4},
	}, r.Players[1].Commands)
}

func TestDecodeFailures(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBytes)

	b := replaytest.Sample().Bytes()
	b[4] = 'X'
	_, err = Decode(b)
	assert.ErrorIs(t, err, ErrNotReplay)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 4, de.Offset)
}

func TestDecodeAIReplay(t *testing.T) {
	s := replaytest.Sample()
	s.Version = 21283
	s.OpponentType = 2
	s.Players[1] = replaytest.Player{Name: "CPU - Standard", ID: 1, Team: 1, Faction: "germans", Battlegroup: replaytest.NoBattlegroup, AIType: "standard"}

	r, err := NewDecoder(nil).Decode(s.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(21283), r.Version)
	assert.Equal(t, core.OpponentAI, r.OpponentType)
	assert.Equal(t, "CPU - Standard", r.Players[1].Name)
	assert.False(t, r.Players[1].Human)
	assert.Nil(t, r.Players[1].Battlegroup)
	assert.Equal(t, "standard", r.Players[1].AIType)
}

func TestCommandsForPlayerFromRaw(t *testing.T) {
	d := NewDecoder(nil)
	raw, err := d.DecodeRaw(replaytest.Sample().Bytes())
	require.NoError(t, err)

	full, err := d.Decode(replaytest.Sample().Bytes())
	require.NoError(t, err)

	for _, p := range full.Players {
		assert.Equal(t, p.Commands, CommandsForPlayer(raw.Ticks, p.ID))
	}
	assert.Empty(t, CommandsForPlayer(raw.Ticks, 7))
}

func TestDecodeConcurrent(t *testing.T) {
	input := replaytest.Sample().Bytes()
	want, err := Decode(input)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*core.Replay, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Decode(input)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}
