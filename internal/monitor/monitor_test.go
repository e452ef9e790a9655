package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/internal/cache"
	"github.com/vaultcoh/vault/pkg/core"
)

func TestGetStatus(t *testing.T) {
	c, err := cache.NewReplayCache(4)
	require.NoError(t, err)
	c.Add("abc", &core.Replay{})
	c.Get("abc")
	c.Get("missing")

	s := NewService(Dependencies{
		Cache:    c,
		Counters: func() Counters { return Counters{Handled: 3, Stored: 2, Failed: 1} },
	})
	st := s.GetStatus()

	assert.Equal(t, Counters{Handled: 3, Stored: 2, Failed: 1}, st.Counters)
	assert.Equal(t, 1, st.CacheSize)
	assert.Equal(t, 1, st.CacheHits)
	assert.Equal(t, 1, st.CacheMisses)
}

func TestGetStatus_NoDependencies(t *testing.T) {
	st := NewService(Dependencies{}).GetStatus()
	assert.Zero(t, st.Counters)
	assert.Zero(t, st.CacheSize)
}

func TestWriteStatus_NoPath(t *testing.T) {
	assert.NoError(t, NewService(Dependencies{}).WriteStatus(Status{}))
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	var handled atomic.Int64
	s := NewService(Dependencies{
		Counters:   func() Counters { return Counters{Handled: int(handled.Load())} },
		StatusPath: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	handled.Store(5)
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var st Status
		return json.Unmarshal(b, &st) == nil && st.Counters.Handled == 5
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
	assert.NoFileExists(t, path+".tmp")
}
