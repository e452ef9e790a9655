package binding

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaultcoh/vault/pkg/core"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a := &core.Replay{Version: 1}
	b := &core.Replay{Version: 2}

	ha := reg.Put(a)
	hb := reg.Put(b)
	assert.NotZero(t, ha)
	assert.NotEqual(t, ha, hb)
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Get(hb)
	assert.True(t, ok)
	assert.Same(t, b, got)

	assert.True(t, reg.Release(ha))
	assert.False(t, reg.Release(ha))
	_, ok = reg.Get(ha)
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())

	// handles are not reused
	assert.NotEqual(t, ha, reg.Put(a))
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	handles := make(chan Handle, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles <- reg.Put(&core.Replay{})
		}()
	}
	wg.Wait()
	close(handles)

	seen := make(map[Handle]bool)
	for h := range handles {
		assert.False(t, seen[h])
		seen[h] = true
	}
	assert.Equal(t, 100, reg.Len())
}
