package binding

import (
	"sync"

	"github.com/vaultcoh/vault/pkg/core"
)

// Handle is an opaque reference to a replay held by a Registry. Zero is
// never issued.
type Handle uint64

// Registry keeps decoded replays alive between host calls.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	replays map[Handle]*core.Replay
}

func NewRegistry() *Registry {
	return &Registry{replays: make(map[Handle]*core.Replay)}
}

func (r *Registry) Put(replay *core.Replay) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.replays[r.next] = replay
	return r.next
}

func (r *Registry) Get(h Handle) (*core.Replay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replay, ok := r.replays[h]
	return replay, ok
}

// Release drops the replay behind h. It reports whether h was live.
func (r *Registry) Release(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.replays[h]
	delete(r.replays, h)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.replays)
}
