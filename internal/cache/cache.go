package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vaultcoh/vault/pkg/core"
)

// DecodeFunc turns replay bytes into a replay.
type DecodeFunc func([]byte) (*core.Replay, error)

// Hash is the content key of a replay file: hex sha256 of its bytes.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ReplayCache keeps recently decoded replays keyed by content hash so the
// same file is not decoded twice. Cached replays are shared; callers must
// not modify them.
type ReplayCache struct {
	lru    *lru.Cache[string, *core.Replay]
	hits   SafeCounter
	misses SafeCounter
}

func NewReplayCache(size int) (*ReplayCache, error) {
	l, err := lru.New[string, *core.Replay](size)
	if err != nil {
		return nil, fmt.Errorf("creating replay cache: %w", err)
	}
	return &ReplayCache{lru: l}, nil
}

func (c *ReplayCache) Get(hash string) (*core.Replay, bool) {
	r, ok := c.lru.Get(hash)
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return r, ok
}

func (c *ReplayCache) Add(hash string, r *core.Replay) {
	c.lru.Add(hash, r)
}

// GetOrDecode returns the cached replay for b, decoding and caching it on a
// miss. Failed decodes are not cached.
func (c *ReplayCache) GetOrDecode(b []byte, decode DecodeFunc) (*core.Replay, string, error) {
	hash := Hash(b)
	if r, ok := c.Get(hash); ok {
		return r, hash, nil
	}
	r, err := decode(b)
	if err != nil {
		return nil, hash, err
	}
	c.Add(hash, r)
	return r, hash, nil
}

func (c *ReplayCache) Len() int {
	return c.lru.Len()
}

// Stats reports lookups that hit and missed since creation or the last Purge.
func (c *ReplayCache) Stats() (hits, misses int) {
	return c.hits.Value(), c.misses.Value()
}

func (c *ReplayCache) Purge() {
	c.lru.Purge()
	c.hits.Set(0)
	c.misses.Set(0)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
