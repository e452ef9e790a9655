// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sync"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/pkg/core"
)

// Record is a stored replay.
type Record struct {
	Hash       string
	Filename   string
	Replay     *core.Replay
	ExportPath string
}

// Backend keeps replays in memory and writes each one as a JSON export.
type Backend struct {
	cfg config.MemoryConfig

	mu       sync.RWMutex
	records  map[string]*Record
	order    []string
	lastPath string
	lastMeta core.UploadMetadata
}

func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		records: make(map[string]*Record),
	}
}

func (b *Backend) Init() error {
	_, err := compressionFor(b.cfg.Compress)
	return err
}

func (b *Backend) Close() error {
	return nil
}

// StoreReplay exports the replay and keeps it. Storing the same hash again
// rewrites the export.
func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path, err := b.exportJSON(hash, filename, r)
	if err != nil {
		return err
	}
	if _, ok := b.records[hash]; !ok {
		b.order = append(b.order, hash)
	}
	b.records[hash] = &Record{Hash: hash, Filename: filename, Replay: r, ExportPath: path}
	b.lastPath = path
	b.lastMeta = core.NewUploadMetadata(hash, r)
	return nil
}

// Get returns the record stored under hash.
func (b *Backend) Get(hash string) (*Record, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[hash]
	return rec, ok
}

// Records lists stored replays in the order they were first stored.
func (b *Backend) Records() []*Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Record, 0, len(b.order))
	for _, h := range b.order {
		out = append(out, b.records[h])
	}
	return out
}

// GetExportedFilePath is the export written by the last StoreReplay.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastPath
}

// GetExportMetadata describes the export written by the last StoreReplay.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastMeta
}
