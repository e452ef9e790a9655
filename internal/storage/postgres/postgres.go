// Package postgres stores replays in PostgreSQL. StoreReplay only queues the
// replay; a background writer drains the queue into the database.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/database"
	"github.com/vaultcoh/vault/internal/queue"
	gormstorage "github.com/vaultcoh/vault/internal/storage/gorm"
	"github.com/vaultcoh/vault/pkg/core"
)

const (
	defaultFlushInterval = 2 * time.Second
	batchSize            = 32
	maxAttempts          = 3
)

// Dependencies holds the backend's collaborators. A nil DB makes Init
// connect with the configured postgres settings.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

type job struct {
	hash     string
	filename string
	replay   *core.Replay
	attempts int
}

// Backend queues replays and writes them in the background.
type Backend struct {
	cfg   config.PostgresConfig
	deps  Dependencies
	log   *slog.Logger
	store *gormstorage.Backend
	jobs  *queue.Queue[job]

	flushMu  sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	ownsDB   bool
}

func New(cfg config.PostgresConfig, deps Dependencies) *Backend {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		cfg:      cfg,
		deps:     deps,
		log:      log,
		jobs:     queue.New[job](),
		stopChan: make(chan struct{}),
	}
}

// Init connects if needed, migrates the schema and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.OpenPostgres(b.cfg)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		b.deps.DB = db
		b.ownsDB = true
	}
	b.store = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, Logger: b.log})
	if err := b.store.Init(); err != nil {
		return fmt.Errorf("setting up postgres schema: %w", err)
	}
	b.log.Info("postgres storage ready", "flushInterval", b.deps.FlushInterval)

	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// StoreReplay queues r for the background writer.
func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.jobs.Push(job{hash: hash, filename: filename, replay: r})
	return nil
}

// Pending reports how many replays wait for the writer.
func (b *Backend) Pending() int {
	return b.jobs.Len()
}

// Flush writes every queued replay now. Replays that fail are requeued until
// they have failed maxAttempts times, then dropped.
func (b *Backend) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	var failed []job
	var lastErr error
	for {
		batch := b.jobs.Drain(batchSize)
		if len(batch) == 0 {
			break
		}
		for _, j := range batch {
			if err := b.store.StoreReplay(ctx, j.hash, j.filename, j.replay); err != nil {
				lastErr = err
				j.attempts++
				if j.attempts >= maxAttempts {
					b.log.Error("dropping replay after repeated failures", "hash", j.hash, "attempts", j.attempts, "error", err)
					continue
				}
				b.log.Warn("replay write failed, will retry", "hash", j.hash, "attempts", j.attempts, "error", err)
				failed = append(failed, j)
			}
		}
	}
	b.jobs.Requeue(failed...)
	return lastErr
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush(context.Background())
		}
	}
}

// Close stops the writer, flushes what is left and closes the connection
// if Init opened it.
func (b *Backend) Close() error {
	var err error
	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.wg.Wait()
		if b.store != nil {
			err = b.Flush(context.Background())
		}
		if b.ownsDB {
			if cerr := database.Close(b.deps.DB); err == nil {
				err = cerr
			}
		}
	})
	return err
}
