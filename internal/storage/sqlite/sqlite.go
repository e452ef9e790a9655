// Package sqlitestorage stores replays in SQLite. With a dump interval it
// works on an in-memory database and snapshots it to disk with VACUUM INTO;
// without one it writes straight to the database file.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/database"
	gormstorage "github.com/vaultcoh/vault/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *slog.Logger
	inMemory bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg config.SQLiteConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	inMemory := cfg.DumpInterval > 0
	path := cfg.Path
	if inMemory {
		path = ""
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:       db,
		cfg:      cfg,
		log:      logger,
		inMemory: inMemory,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema and starts the dump loop for in-memory mode.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.inMemory && b.cfg.Path != "" {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump loop, writes a final snapshot in in-memory mode and
// closes the database.
func (b *Backend) Close() error {
	var dumpErr error
	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.wg.Wait()
		if b.inMemory && b.cfg.Path != "" {
			dumpErr = b.Dump()
		}
	})
	if err := database.Close(b.db); err != nil {
		return fmt.Errorf("closing sqlite: %w", err)
	}
	return dumpErr
}

// Dump snapshots the database to the configured path.
func (b *Backend) Dump() error {
	start := time.Now()
	if err := database.DumpToDisk(b.db, b.cfg.Path); err != nil {
		b.log.Error("sqlite dump failed", "path", b.cfg.Path, "error", err)
		return err
	}
	b.log.Debug("sqlite dumped to disk", "path", b.cfg.Path, "duration", time.Since(start))
	return nil
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Dump()
		}
	}
}
