// Package gormstorage stores replays in a relational database through GORM.
// The sqlite and postgres backends build on it.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/vaultcoh/vault/internal/database"
	"github.com/vaultcoh/vault/internal/model"
	"github.com/vaultcoh/vault/internal/model/convert"
	"github.com/vaultcoh/vault/pkg/core"
)

// Dependencies holds everything the backend needs.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend writes each replay with its players, messages and commands in a
// single transaction. Replays are keyed by content hash; storing a hash
// that already exists is a no-op.
type Backend struct {
	db  *gorm.DB
	log *slog.Logger
}

func New(deps Dependencies) *Backend {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{db: deps.DB, log: log}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	return database.Migrate(b.db)
}

// Close is a no-op; the connection belongs to whoever opened it.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) DB() *gorm.DB {
	return b.db
}

func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	stored, err := b.storeReplay(ctx, hash, filename, r)
	if err != nil {
		return fmt.Errorf("storing replay %s: %w", hash, err)
	}
	if !stored {
		b.log.Debug("replay already stored", "hash", hash, "filename", filename)
	}
	return nil
}

func (b *Backend) storeReplay(ctx context.Context, hash, filename string, r *core.Replay) (bool, error) {
	stored := false
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Replay{}).Where("hash = ?", hash).Count(&count).Error; err != nil {
			return fmt.Errorf("checking existing replay: %w", err)
		}
		if count > 0 {
			return nil
		}

		row := convert.CoreToReplay(*r, hash, filename)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating replay row: %w", err)
		}
		commands := convert.CoreToCommands(row.ID, *r)
		if len(commands) > 0 {
			if err := tx.CreateInBatches(commands, 1000).Error; err != nil {
				return fmt.Errorf("creating command rows: %w", err)
			}
		}
		stored = true
		b.log.Debug("replay stored", "hash", hash, "id", row.ID, "players", len(row.Players), "commands", len(commands))
		return nil
	})
	return stored, err
}

// ReplayByHash loads a stored replay row with its players and messages.
func (b *Backend) ReplayByHash(ctx context.Context, hash string) (*model.Replay, error) {
	var row model.Replay
	err := b.db.WithContext(ctx).
		Preload("Players").
		Preload("Messages").
		Where("hash = ?", hash).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CommandsByReplay loads the command rows of a replay ordered by tick.
func (b *Backend) CommandsByReplay(ctx context.Context, replayID uint) ([]model.Command, error) {
	var rows []model.Command
	err := b.db.WithContext(ctx).
		Where("replay_id = ?", replayID).
		Order("tick, id").
		Find(&rows).Error
	return rows, err
}
