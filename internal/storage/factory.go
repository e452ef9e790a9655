package storage

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/storage/influx"
	"github.com/vaultcoh/vault/internal/storage/memory"
	"github.com/vaultcoh/vault/internal/storage/mongo"
	"github.com/vaultcoh/vault/internal/storage/postgres"
	sqlitestorage "github.com/vaultcoh/vault/internal/storage/sqlite"
	"github.com/vaultcoh/vault/internal/storage/websocket"
)

// Types lists the accepted values of storage.type.
var Types = []string{"memory", "sqlite", "postgres", "mongo", "influx", "websocket"}

// NewBackend creates a storage backend based on configuration. The backend
// is not initialized.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		b, err := sqlitestorage.New(cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres":
		return postgres.New(cfg.Postgres, postgres.Dependencies{Logger: logger}), nil
	case "mongo":
		return mongo.New(cfg.Mongo, logger), nil
	case "influx":
		zl := zerolog.New(os.Stderr).With().Timestamp().Str("backend", "influx").Logger()
		return influx.New(cfg.Influx, zl), nil
	case "websocket":
		return websocket.New(cfg.WebSocket, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
