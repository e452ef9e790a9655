// Package storage defines where decoded replays go.
package storage

import (
	"context"

	"github.com/vaultcoh/vault/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// StoreReplay persists r under its content hash. Storing the same hash
	// twice must not duplicate it.
	StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the replay server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
