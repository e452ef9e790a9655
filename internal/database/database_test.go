package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Database: "vault"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=vault sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestOpenSQLite_MemoryIsPrivate(t *testing.T) {
	a, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(a) })
	b, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(b) })

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.Replay{Hash: "h1"}).Error)

	assert.True(t, a.Migrator().HasTable(&model.Replay{}))
	assert.False(t, b.Migrator().HasTable(&model.Replay{}), "memory databases are not shared")
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestDumpToDisk(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Replay{Hash: "abc", Filename: "match.rec"}).Error)

	path := filepath.Join(t.TempDir(), "vault.db")
	require.NoError(t, DumpToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpToDisk(db, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	disk, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(disk) })
	var got model.Replay
	require.NoError(t, disk.First(&got, "hash = ?", "abc").Error)
	assert.Equal(t, "match.rec", got.Filename)
}

func TestDumpToDisk_NoPath(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	assert.ErrorIs(t, DumpToDisk(db, ""), ErrNoDumpPath)
}
