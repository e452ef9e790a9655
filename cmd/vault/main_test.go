package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/internal/replaytest"
)

// syncBuffer is a bytes.Buffer safe to share with a running command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runCLI runs the command line with an empty config directory.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var out, errOut syncBuffer
	full := append([]string{"--config", t.TempDir()}, args...)
	code = run(context.Background(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeSample(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, replaytest.Sample().Bytes(), 0644))
	return path
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "vault "+Version+" (built "+BuildDate+")\n", out)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"unknown global flag", []string{"--nope", "inspect"}},
		{"inspect without files", []string{"inspect"}},
		{"commands with two files", []string{"commands", "a.rec", "b.rec"}},
		{"unknown command flag", []string{"inspect", "--nope", "a.rec"}},
		{"watch without dir", []string{"watch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestInspect(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")

	code, out, errOut := runCLI(t, "inspect", path)
	require.Equal(t, exitOK, code, errOut)

	assert.Contains(t, out, path)
	assert.Contains(t, out, "10612")
	assert.Contains(t, out, "twin_beaches_2p")
	assert.Contains(t, out, "VictoryPoints=500")
	assert.Contains(t, out, "madhax")
	assert.Contains(t, out, "Quixalotl")
	assert.Contains(t, out, "Deutsches Afrikakorps")
}

func TestInspect_JSON(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")

	code, out, errOut := runCLI(t, "inspect", "--json", path)
	require.Equal(t, exitOK, code, errOut)

	var got inspectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, path, got.Path)
	assert.Equal(t, "sample.rec", got.Replay.Filename)
	assert.Equal(t, uint16(10612), got.Replay.Version)
	require.Len(t, got.Players, 2)
	assert.Equal(t, "madhax", got.Players[0].Name)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "gl hf", got.Messages[0].Text)
}

func TestInspect_Directory(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "b.rec")
	writeSample(t, dir, "a.rec")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	code, out, errOut := runCLI(t, "inspect", dir)
	require.Equal(t, exitOK, code, errOut)
	a := strings.Index(out, filepath.Join(dir, "a.rec"))
	b := strings.Index(out, filepath.Join(dir, "b.rec"))
	require.True(t, a >= 0 && b >= 0)
	assert.Less(t, a, b)
	assert.NotContains(t, out, "notes.txt")
}

func TestInspect_BadFile(t *testing.T) {
	dir := t.TempDir()
	good := writeSample(t, dir, "good.rec")
	bad := filepath.Join(dir, "bad.rec")
	require.NoError(t, os.WriteFile(bad, []byte("not a replay"), 0644))

	code, out, errOut := runCLI(t, "inspect", good, bad)
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "good.rec")
	assert.Contains(t, errOut, "some replays failed")
}

func TestInspect_MissingFile(t *testing.T) {
	code, _, errOut := runCLI(t, "inspect", filepath.Join(t.TempDir(), "missing.rec"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "missing.rec")
}

func TestCommands(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")

	t.Run("one player as table", func(t *testing.T) {
		code, out, errOut := runCLI(t, "commands", "--player", "0", path)
		require.Equal(t, exitOK, code, errOut)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "TICK")
		assert.Contains(t, lines[1], "BuildSquad")
		assert.Contains(t, lines[1], "198374")
		assert.Contains(t, lines[2], "198376")
	})

	t.Run("all players as json", func(t *testing.T) {
		code, out, errOut := runCLI(t, "commands", "--json", path)
		require.Equal(t, exitOK, code, errOut)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4)

		var prev uint32
		for _, line := range lines {
			var c playerCommand
			require.NoError(t, json.Unmarshal([]byte(line), &c))
			assert.GreaterOrEqual(t, c.Tick, prev)
			prev = c.Tick
		}
	})

	t.Run("kind filter", func(t *testing.T) {
		code, out, errOut := runCLI(t, "commands", "--json", "--kind", "selectbattlegroup", path)
		require.Equal(t, exitOK, code, errOut)
		var c playerCommand
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &c))
		assert.Equal(t, uint32(1), c.Player)
		require.NotNil(t, c.PGBID)
		assert.Equal(t, uint32(196934), *c.PGBID)
	})

	t.Run("unknown player", func(t *testing.T) {
		code, _, errOut := runCLI(t, "commands", "--player", "7", path)
		assert.Equal(t, exitError, code)
		assert.Contains(t, errOut, "no player with id 7")
	})
}

func TestExport(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")
	out := t.TempDir()

	code, stdout, errOut := runCLI(t, "export", "--out", out, "--compress", "none", path)
	require.Equal(t, exitOK, code, errOut)

	export := filepath.Join(out, "sample.json")
	assert.FileExists(t, export)
	assert.Contains(t, stdout, path+" -> "+export)
	assert.Contains(t, stdout, "stored 1 of 1 replays")
}

func TestExport_BadCompression(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")
	code, _, _ := runCLI(t, "export", "--out", t.TempDir(), "--compress", "lz4", path)
	assert.Equal(t, exitUsage, code)
}

func TestStore_SQLite(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "sample.rec")
	t.Setenv("VAULT_STORAGE_SQLITE_PATH", filepath.Join(dir, "vault.db"))

	code, out, errOut := runCLI(t, "--storage", "sqlite", "store", path)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "stored 1 of 1 replays in sqlite")
	assert.FileExists(t, filepath.Join(dir, "vault.db"))
}

func TestStore_UnknownBackend(t *testing.T) {
	path := writeSample(t, t.TempDir(), "sample.rec")
	code, _, errOut := runCLI(t, "--storage", "carrier-pigeon", "store", path)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "unknown storage type")
}

func TestHTTPToWS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://replays.example.com/", "wss://replays.example.com"},
		{"ws://already", "ws://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in))
	}
}
