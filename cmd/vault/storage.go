package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/storage"
)

// replayExt is the extension of replay files picked up from directories.
const replayExt = ".rec"

// streamPath is appended to api.serverUrl when no websocket.url is set.
const streamPath = "/api/v1/stream"

// openBackend creates and initializes the backend described by cfg.
func (a *app) openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	if cfg.Type == "websocket" && cfg.WebSocket.URL == "" {
		cfg.WebSocket.URL = httpToWS(config.GetAPIConfig().ServerURL) + streamPath
		if cfg.WebSocket.Secret == "" {
			cfg.WebSocket.Secret = config.GetAPIConfig().APIKey
		}
	}

	backend, err := storage.NewBackend(cfg, a.log)
	if err != nil {
		a.log.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		a.log.Error("Failed to initialize storage backend", "type", cfg.Type, "error", err)
		return nil, fmt.Errorf("initializing %s storage: %w", cfg.Type, err)
	}
	a.log.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

func (a *app) closeBackend(backend storage.Backend) {
	if err := backend.Close(); err != nil {
		a.log.Warn("Failed to close storage backend", "error", err)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}

// expandPaths replaces each directory argument with the replay files it
// directly contains, sorted by name. Files are passed through as given.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && isReplayFile(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func isReplayFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), replayExt)
}
