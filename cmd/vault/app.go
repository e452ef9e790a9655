package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/vaultcoh/vault/internal/cache"
	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/logging"
	intOtel "github.com/vaultcoh/vault/internal/otel"
	"github.com/vaultcoh/vault/internal/storage"
	"github.com/vaultcoh/vault/internal/worker"
	"github.com/vaultcoh/vault/pkg/vault"
)

const shutdownTimeout = 5 * time.Second

// app carries everything a command needs once configuration is loaded.
type app struct {
	out          io.Writer
	log          *slog.Logger
	logs         *logging.SlogManager
	otelProvider *intOtel.Provider
	logFile      *os.File
	cache        *cache.ReplayCache
	decoder      *vault.Decoder
	sessionStart time.Time
}

func newApp(opts globalOptions, out io.Writer) (*app, error) {
	a := &app{out: out, sessionStart: time.Now()}

	if err := config.Load(opts.configDir); err != nil {
		return nil, err
	}

	if opts.logToFile {
		f, err := logging.OpenLogFile(config.GetString("logsDir"), AppName, a.sessionStart)
		if err != nil {
			return nil, err
		}
		a.logFile = f
	}

	// an untyped nil keeps console logging when no file is open
	var logOut io.Writer
	if a.logFile != nil {
		logOut = a.logFile
	}
	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logOut))
	if err != nil {
		a.closeLogFile()
		return nil, fmt.Errorf("setting up otel: %w", err)
	}
	a.otelProvider = provider

	a.logs = logging.NewSlogManager()
	a.logs.Setup(logOut, config.GetString("logLevel"), provider.LoggerProvider())
	a.log = a.logs.Logger()

	replayCache, err := cache.NewReplayCache(config.GetInt("cache.size"))
	if err != nil {
		a.close()
		return nil, err
	}
	a.cache = replayCache
	a.decoder = vault.NewDecoder(a.log)

	a.log.Debug("vault started", "version", Version, "build", BuildDate, "config", opts.configDir)
	return a, nil
}

// close flushes telemetry and closes the log file.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.logs != nil {
		if err := a.logs.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: flushing logs: %v\n", AppName, err)
		}
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: shutting down otel: %v\n", AppName, err)
		}
	}
	a.closeLogFile()
}

func (a *app) closeLogFile() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// manager builds a worker manager that hands decoded replays to backend,
// which may be nil.
func (a *app) manager(backend storage.Backend) (*worker.Manager, error) {
	return worker.NewManager(worker.Dependencies{
		Decode:  a.decoder.Decode,
		Cache:   a.cache,
		Backend: backend,
		Logger:  a.log,
		Workers: config.GetInt("workers"),
	})
}
