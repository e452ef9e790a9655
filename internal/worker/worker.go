// Package worker decodes replay files concurrently and hands them to a
// storage backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/vaultcoh/vault/internal/cache"
	"github.com/vaultcoh/vault/internal/storage"
	"github.com/vaultcoh/vault/pkg/core"
)

// DefaultWorkers is used when Dependencies.Workers is not positive.
const DefaultWorkers = 4

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	// Decode is required.
	Decode cache.DecodeFunc
	// Cache, when set, short-circuits files already decoded.
	Cache *cache.ReplayCache
	// Backend, when set, receives every decoded replay.
	Backend storage.Backend
	Logger  *slog.Logger
	Workers int
	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Result is the outcome for one file.
type Result struct {
	Path   string
	Hash   string
	Replay *core.Replay
	Stored bool
	Err    error
}

// Manager runs decode jobs.
type Manager struct {
	deps Dependencies
	log  *slog.Logger
	in   *instruments
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Decode == nil {
		return nil, errors.New("worker: decode function required")
	}
	if deps.Workers <= 0 {
		deps.Workers = DefaultWorkers
	}
	if deps.ReadFile == nil {
		deps.ReadFile = os.ReadFile
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	in, err := newInstruments()
	if err != nil {
		return nil, err
	}
	return &Manager{deps: deps, log: log, in: in}, nil
}

// Run processes paths with at most Workers files in flight and returns one
// result per path, in input order. A file that fails does not stop the
// others; its error is in its Result. Run itself only fails when ctx is
// done before every file was started.
func (m *Manager) Run(ctx context.Context, paths []string) ([]Result, error) {
	runID := uuid.NewString()
	log := m.log.With("run", runID)
	log.Info("decode run started", "files", len(paths), "workers", m.deps.Workers)
	start := time.Now()

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.deps.Workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = m.process(gctx, log, path, m.deps.ReadFile)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for i := range results {
		if results[i].Path == "" {
			results[i] = Result{Path: paths[i], Err: ctx.Err()}
		}
		if results[i].Err != nil {
			failed++
		}
	}
	log.Info("decode run finished", "files", len(paths), "failed", failed, "duration", time.Since(start))
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return results, nil
}

// Process handles a single file.
func (m *Manager) Process(ctx context.Context, path string) Result {
	return m.process(ctx, m.log, path, m.deps.ReadFile)
}

// ProcessBytes handles a file the caller has already read.
func (m *Manager) ProcessBytes(ctx context.Context, path string, b []byte) Result {
	return m.process(ctx, m.log, path, func(string) ([]byte, error) { return b, nil })
}

func (m *Manager) process(ctx context.Context, log *slog.Logger, path string, read func(string) ([]byte, error)) Result {
	res := Result{Path: path}
	attrs := metric.WithAttributes(attribute.String("file.ext", filepath.Ext(path)))

	fail := func(err error) Result {
		res.Err = err
		m.in.failed.Add(ctx, 1, attrs)
		log.Error("replay failed", "path", path, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	start := time.Now()
	b, err := read(path)
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", path, err))
	}

	var r *core.Replay
	if m.deps.Cache != nil {
		r, res.Hash, err = m.deps.Cache.GetOrDecode(b, m.deps.Decode)
	} else {
		res.Hash = cache.Hash(b)
		r, err = m.deps.Decode(b)
	}
	m.in.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		return fail(fmt.Errorf("decoding %s: %w", path, err))
	}
	res.Replay = r
	m.in.decoded.Add(ctx, 1, attrs)
	log.Debug("replay decoded", "path", path, "hash", res.Hash, "players", len(r.Players), "ticks", r.Length)

	if m.deps.Backend != nil {
		if err := m.deps.Backend.StoreReplay(ctx, res.Hash, filepath.Base(path), r); err != nil {
			return fail(fmt.Errorf("storing %s: %w", path, err))
		}
		res.Stored = true
	}
	return res
}
