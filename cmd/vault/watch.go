package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaultcoh/vault/internal/cache"
	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/monitor"
	"github.com/vaultcoh/vault/internal/worker"
)

const defaultSettle = 500 * time.Millisecond

func watchCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("watch")
	settle := fs.Duration("settle", defaultSettle, "quiet period after the last write before a file is read")
	existing := fs.Bool("existing", true, "store replays already in the directory on start")
	statusPath := fs.String("status", "", "file rewritten with watch progress as JSON")
	statusEvery := fs.Duration("status-interval", 30*time.Second, "how often progress is logged and written")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("watch needs exactly one directory")
	}
	dir := fs.Arg(0)
	if info, err := os.Stat(dir); err != nil {
		return err
	} else if !info.IsDir() {
		return usageError("%s is not a directory", dir)
	}

	cfg := config.GetStorageConfig()
	backend, err := a.openBackend(cfg)
	if err != nil {
		return err
	}
	defer a.closeBackend(backend)

	m, err := a.manager(backend)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &dirWatcher{
		m:      m,
		index:  cache.NewPathIndex(),
		log:    a.log.With("dir", dir),
		settle: *settle,
		read:   os.ReadFile,
		onDone: func(res worker.Result) {
			if res.Err == nil {
				fmt.Fprintf(a.out, "stored %s\n", res.Path)
			}
		},
	}

	mon := monitor.NewService(monitor.Dependencies{
		Logger:     w.log,
		Cache:      a.cache,
		Counters:   w.counters,
		StatusPath: *statusPath,
		Interval:   *statusEvery,
	})
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	if *existing {
		paths, err := expandPaths([]string{dir})
		if err != nil {
			return err
		}
		for _, p := range paths {
			w.handle(ctx, p)
		}
	}

	w.log.Info("watching for replays", "storage", cfg.Type)
	w.loop(ctx, fsw.Events, fsw.Errors)
	w.log.Info("watch stopped")
	return nil
}

// dirWatcher turns filesystem events into store jobs. A file is handled once
// it has been quiet for settle, and only when its content changed since the
// last time it was handled.
type dirWatcher struct {
	m      *worker.Manager
	index  *cache.PathIndex
	log    *slog.Logger
	settle time.Duration
	read   func(string) ([]byte, error)
	onDone func(worker.Result)

	handled cache.SafeCounter
	stored  cache.SafeCounter
	failed  cache.SafeCounter
}

func (w *dirWatcher) counters() monitor.Counters {
	return monitor.Counters{
		Handled: w.handled.Value(),
		Stored:  w.stored.Value(),
		Failed:  w.failed.Value(),
	}
}

func (w *dirWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	d := newDebouncer(w.settle)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !isReplayFile(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				d.forget(ev.Name)
				w.index.Delete(ev.Name)
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				d.touch(ev.Name)
			}

		case s := <-d.ready:
			if d.accept(s) {
				w.handle(ctx, s.name)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// handle stores path unless its content was already handled.
func (w *dirWatcher) handle(ctx context.Context, path string) {
	b, err := w.read(path)
	if err != nil {
		w.log.Warn("cannot read replay", "path", path, "error", err)
		return
	}
	hash := cache.Hash(b)
	if !w.index.Changed(path, hash) {
		w.log.Debug("replay unchanged, skipping", "path", path, "hash", hash)
		return
	}

	w.handled.Inc()
	res := w.m.ProcessBytes(ctx, path, b)
	if res.Err != nil {
		w.failed.Inc()
		// a later write may complete the file
		w.index.Delete(path)
	} else {
		w.stored.Inc()
	}
	if w.onDone != nil {
		w.onDone(res)
	}
}

// settled names a file whose timer fired. gen tells a stale firing from the
// current one.
type settled struct {
	name string
	gen  uint64
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

// debouncer reports a name on ready once it has seen no touch for settle.
// Only the goroutine that owns it calls its methods; timer callbacks only
// send on ready and give up once stop is called.
type debouncer struct {
	settle time.Duration
	ready  chan settled
	done   chan struct{}
	timers map[string]pending
	seq    uint64
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle: settle,
		ready:  make(chan settled),
		done:   make(chan struct{}),
		timers: make(map[string]pending),
	}
}

// touch restarts the quiet period of name.
func (d *debouncer) touch(name string) {
	// a timer that already fired gets replaced rather than reset, so its
	// callback is never run twice
	if p, ok := d.timers[name]; ok && p.timer.Stop() {
		p.timer.Reset(d.settle)
		return
	}
	d.seq++
	s := settled{name: name, gen: d.seq}
	d.timers[name] = pending{
		gen: s.gen,
		timer: time.AfterFunc(d.settle, func() {
			select {
			case d.ready <- s:
			case <-d.done:
			}
		}),
	}
}

func (d *debouncer) forget(name string) {
	if p, ok := d.timers[name]; ok {
		p.timer.Stop()
		delete(d.timers, name)
	}
}

// accept reports whether s is the current firing for its name and clears it.
func (d *debouncer) accept(s settled) bool {
	p, ok := d.timers[s.name]
	if !ok || p.gen != s.gen {
		return false
	}
	delete(d.timers, s.name)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.timers {
		p.timer.Stop()
	}
	close(d.done)
}
