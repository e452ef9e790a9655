// Package binding exposes the decoder to a host runtime through a string
// call surface. Every call answers with a JSON array: ["ok"], ["ok", result]
// or ["error", message].
package binding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/vaultcoh/vault/internal/cache"
	"github.com/vaultcoh/vault/internal/dispatcher"
	"github.com/vaultcoh/vault/internal/storage"
	"github.com/vaultcoh/vault/pkg/core"
	"github.com/vaultcoh/vault/pkg/streaming"
)

// Call names.
const (
	CallDecode   = "decode"
	CallPlayers  = "players"
	CallCommands = "commands"
	CallMap      = "map"
	CallRelease  = "release"
	CallVersion  = "version"
	CallStore    = "store"
)

var (
	ErrBadArgs       = errors.New("bad arguments")
	ErrUnknownHandle = errors.New("unknown handle")
	ErrUnknownPlayer = errors.New("unknown player")
)

// Options configures a Binding.
type Options struct {
	Version string
	// Decode is required.
	Decode cache.DecodeFunc
	// CacheSize bounds the decoded replay cache. Zero means 16.
	CacheSize int
	// Backend enables the store call.
	Backend storage.Backend
	Logger  *slog.Logger
}

// Binding routes host calls to handlers over a dispatcher.
type Binding struct {
	opts     Options
	log      *slog.Logger
	d        *dispatcher.Dispatcher
	registry *Registry
	cache    *cache.ReplayCache

	mu sync.Mutex
	// hash and filename of each handle, for store
	origins map[Handle]origin
}

type origin struct {
	hash     string
	filename string
}

func New(opts Options) (*Binding, error) {
	if opts.Decode == nil {
		return nil, errors.New("binding: decode function required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 16
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	d, err := dispatcher.New(log)
	if err != nil {
		return nil, err
	}
	c, err := cache.NewReplayCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	b := &Binding{
		opts:     opts,
		log:      log,
		d:        d,
		registry: NewRegistry(),
		cache:    c,
		origins:  make(map[Handle]origin),
	}

	d.Register(CallVersion, b.handleVersion)
	d.Register(CallDecode, b.handleDecode, dispatcher.Logged())
	d.Register(CallPlayers, b.handlePlayers)
	d.Register(CallCommands, b.handleCommands)
	d.Register(CallMap, b.handleMap)
	d.Register(CallRelease, b.handleRelease, dispatcher.Logged())
	if opts.Backend != nil {
		d.Register(CallStore, b.handleStore, dispatcher.Buffered(64), dispatcher.Logged())
	}
	return b, nil
}

// Registry exposes the live handles.
func (b *Binding) Registry() *Registry {
	return b.registry
}

// Call runs one host call and formats its response. A panic inside a
// handler becomes an error response.
func (b *Binding) Call(command string, args ...string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("binding call panicked", "command", command, "panic", r)
			response = formatResponse(nil, fmt.Errorf("panic: %v", r))
		}
	}()
	result, err := b.d.Dispatch(dispatcher.Event{Command: command, Args: args})
	return formatResponse(result, err)
}

// Close drains queued store calls.
func (b *Binding) Close() {
	b.d.Close()
}

// formatResponse renders a handler outcome as a JSON array.
func formatResponse(result any, err error) string {
	if err != nil {
		msg, _ := json.Marshal(err.Error())
		return `["error", ` + string(msg) + `]`
	}
	if result == nil {
		return `["ok"]`
	}
	data, mErr := json.Marshal(result)
	if mErr != nil {
		return formatResponse(nil, fmt.Errorf("encoding result: %w", mErr))
	}
	return `["ok", ` + string(data) + `]`
}

func argCount(e dispatcher.Event, n int) error {
	if len(e.Args) != n {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrBadArgs, e.Command, n, len(e.Args))
	}
	return nil
}

func (b *Binding) replayArg(e dispatcher.Event) (Handle, *core.Replay, error) {
	n, err := strconv.ParseUint(e.Args[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: handle %q", ErrBadArgs, e.Args[0])
	}
	h := Handle(n)
	r, ok := b.registry.Get(h)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return h, r, nil
}

func (b *Binding) handleVersion(dispatcher.Event) (any, error) {
	return b.opts.Version, nil
}

type decodeView struct {
	Handle Handle `json:"handle"`
	Hash   string `json:"hash"`
}

func (b *Binding) handleDecode(e dispatcher.Event) (any, error) {
	if err := argCount(e, 1); err != nil {
		return nil, err
	}
	path := e.Args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	r, hash, err := b.cache.GetOrDecode(data, b.opts.Decode)
	if err != nil {
		return nil, err
	}
	h := b.registry.Put(r)

	b.mu.Lock()
	b.origins[h] = origin{hash: hash, filename: filepath.Base(path)}
	b.mu.Unlock()
	return decodeView{Handle: h, Hash: hash}, nil
}

type playerView struct {
	streaming.PlayerPayload
	Commands int `json:"commands"`
}

func (b *Binding) handlePlayers(e dispatcher.Event) (any, error) {
	if err := argCount(e, 1); err != nil {
		return nil, err
	}
	_, r, err := b.replayArg(e)
	if err != nil {
		return nil, err
	}
	out := make([]playerView, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, playerView{PlayerPayload: streaming.NewPlayer(p), Commands: len(p.Commands)})
	}
	return out, nil
}

// handleCommands takes a handle and a player id.
func (b *Binding) handleCommands(e dispatcher.Event) (any, error) {
	if err := argCount(e, 2); err != nil {
		return nil, err
	}
	_, r, err := b.replayArg(e)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(e.Args[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: player id %q", ErrBadArgs, e.Args[1])
	}
	p, ok := r.Player(uint32(id))
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	out := make([]commandView, 0, len(p.Commands))
	for _, c := range WrapCommands(p.Commands) {
		out = append(out, c.view())
	}
	return out, nil
}

func (b *Binding) handleMap(e dispatcher.Event) (any, error) {
	if err := argCount(e, 1); err != nil {
		return nil, err
	}
	_, r, err := b.replayArg(e)
	if err != nil {
		return nil, err
	}
	return streaming.MapPayload{
		Filename:      r.Map.Filename,
		NameID:        r.Map.LocalizedNameID,
		DescriptionID: r.Map.LocalizedDescriptionID,
	}, nil
}

func (b *Binding) handleRelease(e dispatcher.Event) (any, error) {
	if err := argCount(e, 1); err != nil {
		return nil, err
	}
	h, _, err := b.replayArg(e)
	if err != nil {
		return nil, err
	}
	b.registry.Release(h)
	b.mu.Lock()
	delete(b.origins, h)
	b.mu.Unlock()
	return nil, nil
}

// handleStore runs on the buffered queue. The handle is resolved when the
// call is dequeued, so releasing it first makes the store fail.
func (b *Binding) handleStore(e dispatcher.Event) (any, error) {
	if err := argCount(e, 1); err != nil {
		return nil, err
	}
	h, r, err := b.replayArg(e)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	o := b.origins[h]
	b.mu.Unlock()
	if err := b.opts.Backend.StoreReplay(context.Background(), o.hash, o.filename, r); err != nil {
		return nil, fmt.Errorf("storing handle %d: %w", h, err)
	}
	return nil, nil
}
