package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/vaultcoh/vault/internal/api"
	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/storage"
	"github.com/vaultcoh/vault/internal/storage/memory"
	"github.com/vaultcoh/vault/internal/worker"
	"github.com/vaultcoh/vault/pkg/core"
	"github.com/vaultcoh/vault/pkg/streaming"
)

type commandFunc func(ctx context.Context, a *app, args []string) error

var commands = map[string]commandFunc{
	"inspect":  inspectCommand,
	"commands": commandsCommand,
	"store":    storeCommand,
	"export":   exportCommand,
	"watch":    watchCommand,
	"upload":   uploadCommand,
}

// errFailedFiles is returned when a command finished but some inputs failed.
var errFailedFiles = errors.New("some replays failed")

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}
	return nil
}

// decodeAll decodes paths without storing them and reports failures on the
// logger. Only successful results are returned.
func (a *app) decodeAll(ctx context.Context, paths []string) ([]worker.Result, error) {
	m, err := a.manager(nil)
	if err != nil {
		return nil, err
	}
	results, err := m.Run(ctx, paths)
	if err != nil {
		return nil, err
	}
	ok := make([]worker.Result, 0, len(results))
	for _, res := range results {
		if res.Err == nil {
			ok = append(ok, res)
		}
	}
	if len(ok) != len(results) {
		return ok, fmt.Errorf("%w: %d of %d", errFailedFiles, len(results)-len(ok), len(results))
	}
	return ok, nil
}

// inspectSummary is the --json form of inspect.
type inspectSummary struct {
	Path     string                       `json:"path"`
	Replay   streaming.ReplayStartPayload `json:"replay"`
	Players  []streaming.PlayerPayload    `json:"players"`
	Messages []streaming.MessagePayload   `json:"messages"`
}

func inspectCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("inspect")
	asJSON := fs.Bool("json", false, "print one JSON object per replay")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("inspect needs at least one replay file")
	}
	paths, err := expandPaths(fs.Args())
	if err != nil {
		return err
	}

	results, runErr := a.decodeAll(ctx, paths)
	for _, res := range results {
		if *asJSON {
			if err := writeInspectJSON(a.out, res); err != nil {
				return err
			}
			continue
		}
		if err := writeInspect(a.out, res); err != nil {
			return err
		}
	}
	return runErr
}

func writeInspectJSON(w io.Writer, res worker.Result) error {
	r := res.Replay
	s := inspectSummary{
		Path:     res.Path,
		Replay:   streaming.NewReplayStart(res.Hash, filepath.Base(res.Path), r),
		Players:  make([]streaming.PlayerPayload, 0, len(r.Players)),
		Messages: make([]streaming.MessagePayload, 0, len(r.Messages)),
	}
	for _, p := range r.Players {
		s.Players = append(s.Players, streaming.NewPlayer(p))
	}
	for _, m := range r.Messages {
		s.Messages = append(s.Messages, streaming.MessagePayload{Tick: m.Tick, Sender: m.Sender, Text: m.Text})
	}
	return json.NewEncoder(w).Encode(s)
}

func writeInspect(w io.Writer, res worker.Result) error {
	r := res.Replay
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", res.Path)
	fmt.Fprintf(tw, "  hash\t%s\n", res.Hash)
	fmt.Fprintf(tw, "  version\t%d\n", r.Version)
	fmt.Fprintf(tw, "  recorded\t%s\n", r.Timestamp)
	fmt.Fprintf(tw, "  map\t%s\n", r.Map.Filename)
	if r.Map.LocalizedNameID != "" {
		fmt.Fprintf(tw, "  map name\t%s\n", r.Map.LocalizedNameID)
	}
	fmt.Fprintf(tw, "  duration\t%s (%d ticks)\n", r.Duration(), r.Length)
	fmt.Fprintf(tw, "  opponents\t%s\n", r.OpponentType)
	if r.MatchHistoryID != 0 {
		fmt.Fprintf(tw, "  match id\t%d\n", r.MatchHistoryID)
	}
	if len(r.Options) > 0 {
		opts := make([]string, 0, len(r.Options))
		for _, o := range r.Options {
			opts = append(opts, fmt.Sprintf("%s=%d", o.Name, o.Value))
		}
		fmt.Fprintf(tw, "  options\t%s\n", strings.Join(opts, " "))
	}
	fmt.Fprintf(tw, "  messages\t%d\n", len(r.Messages))
	if err := tw.Flush(); err != nil {
		return err
	}

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tTEAM\tFACTION\tHUMAN\tBATTLEGROUP\tCOMMANDS")
	for _, p := range r.Players {
		bg := "-"
		if p.Battlegroup != nil {
			bg = fmt.Sprint(*p.Battlegroup)
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%t\t%s\t%d\n",
			p.ID, p.Name, p.Team, p.Faction.DisplayName(), p.Human, bg, len(p.Commands))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// playerCommand is one line of the commands output.
type playerCommand struct {
	Player uint32 `json:"player"`
	core.CommandFields
}

func commandsCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("commands")
	player := fs.Int64P("player", "p", -1, "only list commands of this player id")
	kind := fs.StringP("kind", "k", "", "only list commands of this kind")
	asJSON := fs.Bool("json", false, "print one JSON object per command")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("commands needs exactly one replay file")
	}

	results, err := a.decodeAll(ctx, fs.Args())
	if err != nil {
		return err
	}
	r := results[0].Replay

	var players []core.Player
	if *player >= 0 {
		p, ok := r.Player(uint32(*player))
		if !ok {
			return fmt.Errorf("no player with id %d", *player)
		}
		players = []core.Player{*p}
	} else {
		players = r.Players
	}

	var list []playerCommand
	for _, p := range players {
		for _, c := range p.Commands {
			if *kind != "" && !strings.EqualFold(string(c.Kind()), *kind) {
				continue
			}
			list = append(list, playerCommand{Player: p.ID, CommandFields: core.FieldsOf(c)})
		}
	}
	slices.SortStableFunc(list, func(x, y playerCommand) int {
		return int(x.Tick) - int(y.Tick)
	})

	if *asJSON {
		enc := json.NewEncoder(a.out)
		for _, c := range list {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICK\tPLAYER\tKIND\tPGBID\tSOURCE")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", c.Tick, c.Player, c.Kind, optional(c.PGBID), optional(c.SourceIdentifier))
	}
	return tw.Flush()
}

func optional[T uint16 | uint32](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func storeCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("store")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("store needs at least one replay file or directory")
	}
	paths, err := expandPaths(fs.Args())
	if err != nil {
		return err
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
	results, err := m.Run(ctx, paths)
	if err != nil {
		return err
	}
	return a.report(results, cfg.Type)
}

// report prints one line per failed file and a total.
func (a *app) report(results []worker.Result, target string) error {
	var stored int
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.out, "FAILED %s: %v\n", res.Path, res.Err)
			continue
		}
		stored++
	}
	fmt.Fprintf(a.out, "stored %d of %d replays in %s\n", stored, len(results), target)
	if stored != len(results) {
		return fmt.Errorf("%w: %d of %d", errFailedFiles, len(results)-stored, len(results))
	}
	return nil
}

// memoryConfig is the configured memory storage with flag overrides applied.
func memoryConfig(fs *pflag.FlagSet, outDir, compress string) config.StorageConfig {
	cfg := config.GetStorageConfig()
	cfg.Type = "memory"
	if fs.Changed("out") {
		cfg.Memory.OutputDir = outDir
	}
	if fs.Changed("compress") {
		cfg.Memory.Compress = compress
	}
	return cfg
}

func exportCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export")
	outDir := fs.StringP("out", "o", "", "output directory (default storage.memory.outputDir)")
	compress := fs.String("compress", "", "none, gzip or zstd (default storage.memory.compress)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("export needs at least one replay file or directory")
	}
	paths, err := expandPaths(fs.Args())
	if err != nil {
		return err
	}

	cfg := memoryConfig(fs, *outDir, *compress)
	backend := memory.New(cfg.Memory)
	if err := backend.Init(); err != nil {
		return usageError("%v", err)
	}
	m, err := a.manager(backend)
	if err != nil {
		return err
	}
	results, err := m.Run(ctx, paths)
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if rec, ok := backend.Get(res.Hash); ok {
			fmt.Fprintf(a.out, "%s -> %s\n", res.Path, rec.ExportPath)
		}
	}
	return a.report(results, cfg.Memory.OutputDir)
}

func uploadCommand(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("upload")
	outDir := fs.StringP("out", "o", "", "directory for the exports that get uploaded")
	compress := fs.String("compress", "", "none, gzip or zstd")
	server := fs.String("server", "", "web service URL (default api.serverUrl)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("upload needs at least one replay file or directory")
	}
	paths, err := expandPaths(fs.Args())
	if err != nil {
		return err
	}

	apiCfg := config.GetAPIConfig()
	if *server != "" {
		apiCfg.ServerURL = *server
	}
	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		return err
	}

	cfg := memoryConfig(fs, *outDir, *compress)
	backend := memory.New(cfg.Memory)
	if err := backend.Init(); err != nil {
		return usageError("%v", err)
	}
	m, err := a.manager(backend)
	if err != nil {
		return err
	}

	// one file at a time so the backend's last export is the one to send
	var up storage.Uploadable = backend
	var failed int
	for _, path := range paths {
		res := m.Process(ctx, path)
		if res.Err == nil {
			res.Err = client.Upload(ctx, up.GetExportedFilePath(), up.GetExportMetadata())
		}
		if res.Err != nil {
			failed++
			a.log.Error("upload failed", "path", path, "error", res.Err)
			fmt.Fprintf(a.out, "FAILED %s: %v\n", path, res.Err)
			continue
		}
		a.log.Info("replay uploaded", "path", path, "hash", res.Hash, "export", up.GetExportedFilePath())
		fmt.Fprintf(a.out, "uploaded %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedFiles, failed, len(paths))
	}
	return nil
}
