package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vaultcoh/vault/internal/config"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"

	AppName string = "vault"
)

// exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks errors caused by bad arguments rather than bad input.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

const usageText = `Usage: vault [global flags] <command> [flags] [args]

Commands:
  inspect <file>...           print a summary of each replay
  commands <file>             list the commands of a replay
  store <file|dir>...         decode replays into the configured storage backend
  export <file|dir>...        write JSON exports of replays
  watch <dir>                 store replays as they appear in a directory
  upload <file|dir>...        export replays and upload them to the web service
  version                     print the version

Global flags:
`

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configDir string
	logToFile bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	var opts globalOptions
	fs.StringVarP(&opts.configDir, "config", "c", ".", "directory holding "+config.FileName)
	fs.BoolVar(&opts.logToFile, "log-to-file", false, "write logs to logsDir instead of stderr")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("storage", "memory", "storage backend type")
	fs.Int("workers", 4, "files decoded in parallel")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	// flags take precedence over the config file and environment
	for key, flag := range map[string]string{
		"logLevel":     "log-level",
		"storage.type": "storage",
		"workers":      "workers",
	} {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
			return exitError
		}
	}

	command := strings.ToLower(fs.Arg(0))
	cmdArgs := fs.Args()[1:]

	if command == "version" {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, Version, BuildDate)
		return exitOK
	}

	handler, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "%s: unknown command %q\n", AppName, fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(opts, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return exitError
	}
	defer a.close()

	if err := handler(ctx, a, cmdArgs); err != nil {
		fmt.Fprintf(stderr, "%s %s: %v\n", AppName, command, err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}
