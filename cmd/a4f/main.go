package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quay/zlog"
	"github.com/rs/zerolog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
)

// commonFlags are accepted by every subcommand, per spec.md §6.
type commonFlags struct {
	Session      string
	IgnoreCache  bool
	Verbose      bool
	Quiet        bool
	DryRun       bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Session, "session", "", "session id")
	fs.BoolVar(&c.IgnoreCache, "i", false, "ignore pool cache")
	fs.BoolVar(&c.IgnoreCache, "ignore-cache", false, "ignore pool cache")
	fs.BoolVar(&c.Verbose, "v", false, "verbose logging")
	fs.BoolVar(&c.Quiet, "q", false, "quiet logging")
	fs.BoolVar(&c.DryRun, "dryrun", false, "do not write pool artifacts")
}

type subcmd func(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error

var subcommands = map[string]subcmd{
	"config":     runConfig,
	"session":    runSession,
	"add":        runAdd,
	"match":      runMatch,
	"snapmatch":  runSnapMatch,
	"scan":       runScan,
	"delta":      runDelta,
	"spdxdebian": runSpdxDebian,
	"spdxalien":  runSpdxAlien,
	"upload":     runUpload,
	"fossy":      runFossy,
	"harvest":    runHarvest,
	"cvecheck":   runCveCheck,
	"mirror":     runMirror,
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if len(os.Args) < 2 {
		usage()
		return 2
	}

	name := os.Args[1]
	cmd, ok := subcommands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "a4f: unknown subcommand %q\n\n", name)
		usage()
		return 2
	}

	var common commonFlags

	settings, err := config.FromEnviron()
	if err != nil {
		fmt.Fprintf(os.Stderr, "a4f: %v\n", err)
		return a4ferr.ExitCode(err)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	ctx = zlog.ContextWithValues(ctx, "command", name)

	if err := cmd(ctx, settings, &common, os.Args[2:]); err != nil {
		zlog.Error(ctx).Err(err).Msg("command failed")
		return a4ferr.ExitCode(err)
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: a4f <command> [flags] [args]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, name := range []string{
		"config", "session", "add", "match", "snapmatch", "scan", "delta",
		"spdxdebian", "spdxalien", "upload", "fossy", "harvest", "cvecheck", "mirror",
	} {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}
