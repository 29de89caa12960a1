package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maksimkurb/fw-ipsets/src/internal/commands"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	appCtx := &commands.AppContext{}

	// Define flags
	flag.StringVar(&appCtx.ConfigPath, "config", "/etc/fw-ipsets/fw-ipsets.toml", "Path to configuration file")
	flag.BoolVar(&appCtx.Verbose, "verbose", false, "Enable debug logging")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Kernel ipset/nftables set reconciler\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  apply                   Make kernel sets match their source files\n")
		fmt.Fprintf(os.Stderr, "  diff                    Show what apply would add and remove\n")
		fmt.Fprintf(os.Stderr, "  self-check              Check tools, privileges, tables and sources\n")
		fmt.Fprintf(os.Stderr, "  dump                    Print the effective configuration\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if appCtx.Verbose {
		log.SetVerbose(true)
	}

	// Ensure cfg file exists
	if _, err := os.Stat(appCtx.ConfigPath); errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Configuration file not found: %s", appCtx.ConfigPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx.Ctx = ctx

	cmds := []commands.Runner{
		commands.CreateApplyCommand(),
		commands.CreateDiffCommand(),
		commands.CreateSelfCheckCommand(),
		commands.CreateDumpCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], appCtx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			return
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
