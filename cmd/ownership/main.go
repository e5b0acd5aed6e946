package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/ownership/host"
	"github.com/wippyai/ownership/ptr"
	"github.com/wippyai/ownership/resource"
)

func main() {
	var (
		name        = flag.String("scenario", "all", "Scenario to run ("+strings.Join(scenarioNames(), "|")+"|all)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	if err := run(*name, *interactive, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(name string, interactive, verbose bool) error {
	ctx := context.Background()

	list, err := selectScenarios(name)
	if err != nil {
		return err
	}

	log, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if interactive && term.IsTerminal(int(os.Stdout.Fd())) {
		return runInteractive(ctx, list, log)
	}
	if interactive {
		log.Warn("stdout is not a terminal, falling back to plain output")
	}
	return runPlain(ctx, os.Stdout, list, log)
}

// newLogger returns a no-op logger unless verbose is set, in which case the
// library packages log through it too.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	ptr.SetLogger(log.Named("ptr"))
	resource.SetLogger(log.Named("resource"))
	host.SetLogger(log.Named("host"))
	return log, nil
}
