// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/swinglab/internal/config"
	"github.com/ManuGH/swinglab/internal/persistence/sqlite"
)

func runStorageCLI(args []string) int {
	return runStorageCommand(args, os.Stdout, os.Stderr)
}

func runStorageCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStorageUsage(stdout)
		return 0
	}

	switch args[0] {
	case "verify":
		return runStorageVerify(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printStorageUsage(stderr)
		return 2
	}
}

func printStorageUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  swinglab storage verify [--path PATH | --all] [--mode quick|full]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Flags:")
	_, _ = fmt.Fprintln(w, "  --path string  Path to a specific SQLite database file")
	_, _ = fmt.Fprintln(w, "  --all          Verify the catalog and session databases in $SWINGLAB_DATA_DIR")
	_, _ = fmt.Fprintln(w, "  --mode string  Verification mode: quick (default) or full")
}

func runStorageVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swinglab storage verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var path, mode string
	var all bool
	fs.StringVar(&path, "path", "", "Path to the SQLite database file")
	fs.StringVar(&mode, "mode", "quick", "Verification mode: quick or full")
	fs.BoolVar(&all, "all", false, "Verify all known databases in $SWINGLAB_DATA_DIR")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if mode != "quick" && mode != "full" {
		_, _ = fmt.Fprintf(stderr, "Error: invalid mode %q (quick|full)\n", mode)
		return 2
	}

	var targets []string
	switch {
	case path != "":
		targets = []string{path}
	case all:
		dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
		if dataDir == "" {
			dataDir = config.Defaults().DataDir
		}
		targets = knownDatabases(dataDir)
	default:
		_, _ = fmt.Fprintln(stderr, "Error: --path or --all is required")
		return 2
	}

	failed := false
	for _, db := range targets {
		if _, err := os.Stat(db); err != nil {
			_, _ = fmt.Fprintf(stdout, "- %s: skipped (%v)\n", db, err)
			continue
		}
		problems, err := sqlite.VerifyIntegrity(context.Background(), db, mode)
		switch {
		case err != nil:
			failed = true
			_, _ = fmt.Fprintf(stdout, "✗ %s: %v\n", db, err)
		case len(problems) > 0:
			failed = true
			_, _ = fmt.Fprintf(stdout, "✗ %s: %s\n", db, strings.Join(problems, "; "))
		default:
			_, _ = fmt.Fprintf(stdout, "✓ %s: ok\n", db)
		}
	}
	if failed {
		return 1
	}
	return 0
}

func knownDatabases(dataDir string) []string {
	cfg := config.Defaults()
	cfg.DataDir = dataDir
	return []string{
		cfg.CatalogDBPath(),
		filepath.Join(dataDir, "sessions.sqlite"),
	}
}
