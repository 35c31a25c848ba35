// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/config"
)

func runCatalogCLI(args []string) int {
	return runCatalogCommand(args, os.Stdout, os.Stderr)
}

func runCatalogCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		_, _ = fmt.Fprintln(stdout, "Usage:")
		_, _ = fmt.Fprintln(stdout, "  swinglab catalog list [--file|-f config.yaml]")
		return 0
	}
	if args[0] != "list" {
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n", args[0])
		return 2
	}

	fs := flag.NewFlagSet("swinglab catalog list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFileFlag(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	configPath := strings.TrimSpace(*file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cat := catalog.Open(ctx, catalog.Options{
		DBPath:   cfg.CatalogDBPath(),
		MediaDir: cfg.MediaDir(),
		Signer:   catalog.NewSigner(cfg.Catalog.SigningKey, cfg.Catalog.MediaBaseURL, cfg.Catalog.URLTTL),
	})
	defer func() { _ = cat.Close() }()

	swings, source := cat.List(ctx)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tGOLFER\tNAME\tCLUB\tYEAR\n")
	for _, s := range swings {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Golfer, s.Name, s.Club, s.Year)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(stdout, "\n%d swings (source: %s)\n", len(swings), source)
	return 0
}
