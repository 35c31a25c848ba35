// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/swinglab/internal/config"
)

func runConfigCLI(args []string) int {
	return runConfigCommand(args, os.Stdout, os.Stderr)
}

func runConfigCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  swinglab config validate [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  swinglab config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func configFileFlag(fs *flag.FlagSet) *string {
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	return &file
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swinglab config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFileFlag(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(*file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	if configPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required (no config.yaml found in $SWINGLAB_DATA_DIR)")
		return 2
	}

	if _, err := config.NewLoader(configPath, version).Load(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults, file, env) with
// secrets redacted. Without a file it dumps defaults plus env.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swinglab config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFileFlag(fs)
	var format string
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
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

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		out, err := config.Marshal(cfg)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_, _ = stdout.Write(out)
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Redacted()); err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown format: %s\n", format)
		return 2
	}
}
