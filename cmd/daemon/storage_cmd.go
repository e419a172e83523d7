// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/persistence/sqlite"
)

func runStorageCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStorageUsage()
		return 0
	}

	switch args[0] {
	case "verify":
		return runStorageVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printStorageUsage()
		return 2
	}
}

func printStorageUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  vid-text storage verify [--path PATH | --all] [--mode quick|full]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  --path string  Path to a specific SQLite database file")
	fmt.Fprintln(os.Stderr, "  --all          Verify the history database in $VIDTEXT_DATA_DIR")
	fmt.Fprintln(os.Stderr, "  --mode string  Verification mode: quick (default) or full")
}

func runStorageVerify(args []string) int {
	fs := flag.NewFlagSet("vid-text storage verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var path string
	var mode string
	var all bool

	fs.StringVar(&path, "path", "", "path to the SQLite database file")
	fs.StringVar(&mode, "mode", "quick", "verification mode: quick or full")
	fs.BoolVar(&all, "all", false, "verify the history database in $VIDTEXT_DATA_DIR")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !all && path == "" {
		fmt.Fprintln(os.Stderr, "Error: --path or --all is required")
		return 2
	}

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		fmt.Fprintf(os.Stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", mode)
		return 2
	}

	if all {
		dataDir := strings.TrimSpace(config.ParseString("VIDTEXT_DATA_DIR", ""))
		if dataDir == "" {
			fmt.Fprintln(os.Stderr, "Error: --all requires VIDTEXT_DATA_DIR to be set.")
			return 2
		}

		// The transcript store is a Badger directory with its own checksums;
		// only the history archive lives in SQLite.
		dbPath := config.ParseString("VIDTEXT_ARCHIVE_PATH", filepath.Join(dataDir, "history.db"))
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: no history database found at %s\n", dbPath)
			return 2
		}
		return doVerify(dbPath, mode)
	}

	return doVerify(path, mode)
}

func doVerify(path, mode string) int {
	issues, err := sqlite.VerifyIntegrity(path, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		return 1
	}

	if issues != nil {
		fmt.Fprintf(os.Stderr, "Corruption detected in %s:\n", path)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		return 1
	}

	fmt.Printf("✓ %s integrity ok (mode: %s)\n", path, mode)
	return 0
}
