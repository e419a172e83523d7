// SPDX-License-Identifier: MIT
package main

import (
	"path/filepath"
	"testing"

	"github.com/ExponentialDS/vid-text/internal/persistence/sqlite"
)

func createHistoryDB(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE history (id TEXT PRIMARY KEY);"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	return path
}

func TestRunStorageCLI_Usage(t *testing.T) {
	if got := runStorageCLI(nil); got != 0 {
		t.Fatalf("help exit = %d, want 0", got)
	}
	if got := runStorageCLI([]string{"frobnicate"}); got != 2 {
		t.Fatalf("unknown subcommand exit = %d, want 2", got)
	}
}

func TestRunStorageVerify_Flags(t *testing.T) {
	if got := runStorageVerify(nil); got != 2 {
		t.Fatalf("missing --path/--all exit = %d, want 2", got)
	}
	if got := runStorageVerify([]string{"--path", "x.db", "--mode", "thorough"}); got != 2 {
		t.Fatalf("invalid mode exit = %d, want 2", got)
	}
}

func TestRunStorageVerify_Path(t *testing.T) {
	path := createHistoryDB(t, t.TempDir(), "history.db")

	out := captureStdout(t, func() {
		if got := runStorageVerify([]string{"--path", path}); got != 0 {
			t.Fatalf("exit = %d, want 0", got)
		}
	})
	if out == "" {
		t.Error("expected a confirmation line on stdout")
	}

	if got := runStorageVerify([]string{"--path", path, "--mode", "full"}); got != 0 {
		t.Errorf("full mode exit = %d, want 0", got)
	}
}

func TestRunStorageVerify_All(t *testing.T) {
	dir := t.TempDir()
	createHistoryDB(t, dir, "history.db")
	t.Setenv("VIDTEXT_DATA_DIR", dir)
	t.Setenv("VIDTEXT_ARCHIVE_PATH", "")

	if got := runStorageVerify([]string{"--all"}); got != 0 {
		t.Fatalf("exit = %d, want 0", got)
	}

	t.Setenv("VIDTEXT_DATA_DIR", t.TempDir())
	if got := runStorageVerify([]string{"--all"}); got != 2 {
		t.Errorf("no database present: exit = %d, want 2", got)
	}

	t.Setenv("VIDTEXT_DATA_DIR", "")
	if got := runStorageVerify([]string{"--all"}); got != 2 {
		t.Errorf("unset data dir: exit = %d, want 2", got)
	}
}

func TestRunStorageVerify_Unreachable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "history.db")
	if got := runStorageVerify([]string{"--path", missing}); got != 1 {
		t.Errorf("unreachable path exit = %d, want 1", got)
	}
}
