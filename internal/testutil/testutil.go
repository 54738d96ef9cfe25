// Package testutil provides shared test helpers for setting up vaults,
// indexes and board documents.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/kanbo/internal/index"
	"github.com/starford/kanbo/internal/storage"
)

// SprintDoc is a document with two boards: {A, B} and {C, D}.
const SprintDoc = "---\ntitle: Sprint\ntags: [team]\n---\n# Sprint\n\n" +
	"```kanban\n[{\"task\":\"A\",\"tags\":[\"ops\"]},{\"task\":\"B\",\"status\":\"in progress\"," +
	"\"timerEntries\":[{\"startTime\":\"2026-03-02T09:00:00.000Z\",\"endTime\":null}]}]\n```\n\n" +
	"Backlog below.\n\n" +
	"```kanban\n{\"columns\":[\"todo\",\"review\",\"done\"],\"tasks\":[{\"task\":\"C\"},{\"task\":\"D\",\"status\":\"review\"}]}\n```\n"

// TestDB creates a temporary SQLite index that is closed when the test ends.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "kanbo-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteDoc writes content to rel inside the vault.
func WriteDoc(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	p := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that drops everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
