// Package helpers provides shared test fixtures.
package helpers

import (
	"path/filepath"
	"testing"

	"github.com/agenticai/agentd/store"
)

// NewTestSQLiteStore creates a throwaway SQLite store backed by a
// per-test temp directory for both the database and artifact files.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"), dir)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
