package testsupport

import (
	"testing"

	"mediamirror/internal/config"
	"mediamirror/internal/journal"
)

// MustOpenJournal opens the run journal for cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
