package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"reelingest/internal/config"
	"reelingest/internal/platform"
	"reelingest/internal/records"
)

// MustOpenStore opens a records.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord creates a pending record for tests using the provided store.
func NewRecord(t testing.TB, store *records.Store, sourceURL string, p platform.Platform) *records.Record {
	t.Helper()

	rec, err := store.NewRecord(context.Background(), uuid.NewString(), sourceURL, string(p), "", "")
	if err != nil {
		t.Fatalf("store.NewRecord: %v", err)
	}
	return rec
}
