package testsupport

import (
	"database/sql"
	"testing"

	"scout/internal/config"
	"scout/internal/storage"
)

// MustOpenDB opens the SQLite database for tests and registers cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *storage.DB {
	t.Helper()

	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// MustHandle opens the database and returns the raw handle for store
// construction in tests.
func MustHandle(t testing.TB, cfg *config.Config) *sql.DB {
	t.Helper()
	return MustOpenDB(t, cfg).Handle()
}
