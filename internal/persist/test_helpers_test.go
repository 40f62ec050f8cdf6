package persist_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rkeshri04/CalPal/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calpal.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func floatPtr(v float64) *float64 {
	return &v
}
