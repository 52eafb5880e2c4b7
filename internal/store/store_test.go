package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dukerupert/rollcall/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupFileTestDB opens a WAL database on disk so that several pooled
// connections write concurrently.
func setupFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rollcall.db"))
	if err != nil {
		t.Fatalf("open file test db: %v", err)
	}
	db.SetMaxOpenConns(8)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?, ?, ?" {
		t.Errorf("placeholders(3) = %q, want %q", got, "?, ?, ?")
	}
	if got := placeholders(1); got != "?" {
		t.Errorf("placeholders(1) = %q, want %q", got, "?")
	}
}
