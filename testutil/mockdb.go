package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the
// remoteObjects table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS remoteObjects (
		path TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		storedAt INTEGER NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to create remoteObjects table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
