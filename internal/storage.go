package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteRefStore persists cache entries in the remoteObjects table
type SQLiteRefStore struct {
	db *sql.DB
}

// NewSQLiteRefStore creates a new SQLiteRefStore over an opened database
func NewSQLiteRefStore(db *sql.DB) *SQLiteRefStore {
	return &SQLiteRefStore{db: db}
}

// LoadRef loads the reference stored for path
func (s *SQLiteRefStore) LoadRef(path string) (RemoteObjectRef, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM remoteObjects WHERE path = ?", path).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return RemoteObjectRef{}, false, nil
	}
	if err != nil {
		return RemoteObjectRef{}, false, &StorageError{Path: path, Op: "query", Err: err}
	}

	var ref RemoteObjectRef
	if err := json.Unmarshal([]byte(value), &ref); err != nil {
		return RemoteObjectRef{}, false, fmt.Errorf("failed to parse stored ref for %s: %w", path, err)
	}
	return ref, true, nil
}

// SaveRef replaces the reference stored for path
func (s *SQLiteRefStore) SaveRef(path string, ref RemoteObjectRef, storedAt time.Time) error {
	value, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("failed to marshal ref: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO remoteObjects (path, value, storedAt) VALUES (?, ?, ?) "+
			"ON CONFLICT(path) DO UPDATE SET value = excluded.value, storedAt = excluded.storedAt",
		path, string(value), storedAt.UnixMilli())
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// ListRefs returns every stored reference ordered by path
func (s *SQLiteRefStore) ListRefs() ([]CachedRef, error) {
	rows, err := s.db.Query("SELECT path, value, storedAt FROM remoteObjects ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var refs []CachedRef
	for rows.Next() {
		var (
			entry    CachedRef
			value    string
			storedAt int64
		)
		if err := rows.Scan(&entry.Path, &value, &storedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if err := json.Unmarshal([]byte(value), &entry.Ref); err != nil {
			// Log error but continue
			LogWarn("Skipping unreadable ref for %s: %v", entry.Path, err)
			continue
		}
		entry.StoredAt = time.UnixMilli(storedAt)
		refs = append(refs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return refs, nil
}

// DeleteAll removes every stored reference
func (s *SQLiteRefStore) DeleteAll() error {
	if _, err := s.db.Exec("DELETE FROM remoteObjects"); err != nil {
		return &StorageError{Path: "remoteObjects", Op: "write", Err: err}
	}
	return nil
}
