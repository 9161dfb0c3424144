package internal

import (
	"testing"
	"time"

	"github.com/iksnae/gemini-attach/testutil"
)

func TestNewSQLiteRefStore(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)

	store := NewSQLiteRefStore(db)
	if store == nil {
		t.Fatal("NewSQLiteRefStore() returned nil")
	}
	if store.db != db {
		t.Error("NewSQLiteRefStore() did not set database correctly")
	}
}

func TestSQLiteRefStore_SaveAndLoad(t *testing.T) {
	store := NewSQLiteRefStore(testutil.CreateInMemoryDB(t))

	if _, ok, err := store.LoadRef("/missing"); ok || err != nil {
		t.Errorf("LoadRef(missing) = (%v, %v), want (false, nil)", ok, err)
	}

	storedAt := time.UnixMilli(1767225600000)
	ref := RemoteObjectRef{Name: "files/a", URI: "https://x/files/a", MimeType: "application/pdf", SizeBytes: 42, State: FileStateActive}
	if err := store.SaveRef("/docs/a.pdf", ref, storedAt); err != nil {
		t.Fatalf("SaveRef() error = %v", err)
	}
	ref.Name = "files/b"
	if err := store.SaveRef("/docs/a.pdf", ref, storedAt.Add(time.Second)); err != nil {
		t.Fatalf("SaveRef() overwrite error = %v", err)
	}

	got, ok, err := store.LoadRef("/docs/a.pdf")
	if err != nil || !ok {
		t.Fatalf("LoadRef() = (%v, %v)", ok, err)
	}
	if got != ref {
		t.Errorf("LoadRef() = %+v, want %+v", got, ref)
	}

	refs, err := store.ListRefs()
	if err != nil {
		t.Fatalf("ListRefs() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("ListRefs() returned %d refs, want 1", len(refs))
	}
	if !refs[0].StoredAt.Equal(storedAt.Add(time.Second)) {
		t.Errorf("ListRefs()[0].StoredAt = %v, want %v", refs[0].StoredAt, storedAt.Add(time.Second))
	}
}

func TestSQLiteRefStore_ListRefsSkipsCorruptRows(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	store := NewSQLiteRefStore(db)

	if _, err := db.Exec("INSERT INTO remoteObjects (path, value, storedAt) VALUES (?, ?, ?)", "/bad", "{not json", 0); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRef("/good", RemoteObjectRef{Name: "files/g"}, time.Now()); err != nil {
		t.Fatal(err)
	}

	refs, err := store.ListRefs()
	if err != nil {
		t.Fatalf("ListRefs() error = %v", err)
	}
	if len(refs) != 1 || refs[0].Path != "/good" {
		t.Errorf("ListRefs() = %+v, want only /good", refs)
	}

	if _, _, err := store.LoadRef("/bad"); err == nil {
		t.Error("LoadRef() of a corrupt row error = nil, want parse error")
	}
}
