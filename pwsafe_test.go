package pwsafe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.psafe3")
	passphrase := []byte("correct horse battery staple")

	db, err := New(FamilyV3, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := &Record{Version: 3}
	rec.Set(Field{ID: FieldTitle, Value: FieldValue{Kind: 0, Text: "gmail"}})
	rec.Set(Field{ID: FieldUsername, Value: FieldValue{Kind: 0, Text: "alice"}})
	rec.Set(Field{ID: FieldPassword, Value: FieldValue{Kind: 0, Text: "p@ss"}})
	var uuid [16]byte
	uuid[0] = 1
	rec.Set(Field{ID: FieldUUID, Value: FieldValue{Kind: 2, UUID: uuid}})

	if _, err := db.Add(rec); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := db.SaveAs(path, passphrase); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	reopened, err := Open(path, FamilyV3, passphrase, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reopened.Count())
	}
	got, err := reopened.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "gmail" {
		t.Fatalf("Title = %q, want gmail", got.Title)
	}

	if _, err := Open(path, FamilyV3, []byte("wrong"), nil, nil); err != ErrWrongPassphrase {
		t.Fatalf("Open with wrong passphrase: got %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
