package pwsfile

import (
	"testing"

	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
)

func sampleRecord(v pwsfield.Version, title string) *pwsrecord.Record {
	r := &pwsrecord.Record{Version: v}
	r.Set(pwsfield.Field{ID: pwsfield.FieldTitle, Value: pwsfield.FieldValue{Kind: pwsfield.KindText, Text: title}})
	r.Set(pwsfield.Field{ID: pwsfield.FieldUsername, Value: pwsfield.FieldValue{Kind: pwsfield.KindText, Text: "alice"}})
	r.Set(pwsfield.Field{ID: pwsfield.FieldPassword, Value: pwsfield.FieldValue{Kind: pwsfield.KindText, Text: "hunter2"}})
	r.Set(pwsfield.Field{ID: pwsfield.FieldNotes, Value: pwsfield.FieldValue{Kind: pwsfield.KindText, Text: "note"}})
	if v != pwsfield.V1 {
		var uuid [16]byte
		uuid[0] = 0x42
		r.Set(pwsfield.Field{ID: pwsfield.FieldUUID, Value: pwsfield.FieldValue{Kind: pwsfield.KindUUID, UUID: uuid}})
	}
	return r
}

func roundTrip(t *testing.T, family Family, v pwsfield.Version) {
	t.Helper()
	storage := byteio.NewMemStorage(nil)
	passphrase := []byte("correct horse battery staple")

	db, err := New(family, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.Add(sampleRecord(v, "entry")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := db.SaveAs(storage, passphrase); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var seen []int
	loaded, err := Open(storage, family, passphrase, func(i int, rec *pwsrecord.Record) {
		seen = append(seen, i)
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if loaded.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", loaded.Count())
	}
	if len(seen) != 3 {
		t.Fatalf("listener saw %d records, want 3", len(seen))
	}

	rec, err := loaded.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	title, ok := rec.Get(pwsfield.FieldTitle)
	if !ok || title.Value.Text != "entry" {
		t.Fatalf("Title = %+v, ok=%v", title, ok)
	}
}

func TestRoundTripV1(t *testing.T) { roundTrip(t, FamilyV1, pwsfield.V1) }
func TestRoundTripV2(t *testing.T) { roundTrip(t, FamilyV2, pwsfield.V2) }
func TestRoundTripV3(t *testing.T) { roundTrip(t, FamilyV3, pwsfield.V3) }

func TestOpenWrongPassphrase(t *testing.T) {
	storage := byteio.NewMemStorage(nil)
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))
	if err := db.SaveAs(storage, []byte("correct-passphrase")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := Open(storage, FamilyV3, []byte("wrong-passphrase"), nil, nil); err != ErrWrongPassphrase {
		t.Fatalf("Open with wrong passphrase: got %v, want ErrWrongPassphrase", err)
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	db, _ := New(FamilyV2, nil)
	db.Add(sampleRecord(pwsfield.V2, "entry"))
	if err := db.Remove(5); err != ErrIndexOutOfRange {
		t.Fatalf("Remove(5) = %v, want ErrIndexOutOfRange", err)
	}
	if err := db.Remove(0); err != nil {
		t.Fatalf("Remove(0): %v", err)
	}
	if db.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", db.Count())
	}
}

func TestReadOnlyRejectsMutation(t *testing.T) {
	storage := byteio.NewMemStorage(nil)
	db, _ := New(FamilyV2, nil)
	db.Add(sampleRecord(pwsfield.V2, "entry"))
	if err := db.SaveAs(storage, []byte("pw")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	storage.SetReadOnly(true)

	loaded, err := Open(storage, FamilyV2, []byte("pw"), nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := loaded.Add(sampleRecord(pwsfield.V2, "another")); err != ErrReadOnly {
		t.Fatalf("Add on read-only DB: got %v, want ErrReadOnly", err)
	}
}

func TestDisposeBlocksAccess(t *testing.T) {
	db, _ := New(FamilyV1, nil)
	db.Add(sampleRecord(pwsfield.V1, "entry"))
	db.Dispose()
	if _, err := db.Get(0); err != ErrDisposed {
		t.Fatalf("Get after Dispose: got %v, want ErrDisposed", err)
	}
}
