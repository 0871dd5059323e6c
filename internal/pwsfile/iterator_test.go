package pwsfile

import (
	"testing"

	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
)

func TestIteratorWalksAllRecords(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	for i := 0; i < 3; i++ {
		if _, err := db.Add(sampleRecord(pwsfield.V3, "entry")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	it := db.Iterate()
	var indexes []int
	for it.Next() {
		indexes = append(indexes, it.Index())
		if it.Record() == nil {
			t.Fatal("Record() = nil on a successful Next")
		}
	}
	if it.Err() != nil {
		t.Fatalf("Err() = %v, want nil after clean exhaustion", it.Err())
	}
	if len(indexes) != 3 || indexes[0] != 0 || indexes[1] != 1 || indexes[2] != 2 {
		t.Fatalf("indexes = %v, want [0 1 2]", indexes)
	}
	if it.Next() {
		t.Fatal("Next() after exhaustion = true, want false")
	}
}

func TestIteratorEmptyDB(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	it := db.Iterate()
	if it.Next() {
		t.Fatal("Next() on an empty DB = true, want false")
	}
	if it.Err() != nil {
		t.Fatalf("Err() = %v, want nil", it.Err())
	}
}

func TestIteratorDetectsConcurrentAdd(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))

	it := db.Iterate()
	if !it.Next() {
		t.Fatal("Next() = false before any mutation")
	}

	db.Add(sampleRecord(pwsfield.V3, "another"))

	if it.Next() {
		t.Fatal("Next() after a concurrent Add = true, want false")
	}
	if it.Err() != ErrConcurrentIteration {
		t.Fatalf("Err() = %v, want ErrConcurrentIteration", it.Err())
	}
}

func TestIteratorDetectsConcurrentUpdate(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))
	db.Add(sampleRecord(pwsfield.V3, "entry"))

	it := db.Iterate()
	db.Update(0, sampleRecord(pwsfield.V3, "changed"))

	if it.Next() {
		t.Fatal("Next() after a concurrent Update = true, want false")
	}
	if it.Err() != ErrConcurrentIteration {
		t.Fatalf("Err() = %v, want ErrConcurrentIteration", it.Err())
	}
}

func TestIteratorDetectsConcurrentRemove(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))
	db.Add(sampleRecord(pwsfield.V3, "entry"))

	it := db.Iterate()
	db.Remove(0)

	if it.Next() {
		t.Fatal("Next() after a concurrent Remove = true, want false")
	}
	if it.Err() != ErrConcurrentIteration {
		t.Fatalf("Err() = %v, want ErrConcurrentIteration", it.Err())
	}
}

func TestIteratorStopsAfterDispose(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))

	it := db.Iterate()
	db.Dispose()

	if it.Next() {
		t.Fatal("Next() after Dispose = true, want false")
	}
	if it.Err() != ErrDisposed {
		t.Fatalf("Err() = %v, want ErrDisposed", it.Err())
	}
}

func TestIteratorCloseStopsFurtherNext(t *testing.T) {
	db, _ := New(FamilyV3, nil)
	db.Add(sampleRecord(pwsfield.V3, "entry"))
	db.Add(sampleRecord(pwsfield.V3, "entry"))

	it := db.Iterate()
	it.Close()

	if it.Next() {
		t.Fatal("Next() after Close = true, want false")
	}
}
