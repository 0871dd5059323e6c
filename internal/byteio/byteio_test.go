package byteio

import (
	"bytes"
	"io"
	"testing"
)

func TestBlockReaderReadExact(t *testing.T) {
	br := NewBlockReader(bytes.NewReader([]byte("0123456789")))
	buf := make([]byte, 4)
	if err := br.ReadExact(buf); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(buf) != "0123" {
		t.Fatalf("got %q", buf)
	}

	buf2 := make([]byte, 6)
	if err := br.ReadExact(buf2); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(buf2) != "456789" {
		t.Fatalf("got %q", buf2)
	}

	if err := br.ReadExact(make([]byte, 1)); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestBlockReaderTruncated(t *testing.T) {
	br := NewBlockReader(bytes.NewReader([]byte("abc")))
	if err := br.ReadExact(make([]byte, 8)); err != ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestAllocateBuffer(t *testing.T) {
	buf, err := AllocateBuffer(10, 8)
	if err != nil {
		t.Fatalf("AllocateBuffer: %v", err)
	}
	if len(buf) != 16 {
		t.Fatalf("len = %d, want 16", len(buf))
	}
	buf, err = AllocateBuffer(16, 8)
	if err != nil || len(buf) != 16 {
		t.Fatalf("exact multiple: len=%d err=%v", len(buf), err)
	}
	if _, err := AllocateBuffer(-1, 8); err == nil {
		t.Fatal("expected error for negative size")
	}
}

func TestMemStorageRoundTrip(t *testing.T) {
	m := NewMemStorage(nil)
	ws, err := m.OpenForWrite()
	if err != nil {
		t.Fatalf("OpenForWrite: %v", err)
	}
	bw := NewBlockWriter(ws)
	if err := bw.WriteAll([]byte("hello")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rs, err := m.OpenForRead()
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer rs.Close()
	br := NewBlockReader(rs)
	buf := make([]byte, 5)
	if err := br.ReadExact(buf); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("got %q", buf)
	}
}

func TestMemStorageReadOnly(t *testing.T) {
	m := NewMemStorage([]byte("x"))
	m.SetReadOnly(true)
	if m.IsWritable() {
		t.Fatal("IsWritable() true after SetReadOnly(true)")
	}
	if _, err := m.OpenForWrite(); err == nil {
		t.Fatal("expected error opening a read-only MemStorage for write")
	}
}
