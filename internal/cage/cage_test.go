package cage

import (
	"bytes"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	plain := []byte("a secret record payload")
	sealed, err := c.Seal(plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(sealed.ciphertext, plain) {
		t.Fatal("sealed ciphertext equals plaintext")
	}
	got, err := c.Unseal(sealed)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("got %q, want %q", got, plain)
	}
}

func TestSealEmptyInput(t *testing.T) {
	c, _ := New()
	sealed, err := c.Seal(nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := c.Unseal(sealed)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestPassphraseSealing(t *testing.T) {
	c, _ := New()
	if err := c.SealPassphrase([]byte("hunter2")); err != nil {
		t.Fatalf("SealPassphrase: %v", err)
	}
	got, err := c.Passphrase()
	if err != nil {
		t.Fatalf("Passphrase: %v", err)
	}
	if string(got) != "hunter2" {
		t.Fatalf("got %q", got)
	}
}

func TestDisposeBlocksOperations(t *testing.T) {
	c, _ := New()
	c.Dispose()
	if _, err := c.Seal([]byte("x")); err != ErrDisposed {
		t.Fatalf("Seal after Dispose: got %v, want ErrDisposed", err)
	}
	if _, err := c.Unseal(&Sealed{}); err != ErrDisposed {
		t.Fatalf("Unseal after Dispose: got %v, want ErrDisposed", err)
	}
	if err := c.RotateIV(); err != ErrDisposed {
		t.Fatalf("RotateIV after Dispose: got %v, want ErrDisposed", err)
	}
}

func TestRotateIVInvalidatesOldSeal(t *testing.T) {
	c, _ := New()
	sealed, err := c.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := c.RotateIV(); err != nil {
		t.Fatalf("RotateIV: %v", err)
	}
	if _, err := c.Unseal(sealed); err == nil {
		t.Fatal("expected Unseal under a rotated IV to fail or produce garbage padding error")
	}
}
