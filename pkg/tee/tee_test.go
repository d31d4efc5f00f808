package tee

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	c, err := New("tee-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plain := []byte("knowledge about Haithe")
	sealed, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("ciphertext leaks plaintext")
	}

	got, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("Decrypt = %q, want %q", got, plain)
	}
}

func TestDecryptWithOtherSecret(t *testing.T) {
	a, _ := New("secret-a")
	b, _ := New("secret-b")

	sealed, err := a.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(sealed); err == nil {
		t.Fatal("expected authentication failure with a different secret")
	}
}

func TestDecryptTampered(t *testing.T) {
	c, _ := New("secret")
	sealed, _ := c.Encrypt([]byte("payload"))
	sealed[len(sealed)-1] ^= 0xff

	if _, err := c.Decrypt(sealed); err == nil {
		t.Fatal("expected error for tampered payload")
	}
}

func TestDecryptShortPayload(t *testing.T) {
	c, _ := New("secret")
	if _, err := c.Decrypt([]byte("short")); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestNewEmptySecret(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}
