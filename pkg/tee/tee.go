// Package tee decrypts product payloads sealed with the shared TEE secret.
//
// Payloads are AES-256-GCM ciphertexts laid out as nonce || ciphertext+tag.
// The AES key is derived from the secret with HKDF-SHA256 and a fixed info
// string, so any secret length is accepted.
package tee

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyInfo = "haithe-tee-payload"

var (
	// ErrEmptySecret is returned when no TEE secret is configured.
	ErrEmptySecret = errors.New("tee: empty secret")
	// ErrShortPayload is returned when a payload is smaller than nonce plus tag.
	ErrShortPayload = errors.New("tee: payload too short")
)

// Cipher seals and opens payloads with a key derived from one secret. It is
// safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New derives the payload key from secret.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("tee: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tee: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tee: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Decrypt opens a nonce-prefixed payload.
func (c *Cipher) Decrypt(payload []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(payload) < ns+c.aead.Overhead() {
		return nil, ErrShortPayload
	}
	plain, err := c.aead.Open(nil, payload[:ns], payload[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("tee: open payload: %w", err)
	}
	return plain, nil
}

// Encrypt seals plain with a random nonce. Creators' tooling uses the same
// layout when publishing products.
func (c *Cipher) Encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("tee: nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}
