// Package secure seals small secrets, such as the session token, before
// they are written to local storage.
package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrNoSecret is returned when a sealer is built without a secret.
	ErrNoSecret = errors.New("secure: empty secret")
	// ErrInvalidCiphertext is returned for tampered or foreign payloads.
	ErrInvalidCiphertext = errors.New("secure: invalid ciphertext")
)

// DeriveKey expands secret into a 32-byte key bound to purpose.
func DeriveKey(secret []byte, purpose string) ([keySize]byte, error) {
	var key [keySize]byte
	if len(secret) == 0 {
		return key, ErrNoSecret
	}
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Sealer encrypts and authenticates values with NaCl secretbox.
type Sealer struct {
	key [keySize]byte
}

// NewSealer derives the sealing key for purpose from secret.
func NewSealer(secret, purpose string) (*Sealer, error) {
	key, err := DeriveKey([]byte(secret), purpose)
	if err != nil {
		return nil, err
	}
	return &Sealer{key: key}, nil
}

// Seal returns base64(nonce || box).
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return nil, ErrInvalidCiphertext
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrInvalidCiphertext
	}
	return out, nil
}
