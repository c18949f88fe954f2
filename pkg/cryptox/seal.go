package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrCiphertextTooShort is returned by Open when the input cannot hold a nonce.
	ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")
	// ErrDecrypt is returned by Open when authentication fails.
	ErrDecrypt = errors.New("cryptox: decryption failed")
)

// Sealer provides authenticated encryption for small values such as tokens
// persisted by a session store. Keys are derived from a caller supplied secret
// with HKDF-SHA256 and used with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an XChaCha20-Poly1305 key from secret. The info string
// separates keys derived from the same secret for different purposes.
func NewSealer(secret []byte, info string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sealer secret must not be empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and binds it to additionalData.
// The output format is: [24-byte nonce][ciphertext][16-byte auth tag]
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal. additionalData must match the value
// used when sealing.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return plaintext, nil
}
