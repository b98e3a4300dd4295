// Package crypto provides authenticated encryption for locally persisted
// assistant records.
//
// Every record is sealed with AES-256-GCM under a single master key. The
// record's identity ("<kind>:<id>") is passed as additional authenticated
// data, so a ciphertext copied onto another record fails verification even
// though the key is shared. Confidentiality rests on AAD binding plus a
// fresh random nonce per encryption, not on key diversification.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the master key length in bytes (AES-256).
	KeySize = 32

	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

var (
	// ErrInvalidCiphertext indicates a ciphertext shorter than the
	// authentication tag, which can never be valid.
	ErrInvalidCiphertext = errors.New("ciphertext too short")

	// ErrAuthentication indicates that tag verification failed. A wrong
	// key, wrong nonce, wrong AAD, and tampered bytes are deliberately
	// indistinguishable.
	ErrAuthentication = errors.New("authentication failed")

	// ErrKeyUnwrap indicates that the persisted master key could not be
	// unwrapped. This is unrecoverable within the process: regenerating
	// the key would orphan every existing encrypted record.
	ErrKeyUnwrap = errors.New("master key unwrap failed")
)

// KeyStore supplies the master key used by the Service.
type KeyStore interface {
	// GetOrCreateMasterKey returns the installation's 32-byte master key,
	// creating and persisting it on first use.
	GetOrCreateMasterKey() ([]byte, error)
}

// Service encrypts and decrypts record payloads with AES-256-GCM.
//
// The master key is read once at construction and is safe for concurrent
// use; Service holds no other state.
type Service struct {
	aead cipher.AEAD
}

// NewService creates a Service over the key store's master key.
//
// Returns an error if the key cannot be obtained or has the wrong length.
func NewService(ks KeyStore) (*Service, error) {
	key, err := ks.GetOrCreateMasterKey()
	if err != nil {
		return nil, fmt.Errorf("NewService: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("NewService: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("NewService: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("NewService: %w", err)
	}

	return &Service{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
//
// The returned combined slice is ciphertext followed by the 16-byte tag,
// stored together for simpler persistence. aad may be nil.
func (s *Service) Encrypt(plaintext, aad []byte) (nonce, combined []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("Encrypt: %w", err)
	}

	combined = s.aead.Seal(nil, nonce, plaintext, aad)
	return nonce, combined, nil
}

// Decrypt opens a combined ciphertext-plus-tag produced by Encrypt.
//
// Returns ErrInvalidCiphertext when combined is shorter than the tag and
// ErrAuthentication for every verification failure, a wrong-length nonce
// included. Partial plaintext is never returned.
func (s *Service) Decrypt(nonce, combined, aad []byte) ([]byte, error) {
	if len(combined) < TagSize {
		return nil, ErrInvalidCiphertext
	}
	// GCM panics on a wrong-length nonce; a tampered nonce column must
	// fail like any other tampering.
	if len(nonce) != NonceSize {
		return nil, ErrAuthentication
	}

	plaintext, err := s.aead.Open(nil, nonce, combined, aad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// RecordAAD builds the additional authenticated data binding a ciphertext
// to one record: "<kind>:<id>".
func RecordAAD(kind, id string) []byte {
	return []byte(kind + ":" + id)
}
