package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

const (
	keyFileName  = "masterkey.protected"
	wrapSaltSize = 16
)

// keyWrapAAD binds the wrapped blob to its purpose so it cannot be fed to
// the record decryption path.
var keyWrapAAD = []byte("tabzero:masterkey")

// FileKeyStore persists a single wrapped master key under the application's
// base directory.
//
// There is no portable DPAPI, so the key is wrapped with AES-256-GCM under
// a key-encryption key derived (argon2id) from the current OS account
// identity and hostname plus a random per-install salt. Unwrapping from a
// different user account fails authentication. This protects the blob from
// other accounts on the machine; an attacker with the owner's privileges is
// out of scope.
type FileKeyStore struct {
	baseDir string
}

// NewFileKeyStore creates a key store rooted at baseDir.
func NewFileKeyStore(baseDir string) *FileKeyStore {
	return &FileKeyStore{baseDir: baseDir}
}

// GetOrCreateMasterKey returns the installation's 32-byte master key.
//
// On first use a fresh random key is generated, wrapped, and written to
// <baseDir>/masterkey.protected (0600). On every later call the blob is
// read back and unwrapped. Unwrap failures return ErrKeyUnwrap and must be
// treated as fatal; the key is never silently regenerated.
func (ks *FileKeyStore) GetOrCreateMasterKey() ([]byte, error) {
	if err := os.MkdirAll(ks.baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("GetOrCreateMasterKey: %w", err)
	}

	path := filepath.Join(ks.baseDir, keyFileName)
	blob, err := os.ReadFile(path)
	if err == nil {
		return ks.unwrap(blob)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("GetOrCreateMasterKey: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("GetOrCreateMasterKey: %w", err)
	}

	blob, err = ks.wrap(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return nil, fmt.Errorf("GetOrCreateMasterKey: %w", err)
	}
	return key, nil
}

// wrap seals the key as salt || nonce || ciphertext+tag.
func (ks *FileKeyStore) wrap(key []byte) ([]byte, error) {
	salt := make([]byte, wrapSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	aead, err := wrappingAEAD(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	blob := make([]byte, 0, wrapSaltSize+NonceSize+len(key)+TagSize)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, key, keyWrapAAD)
	return blob, nil
}

func (ks *FileKeyStore) unwrap(blob []byte) ([]byte, error) {
	if len(blob) < wrapSaltSize+NonceSize+TagSize {
		return nil, ErrKeyUnwrap
	}

	salt := blob[:wrapSaltSize]
	nonce := blob[wrapSaltSize : wrapSaltSize+NonceSize]
	sealed := blob[wrapSaltSize+NonceSize:]

	aead, err := wrappingAEAD(salt)
	if err != nil {
		return nil, err
	}

	key, err := aead.Open(nil, nonce, sealed, keyWrapAAD)
	if err != nil {
		return nil, ErrKeyUnwrap
	}
	if len(key) != KeySize {
		return nil, ErrKeyUnwrap
	}
	return key, nil
}

// wrappingAEAD derives the key-encryption key for the given salt and
// returns an AEAD over it. argon2id parameters follow the usual
// interactive profile: 1 pass, 64 MiB, 4 lanes.
func wrappingAEAD(salt []byte) (cipher.AEAD, error) {
	scope, err := protectionScope()
	if err != nil {
		return nil, fmt.Errorf("wrappingAEAD: %w", err)
	}

	kek := argon2.IDKey(scope, salt, 1, 64*1024, 4, KeySize)
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("wrappingAEAD: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wrappingAEAD: %w", err)
	}
	return aead, nil
}

// protectionScope identifies the owning account. It must be stable across
// restarts of the same account and differ across accounts.
func protectionScope() ([]byte, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	return []byte(u.Uid + "\x00" + u.Username + "\x00" + host), nil
}
