package crypto_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabzero/tabzero-go/pkg/crypto"
)

func TestGetOrCreateMasterKeyIsStable(t *testing.T) {
	dir := t.TempDir()

	ks := crypto.NewFileKeyStore(dir)
	key, err := ks.GetOrCreateMasterKey()
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)

	// A fresh store instance must load the identical key, not mint a new one.
	again, err := crypto.NewFileKeyStore(dir).GetOrCreateMasterKey()
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestMasterKeyFilePermissions(t *testing.T) {
	dir := t.TempDir()

	_, err := crypto.NewFileKeyStore(dir).GetOrCreateMasterKey()
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "masterkey.protected"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// The key never touches disk unwrapped.
	blob, err := os.ReadFile(filepath.Join(dir, "masterkey.protected"))
	require.NoError(t, err)
	assert.Greater(t, len(blob), crypto.KeySize)
}

func TestCorruptedBlobIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "masterkey.protected")

	ks := crypto.NewFileKeyStore(dir)
	_, err := ks.GetOrCreateMasterKey()
	require.NoError(t, err)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	_, err = crypto.NewFileKeyStore(dir).GetOrCreateMasterKey()
	assert.ErrorIs(t, err, crypto.ErrKeyUnwrap)
}

func TestTruncatedBlobIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "masterkey.protected")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	_, err := crypto.NewFileKeyStore(dir).GetOrCreateMasterKey()
	assert.ErrorIs(t, err, crypto.ErrKeyUnwrap)
}
