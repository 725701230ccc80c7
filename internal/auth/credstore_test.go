package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	store := NewFileStore(path)

	_, found, err := store.Retrieve(CredentialKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(CredentialKey, "ghp_secret"))

	secret, found, err := store.Retrieve(CredentialKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ghp_secret", secret)
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	store := NewFileStore(path)
	require.NoError(t, store.Save(CredentialKey, "ghp_secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Delete(CredentialKey), "deleting an absent key succeeds")

	require.NoError(t, store.Save(CredentialKey, "ghp_secret"))
	require.NoError(t, store.Delete(CredentialKey))

	_, found, err := store.Retrieve(CredentialKey)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is removed once the last key is gone")

	require.NoError(t, store.Delete(CredentialKey), "delete stays idempotent")
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(CredentialKey, "ghp_secret"))
	require.NoError(t, store.Save("other-token", "xyz"))
	require.NoError(t, store.Delete(CredentialKey))

	secret, found, err := store.Retrieve("other-token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "xyz", secret)
}
