package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCipher_RoundTrip(t *testing.T) {
	c, err := NewFieldCipherFromFile(filepath.Join(t.TempDir(), "keys", "secret.key"))
	require.NoError(t, err)

	for _, plain := range []string{"", "Client reports low mood.", `{"subjective":"ünïcödé"}`} {
		sealed, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.NotContains(t, sealed, "low mood")

		got, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestFieldCipher_NonceIsRandom(t *testing.T) {
	c, err := NewFieldCipherFromFile(filepath.Join(t.TempDir(), "secret.key"))
	require.NoError(t, err)

	a, err := c.Encrypt("same text")
	require.NoError(t, err)
	b, err := c.Encrypt("same text")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFieldCipher_RejectsTampering(t *testing.T) {
	c, err := NewFieldCipherFromFile(filepath.Join(t.TempDir(), "secret.key"))
	require.NoError(t, err)

	sealed, err := c.Encrypt("text")
	require.NoError(t, err)

	_, err = c.Decrypt(sealed[:len(sealed)-4] + "AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestLoadOrCreateKey_ReusesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")

	first, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	second, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A cipher built from the same file decrypts what another one sealed.
	a, err := NewFieldCipherFromFile(path)
	require.NoError(t, err)
	b, err := NewFieldCipherFromFile(path)
	require.NoError(t, err)
	sealed, err := a.Encrypt("shared")
	require.NoError(t, err)
	got, err := b.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
}

func TestLoadOrCreateKey_RejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")
	require.NoError(t, os.WriteFile(path, []byte("c2hvcnQ="), 0o600))

	_, err := LoadOrCreateKey(path)
	assert.Error(t, err)
}
