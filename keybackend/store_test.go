package keybackend_test

import (
	"testing"

	"github.com/sagarc03/lockbox/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyRing_InlineKeysOnly(t *testing.T) {
	t.Parallel()

	cfg := keybackend.KeysConfig{
		Active: "k1",
		Inline: []keybackend.SigningKey{
			{KeyID: "k1", Secret: secretA},
			{KeyID: "k2", Secret: secretB},
		},
	}

	ring, err := keybackend.NewKeyRing(cfg)
	require.NoError(t, err)

	id, secret := ring.Active()
	assert.Equal(t, "k1", id)
	assert.Equal(t, []byte(secretA), secret)

	old, err := ring.Lookup("k2")
	require.NoError(t, err)
	assert.Equal(t, []byte(secretB), old)
}

func TestNewKeyRing_FileOverridesInline(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `[{"key_id": "k1", "secret": "file-secret-overrides-1"}]`)

	cfg := keybackend.KeysConfig{
		Inline: []keybackend.SigningKey{{KeyID: "k1", Secret: secretA}},
		File:   path,
	}

	ring, err := keybackend.NewKeyRing(cfg)
	require.NoError(t, err)

	secret, err := ring.Lookup("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("file-secret-overrides-1"), secret)
}

func TestNewKeyRing_Empty(t *testing.T) {
	t.Parallel()

	_, err := keybackend.NewKeyRing(keybackend.KeysConfig{})
	assert.ErrorIs(t, err, keybackend.ErrNoKeys)
}

func TestNewKeyRing_FileError(t *testing.T) {
	t.Parallel()

	_, err := keybackend.NewKeyRing(keybackend.KeysConfig{File: "/nonexistent/keys.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read keys file")
}
