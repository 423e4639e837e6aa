package common

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray_Sizes(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"kdf salt", 16},
		{"gcm nonce", 12},
		{"totp seed", 20},
		{"aes-256 key", 32},
		{"empty", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := GenerateRandByteArray(tt.n)
			require.NotNil(t, b)
			assert.Len(t, b, tt.n)
		})
	}
}

func TestGenerateRandByteArray_SaltsDiffer(t *testing.T) {
	seen := make(map[string]struct{})
	for range 64 {
		salt := GenerateRandByteArray(16)
		_, dup := seen[string(salt)]
		require.False(t, dup, "repeated 16-byte salt")
		seen[string(salt)] = struct{}{}
	}
}

func TestMakeRandHexString_SigningKey(t *testing.T) {
	key, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	raw, err := hex.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	empty, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWipeByteArray_DerivedKey(t *testing.T) {
	key := GenerateRandByteArray(32)
	require.False(t, bytes.Equal(key, make([]byte, 32)))

	WipeByteArray(key)
	assert.Equal(t, make([]byte, 32), key)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestWipeByteArray_OnlyTouchesView(t *testing.T) {
	// salt‖nonce header followed by ciphertext; wipe just the nonce.
	blob := bytes.Repeat([]byte{0xAB}, 40)
	WipeByteArray(blob[16:28])

	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 16), blob[:16])
	assert.Equal(t, make([]byte, 12), blob[16:28])
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 12), blob[28:])
}

func TestCloneBytes_SurvivesCallerWipe(t *testing.T) {
	password := []byte("correcthorse1")
	kept := CloneBytes(password)
	WipeByteArray(password)

	assert.Equal(t, []byte("correcthorse1"), kept)
	assert.Nil(t, CloneBytes(nil))
	assert.NotNil(t, CloneBytes([]byte{}))
}
