package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_MarshalParse(t *testing.T) {
	t.Parallel()

	f := Frame{
		Salt:       bytes.Repeat([]byte{1}, SaltSize),
		Nonce:      bytes.Repeat([]byte{2}, NonceSize),
		Ciphertext: []byte("ciphertext-and-tag"),
	}

	blob, err := f.Marshal()
	require.NoError(t, err)
	require.Len(t, blob, HeaderSize+len(f.Ciphertext))

	got, err := ParseFrame(blob)
	require.NoError(t, err)
	assert.Equal(t, f.Salt, got.Salt)
	assert.Equal(t, f.Nonce, got.Nonce)
	assert.Equal(t, f.Ciphertext, got.Ciphertext)
}

func TestFrame_MarshalRejectsBadSizes(t *testing.T) {
	t.Parallel()

	_, err := Frame{Salt: make([]byte, 15), Nonce: make([]byte, NonceSize)}.Marshal()
	assert.Error(t, err)

	_, err = Frame{Salt: make([]byte, SaltSize), Nonce: make([]byte, 24)}.Marshal()
	assert.Error(t, err)
}

func TestParseFrame_Short(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, SaltSize, HeaderSize - 1} {
		_, err := ParseFrame(make([]byte, n))
		assert.ErrorIs(t, err, ErrShortBlob, "len=%d", n)
	}

	// Exactly the header is structurally valid; the AEAD layer rejects it.
	f, err := ParseFrame(make([]byte, HeaderSize))
	require.NoError(t, err)
	assert.Empty(t, f.Ciphertext)
}
