package codec

import (
	"errors"
	"fmt"
)

// Encrypted file layout: salt[16] ‖ nonce[12] ‖ ciphertext. There is no
// version header; changing these sizes breaks existing files.
const (
	SaltSize   = 16
	NonceSize  = 12
	HeaderSize = SaltSize + NonceSize
)

// ErrShortBlob is returned by ParseFrame for input shorter than HeaderSize.
var ErrShortBlob = errors.New("encrypted blob too short")

// Frame is the parsed form of an encrypted database file.
type Frame struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// Marshal concatenates salt, nonce and ciphertext.
func (f Frame) Marshal() ([]byte, error) {
	if len(f.Salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(f.Salt))
	}
	if len(f.Nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(f.Nonce))
	}
	out := make([]byte, 0, HeaderSize+len(f.Ciphertext))
	out = append(out, f.Salt...)
	out = append(out, f.Nonce...)
	out = append(out, f.Ciphertext...)
	return out, nil
}

// ParseFrame splits blob by fixed offsets: [0,16) salt, [16,28) nonce,
// [28,end) ciphertext. The returned slices alias blob.
func ParseFrame(blob []byte) (Frame, error) {
	if len(blob) < HeaderSize {
		return Frame{}, ErrShortBlob
	}
	return Frame{
		Salt:       blob[:SaltSize],
		Nonce:      blob[SaltSize:HeaderSize],
		Ciphertext: blob[HeaderSize:],
	}, nil
}
