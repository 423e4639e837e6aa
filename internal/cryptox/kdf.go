// Package cryptox implements the vault's key derivation and authenticated
// encryption, and bcrypt hashing for the operator login password.
package cryptox

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of derived AES-256 keys.
const KeySize = 32

// ErrInvalidKDFParams is returned when argon2id would be run with a zero
// cost or a salt of the wrong size.
var ErrInvalidKDFParams = errors.New("invalid key derivation parameters")

// KDFParams configures argon2id.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams returns argon2id with 1 pass, 64 MiB and 4 lanes.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// Validate reports whether p can be passed to argon2.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
		return fmt.Errorf("%w: time=%d memory=%d threads=%d", ErrInvalidKDFParams, p.Time, p.MemoryKiB, p.Threads)
	}
	return nil
}

// DeriveKey turns password and a 16-byte salt into a KeySize key.
// It is deterministic for a given (password, salt, params).
func DeriveKey(password, salt []byte, p KDFParams) ([]byte, error) {
	if len(salt) != codec.SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidKDFParams, codec.SaltSize, len(salt))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize), nil
}
