// Package codec holds the text and binary encodings used by the vault:
// Base32 TOTP seeds and the salt‖nonce‖ciphertext framing of the encrypted
// database file.
package codec

import (
	"encoding/base32"
	"errors"
	"strings"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
)

// SeedSize is the length in bytes of seeds generated by GenerateSeedBytes
// (160 bits, the RFC 4226 recommendation for HMAC-SHA1).
const SeedSize = 20

var seedEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

var (
	errEmptySeed     = errors.New("empty seed")
	errMalformedSeed = errors.New("malformed base32")
)

// NormalizeSeed strips whitespace and padding and uppercases s.
// It does not validate the alphabet.
func NormalizeSeed(s string) string {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimRight(s, "=")
	return strings.ToUpper(s)
}

// DecodeSeed decodes a Base32 seed. Decoding is case-insensitive, ignores
// whitespace and accepts both padded and unpadded input. Any failure wraps
// common.ErrInvalidSeed; the seed value never appears in the error.
func DecodeSeed(s string) ([]byte, error) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if strings.Trim(s, "=") == "" {
		return nil, errors.Join(common.ErrInvalidSeed, errEmptySeed)
	}

	enc := seedEncoding
	if strings.Contains(s, "=") {
		enc = base32.StdEncoding
	}

	b, err := enc.DecodeString(s)
	if err != nil {
		return nil, errors.Join(common.ErrInvalidSeed, errMalformedSeed)
	}
	return b, nil
}

// EncodeSeed returns the unpadded uppercase Base32 form of b.
func EncodeSeed(b []byte) string {
	return seedEncoding.EncodeToString(b)
}

// GenerateSeedBytes returns SeedSize random bytes suitable for a new TOTP seed.
func GenerateSeedBytes() []byte {
	return common.GenerateRandByteArray(SeedSize)
}
