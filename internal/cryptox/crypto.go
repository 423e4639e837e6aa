package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"github.com/dmitrijs2005/totpkeeper/internal/common"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-256-GCM under key and a fresh random
// 12-byte nonce. The result is nonce ‖ ciphertext, the tag included.
func Seal(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(codec.NonceSize)
	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any failure, whether a wrong key, a short input or a
// modified byte, is reported as common.ErrInvalidMasterPassword.
func Open(sealed, key []byte) ([]byte, error) {
	if len(key) != KeySize || len(sealed) < codec.NonceSize {
		return nil, common.ErrInvalidMasterPassword
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, common.ErrInvalidMasterPassword
	}

	nonce, ciphertext := sealed[:codec.NonceSize], sealed[codec.NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrInvalidMasterPassword
	}
	return plaintext, nil
}

// EncryptBlob serializes v to JSON and encrypts it under a key derived from
// password and a fresh 16-byte salt. It returns salt ‖ nonce ‖ ciphertext and
// the derived key; the caller owns the key and should wipe it when done.
func EncryptBlob(v any, password []byte, p KDFParams) (blob, key []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, errors.Join(common.ErrSerialization, err)
	}
	defer common.WipeByteArray(plaintext)

	salt := common.GenerateRandByteArray(codec.SaltSize)
	key, err = DeriveKey(password, salt, p)
	if err != nil {
		return nil, nil, err
	}

	sealed, err := Seal(plaintext, key)
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, err
	}

	blob, err = codec.Frame{
		Salt:       salt,
		Nonce:      sealed[:codec.NonceSize],
		Ciphertext: sealed[codec.NonceSize:],
	}.Marshal()
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, err
	}
	return blob, key, nil
}

// DecryptBlob splits blob into salt, nonce and ciphertext, derives the key
// from password and the stored salt, decrypts, and unmarshals the JSON
// plaintext into v. It returns the derived key on success.
//
// A short blob, wrong password or tampered byte all yield
// common.ErrInvalidMasterPassword and nothing else. Plaintext that
// authenticates but does not decode yields common.ErrSerialization.
func DecryptBlob(blob, password []byte, p KDFParams, v any) ([]byte, error) {
	frame, err := codec.ParseFrame(blob)
	if err != nil {
		return nil, common.ErrInvalidMasterPassword
	}

	key, err := DeriveKey(password, frame.Salt, p)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, codec.NonceSize+len(frame.Ciphertext))
	sealed = append(sealed, frame.Nonce...)
	sealed = append(sealed, frame.Ciphertext...)

	plaintext, err := Open(sealed, key)
	if err != nil {
		common.WipeByteArray(key)
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		common.WipeByteArray(key)
		return nil, errors.Join(common.ErrSerialization, err)
	}
	return key, nil
}
