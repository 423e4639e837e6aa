// Package common defines shared constants, sentinel errors and small helpers
// used across totpkeeper components. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Vault state errors.
	ErrLocked                = errors.New("database locked")
	ErrVaultUnlocked         = errors.New("database unlocked")
	ErrInvalidMasterPassword = errors.New("invalid master password")

	// Storage errors. ErrStorage covers filesystem and remote I/O failures,
	// ErrSerialization a plaintext that decrypted fine but cannot be decoded.
	ErrStorage       = errors.New("storage error")
	ErrSerialization = errors.New("serialization error")

	// Seed / entry errors.
	ErrInvalidSeed = errors.New("invalid seed")
	ErrNotFound    = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// Operator login errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTwoFARequired      = errors.New("2fa code required")
	ErrInvalidTwoFACode   = errors.New("invalid 2fa code")
	ErrTwoFANotConfigured = errors.New("2fa not set up")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
