// Package totp computes and verifies RFC 6238 time-based one-time passwords
// (HMAC-SHA1, 6 digits, 30 second steps) from raw seed bytes, and prepares
// enrollment material for the operator's own 2FA login.
//
// Verification accepts the codes of two steps on either side of the reference
// time (±60 seconds) to absorb clock drift between client and server.
package totp
