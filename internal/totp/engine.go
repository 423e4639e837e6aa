package totp

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

const (
	Digits = 6
	Period = 30
)

// driftOffsets are the seconds added to the reference time during Verify.
var driftOffsets = [...]int64{-2 * Period, -Period, 0, Period, 2 * Period}

// ErrNegativeTime is returned by Generate for times before the Unix epoch.
var ErrNegativeTime = errors.New("totp: time before unix epoch")

var generateOpts = pqtotp.ValidateOpts{
	Period:    Period,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Counter returns floor(at / Period).
func Counter(at int64) int64 {
	c := at / Period
	if at%Period < 0 {
		c--
	}
	return c
}

// RemainingSeconds returns how long the code for at stays valid:
// Period - (at mod Period), always in [1, Period].
func RemainingSeconds(at int64) uint {
	r := at % Period
	if r < 0 {
		r += Period
	}
	return uint(Period - r)
}

// Generate returns the zero-padded 6-digit code for seed at the Unix time at.
func Generate(seed []byte, at int64) (string, error) {
	if at < 0 {
		return "", ErrNegativeTime
	}
	return pqtotp.GenerateCodeCustom(codec.EncodeSeed(seed), time.Unix(at, 0).UTC(), generateOpts)
}

// Verify reports whether candidate equals the code for any of at-60, at-30,
// at, at+30 or at+60. It stops at the first match and does not reveal which
// step matched. Steps before the epoch are skipped.
func Verify(seed []byte, candidate string, at int64) bool {
	if len(candidate) != Digits {
		return false
	}
	for _, off := range driftOffsets {
		t := at + off
		if t < 0 {
			continue
		}
		code, err := Generate(seed, t)
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1 {
			return true
		}
	}
	return false
}

// Code is a generated code together with the seconds left in its window.
type Code struct {
	Code             string `json:"code"`
	RemainingSeconds uint   `json:"remaining_seconds"`
}

// Engine evaluates Base32 seeds against a clock.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an Engine reading time from now, or time.Now if nil.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// GenerateCode decodes seed and returns the current code. Decode failures
// wrap common.ErrInvalidSeed.
func (e *Engine) GenerateCode(seed string) (Code, error) {
	key, err := codec.DecodeSeed(seed)
	if err != nil {
		return Code{}, err
	}
	at := e.now().Unix()
	code, err := Generate(key, at)
	if err != nil {
		return Code{}, err
	}
	return Code{Code: code, RemainingSeconds: RemainingSeconds(at)}, nil
}

// VerifyCode decodes seed and checks candidate against the current time.
func (e *Engine) VerifyCode(seed, candidate string) (bool, error) {
	key, err := codec.DecodeSeed(seed)
	if err != nil {
		return false, err
	}
	return Verify(key, candidate, e.now().Unix()), nil
}
