package totp

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var (
	ErrMissingIssuer      = errors.New("totp: missing issuer")
	ErrMissingAccountName = errors.New("totp: missing account name")
	ErrFailedToEnroll     = errors.New("totp: failed to generate enrollment")
)

// Enrollment is what an authenticator app needs to add a new seed.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
	QRCode string `json:"qr_code"`
}

// NewEnrollment creates a random 160-bit seed for account at issuer and
// renders its otpauth URL as a PNG data URL.
func NewEnrollment(issuer, account string) (Enrollment, error) {
	if strings.TrimSpace(issuer) == "" {
		return Enrollment{}, ErrMissingIssuer
	}
	if strings.TrimSpace(account) == "" {
		return Enrollment{}, ErrMissingAccountName
	}

	key, err := pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		Secret:      codec.GenerateSeedBytes(),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToEnroll, err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrSize)
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToEnroll, err)
	}

	return Enrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}
