// Package operator implements login and account settings for the single
// operator stored inside the vault.
package operator

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/server/auth"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
)

// Issuer is shown by authenticator apps next to the login 2FA seed.
const Issuer = "totpkeeper"

var (
	errEmptyPassword   = errors.New("new password is empty")
	errTwoFAEnabled    = errors.New("2fa already enabled")
	errUnknownOperator = errors.New("token subject is not the operator")
)

// Store is the part of the vault the service needs.
type Store interface {
	GetOperator() (vault.Operator, error)
	UpdateOperator(fn func(op *vault.Operator) error) error
	Save(ctx context.Context) error
}

type Status struct {
	Unlocked     bool   `json:"unlocked"`
	Username     string `json:"username,omitempty"`
	TwoFAEnabled bool   `json:"two_fa_enabled"`
}

type Service struct {
	store        Store
	engine       *totp.Engine
	jwtSecret    []byte
	tokenTTL     time.Duration
	passwordCost int
	log          logging.Logger
}

func NewService(store Store, engine *totp.Engine, jwtSecret []byte, tokenTTL time.Duration, passwordCost int, log logging.Logger) *Service {
	return &Service{
		store:        store,
		engine:       engine,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		passwordCost: passwordCost,
		log:          log.With("module", "operator"),
	}
}

func sameString(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Login checks the operator credentials and, when 2FA is on, the code.
// It returns a signed bearer token. Wrong username and wrong password are
// the same error.
func (s *Service) Login(ctx context.Context, username, password, code string) (string, error) {
	op, err := s.store.GetOperator()
	if err != nil {
		return "", err
	}

	userOK := sameString(op.Username, username)
	passOK := cryptox.CheckPassword(op.PasswordHash, password)
	if !userOK || !passOK {
		s.log.Warn(ctx, "login rejected")
		return "", common.ErrInvalidCredentials
	}

	if op.TwoFAEnabled {
		if strings.TrimSpace(code) == "" {
			return "", common.ErrTwoFARequired
		}
		ok, err := s.engine.VerifyCode(op.TwoFASeed, strings.TrimSpace(code))
		if err != nil {
			return "", errors.Join(common.ErrInternal, err)
		}
		if !ok {
			s.log.Warn(ctx, "login rejected", "reason", "2fa")
			return "", common.ErrInvalidTwoFACode
		}
	}

	token, err := auth.GenerateToken(op.Username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", errors.Join(common.ErrInternal, err)
	}
	s.log.Info(ctx, "operator logged in")
	return token, nil
}

// RequiresTwoFA reports whether logging in as username needs a code.
// Unknown usernames report false.
func (s *Service) RequiresTwoFA(_ context.Context, username string) (bool, error) {
	op, err := s.store.GetOperator()
	if err != nil {
		return false, err
	}
	return sameString(op.Username, username) && op.TwoFAEnabled, nil
}

// Authenticate maps a bearer token to the operator username.
func (s *Service) Authenticate(_ context.Context, token string) (string, error) {
	subject, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}

	op, err := s.store.GetOperator()
	if err != nil {
		return "", err
	}
	if !sameString(op.Username, subject) {
		return "", errors.Join(common.ErrInvalidToken, errUnknownOperator)
	}
	return subject, nil
}

// ChangePassword replaces the login password after checking the old one,
// then saves the vault.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	err := s.store.UpdateOperator(func(op *vault.Operator) error {
		if !cryptox.CheckPassword(op.PasswordHash, oldPassword) {
			return common.ErrInvalidCredentials
		}
		if newPassword == "" {
			return errors.Join(common.ErrBadRequest, errEmptyPassword)
		}

		hash, err := cryptox.HashPassword(newPassword, s.passwordCost)
		if err != nil {
			return errors.Join(common.ErrInternal, err)
		}
		op.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "operator password changed")
	return nil
}

// BeginTwoFA stores a new login seed with 2FA still off and returns what
// the authenticator app needs. ConfirmTwoFA turns it on.
func (s *Service) BeginTwoFA(ctx context.Context) (totp.Enrollment, error) {
	op, err := s.store.GetOperator()
	if err != nil {
		return totp.Enrollment{}, err
	}

	en, err := totp.NewEnrollment(Issuer, op.Username)
	if err != nil {
		return totp.Enrollment{}, errors.Join(common.ErrInternal, err)
	}

	err = s.store.UpdateOperator(func(op *vault.Operator) error {
		if op.TwoFAEnabled {
			return errors.Join(common.ErrBadRequest, errTwoFAEnabled)
		}
		op.TwoFASeed = en.Secret
		return nil
	})
	if err != nil {
		return totp.Enrollment{}, err
	}
	if err := s.store.Save(ctx); err != nil {
		return totp.Enrollment{}, err
	}
	return en, nil
}

// ConfirmTwoFA enables 2FA once code matches the pending seed. The seed that
// checks the code is the seed that gets enabled.
func (s *Service) ConfirmTwoFA(ctx context.Context, code string) error {
	err := s.store.UpdateOperator(func(op *vault.Operator) error {
		if op.TwoFASeed == "" {
			return common.ErrTwoFANotConfigured
		}
		if err := s.checkCode(op.TwoFASeed, code); err != nil {
			return err
		}
		op.TwoFAEnabled = true
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "2fa enabled")
	return nil
}

// DisableTwoFA turns 2FA off and drops the seed. It needs the password and,
// while 2FA is on, a current code.
func (s *Service) DisableTwoFA(ctx context.Context, password, code string) error {
	err := s.store.UpdateOperator(func(op *vault.Operator) error {
		if !cryptox.CheckPassword(op.PasswordHash, password) {
			return common.ErrInvalidCredentials
		}
		if op.TwoFAEnabled {
			if err := s.checkCode(op.TwoFASeed, code); err != nil {
				return err
			}
		}
		op.TwoFAEnabled = false
		op.TwoFASeed = ""
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "2fa disabled")
	return nil
}

func (s *Service) checkCode(seed, code string) error {
	ok, err := s.engine.VerifyCode(seed, strings.TrimSpace(code))
	if err != nil {
		return errors.Join(common.ErrInternal, err)
	}
	if !ok {
		return common.ErrInvalidTwoFACode
	}
	return nil
}

// Status never fails on a locked vault; it just reports it.
func (s *Service) Status(_ context.Context) (Status, error) {
	op, err := s.store.GetOperator()
	if errors.Is(err, common.ErrLocked) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Unlocked: true, Username: op.Username, TwoFAEnabled: op.TwoFAEnabled}, nil
}
