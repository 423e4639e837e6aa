// Package httpapi is the JSON/HTTP surface of the server.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/server/operator"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
)

const shutdownTimeout = 10 * time.Second

// VaultControl is the lock state machine as seen by the API.
type VaultControl interface {
	Unlock(ctx context.Context, password []byte) (bool, error)
	Lock()
	IsUnlocked() bool
	SyncPush(ctx context.Context) error
}

type OperatorService interface {
	Login(ctx context.Context, username, password, code string) (string, error)
	RequiresTwoFA(ctx context.Context, username string) (bool, error)
	Authenticate(ctx context.Context, token string) (string, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	BeginTwoFA(ctx context.Context) (totp.Enrollment, error)
	ConfirmTwoFA(ctx context.Context, code string) error
	DisableTwoFA(ctx context.Context, password, code string) error
	Status(ctx context.Context) (operator.Status, error)
}

type EntryService interface {
	Add(ctx context.Context, name, issuer, seed string) (string, error)
	List(ctx context.Context) ([]vault.EntrySummary, error)
	Delete(ctx context.Context, id string) error
	Code(ctx context.Context, id string) (totp.Code, error)
}

type HTTPServer struct {
	address  string
	vault    VaultControl
	operator OperatorService
	entries  EntryService
	tokenTTL time.Duration
	logger   logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, v VaultControl, ops OperatorService, es EntryService, tokenTTL time.Duration) *HTTPServer {
	return &HTTPServer{
		address:  a,
		vault:    v,
		operator: ops,
		entries:  es,
		tokenTTL: tokenTTL,
		logger:   l.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
