package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
)

// statusFor maps a service error to an HTTP status and a message safe to
// show the client. Unknown errors become a bare 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrLocked):
		return http.StatusServiceUnavailable, common.ErrLocked.Error()
	case errors.Is(err, common.ErrVaultUnlocked):
		return http.StatusConflict, common.ErrVaultUnlocked.Error()
	case errors.Is(err, common.ErrInvalidMasterPassword):
		return http.StatusUnauthorized, common.ErrInvalidMasterPassword.Error()
	case errors.Is(err, common.ErrInvalidSeed):
		return http.StatusBadRequest, common.ErrInvalidSeed.Error()
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, common.ErrBadRequest.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, common.ErrNotFound.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrTwoFARequired):
		return http.StatusUnauthorized, common.ErrTwoFARequired.Error()
	case errors.Is(err, common.ErrInvalidTwoFACode):
		return http.StatusUnauthorized, common.ErrInvalidTwoFACode.Error()
	case errors.Is(err, vault.ErrNoSyncer):
		return http.StatusBadRequest, "backup not configured"
	case errors.Is(err, common.ErrTwoFANotConfigured):
		return http.StatusBadRequest, common.ErrTwoFANotConfigured.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.ErrTokenExpired.Error()
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, common.ErrUnauthorized.Error()
	default:
		return http.StatusInternalServerError, common.ErrInternal.Error()
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, errorResponse{Error: msg})
}
