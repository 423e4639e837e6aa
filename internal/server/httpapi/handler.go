package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type unlockRequest struct {
	MasterPassword string `json:"master_password"`
}

type unlockResponse struct {
	Unlocked bool `json:"unlocked"`
}

type lockStatusResponse struct {
	Locked bool `json:"locked"`
}

type checkTwoFARequest struct {
	Username string `json:"username"`
}

type checkTwoFAResponse struct {
	RequiresTwoFA bool `json:"requires_2fa"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type codeRequest struct {
	TOTPCode string `json:"totp_code"`
}

type disableTwoFARequest struct {
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

type addEntryRequest struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Secret string `json:"secret"`
}

type addEntryResponse struct {
	ID string `json:"id"`
}

type listEntriesResponse struct {
	Entries []vault.EntrySummary `json:"entries"`
}

type deleteEntryRequest struct {
	ID string `json:"id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(common.ErrBadRequest, err)
	}
	return nil
}

func (s *HTTPServer) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	password := []byte(req.MasterPassword)
	defer common.WipeByteArray(password)

	ok, err := s.vault.Unlock(r.Context(), password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unlockResponse{Unlocked: ok})
}

func (s *HTTPServer) handleLockStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lockStatusResponse{Locked: !s.vault.IsUnlocked()})
}

func (s *HTTPServer) handleLock(w http.ResponseWriter, r *http.Request) {
	s.vault.Lock()
	s.logger.Info(r.Context(), "vault locked by operator", "username", usernameFromContext(r.Context()))
	writeJSON(w, http.StatusOK, lockStatusResponse{Locked: true})
}

func (s *HTTPServer) handleBackupPush(w http.ResponseWriter, r *http.Request) {
	if err := s.vault.SyncPush(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) handleCheckTwoFA(w http.ResponseWriter, r *http.Request) {
	var req checkTwoFARequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	need, err := s.operator.RequiresTwoFA(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkTwoFAResponse{RequiresTwoFA: need})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.operator.Login(r.Context(), req.Username, req.Password, req.TOTPCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: strings.TrimSpace(common.BearerPrefix),
		ExpiresIn: int64(s.tokenTTL.Seconds()),
	})
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.operator.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.operator.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) handleEnableTwoFA(w http.ResponseWriter, r *http.Request) {
	en, err := s.operator.BeginTwoFA(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, en)
}

func (s *HTTPServer) handleVerifyTwoFA(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.operator.ConfirmTwoFA(r.Context(), req.TOTPCode); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) handleDisableTwoFA(w http.ResponseWriter, r *http.Request) {
	var req disableTwoFARequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.operator.DisableTwoFA(r.Context(), req.Password, req.TOTPCode); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.entries.Add(r.Context(), req.Name, req.Issuer, req.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addEntryResponse{ID: id})
}

func (s *HTTPServer) handleListEntries(w http.ResponseWriter, r *http.Request) {
	list, err := s.entries.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listEntriesResponse{Entries: list})
}

// handleDeleteEntry serves both DELETE /totp/{id} and POST /totp/delete
// with the id in the body.
func (s *HTTPServer) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		var req deleteEntryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		id = req.ID
	}

	if err := s.entries.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.entries.Code(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}
