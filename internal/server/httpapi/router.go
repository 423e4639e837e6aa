package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the /api routes. Everything except unlock, lock status,
// the 2FA check and login needs a bearer token.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.requestLogger)

	r.Route("/api", func(api chi.Router) {
		api.Post("/unlock", s.handleUnlock)
		api.Get("/lock-status", s.handleLockStatus)
		api.Post("/check-user-2fa", s.handleCheckTwoFA)
		api.Post("/login", s.handleLogin)

		api.Group(func(priv chi.Router) {
			priv.Use(s.requireBearer)

			priv.Post("/lock", s.handleLock)
			priv.Get("/status", s.handleStatus)
			priv.Post("/change-password", s.handleChangePassword)
			priv.Post("/enable-2fa", s.handleEnableTwoFA)
			priv.Post("/verify-2fa", s.handleVerifyTwoFA)
			priv.Post("/disable-2fa", s.handleDisableTwoFA)
			priv.Post("/backup/push", s.handleBackupPush)

			priv.Route("/totp", func(tr chi.Router) {
				tr.Post("/add", s.handleAddEntry)
				tr.Get("/list", s.handleListEntries)
				tr.Post("/delete", s.handleDeleteEntry)
				tr.Delete("/{id}", s.handleDeleteEntry)
				tr.Get("/generate/{id}", s.handleGenerateCode)
			})
		})
	})

	return r
}
