// internal/app/features/auth/routes.go
package authfeature

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth endpoints (under /api/auth).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(auth.RequireSignedIn).Get("/me", h.Me)
	return r
}
