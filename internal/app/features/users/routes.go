// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user directory endpoints (under /api/users).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/search", h.Search)
	r.Get("/supervisors", h.Supervisors)
	r.Get("/recruiters", h.Recruiters)
	r.Put("/me/profile", h.UpdateProfile)
	r.Get("/{id}", h.Get)
	return r
}
