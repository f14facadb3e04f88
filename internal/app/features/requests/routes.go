// internal/app/features/requests/routes.go
package requests

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the request endpoints (under /api/requests).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Decide)
	return r
}
