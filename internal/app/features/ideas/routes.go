// internal/app/features/ideas/routes.go
package ideas

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the supervisor idea endpoints (under /api/ideas).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireCapability(authz.PublishIdeas))
		r.Get("/mine", h.Mine)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
