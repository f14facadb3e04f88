// internal/app/features/sponsored/routes.go
package sponsored

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the sponsored project endpoints (under /api/sponsored).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireCapability(authz.PublishSponsored))
		r.Get("/mine", h.Mine)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
