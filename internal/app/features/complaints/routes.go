// internal/app/features/complaints/routes.go
package complaints

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the complaint endpoints (under /api/complaints).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.File)
	r.Get("/mine", h.Mine)
	r.Get("/against-me", h.AgainstMe)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireCapability(authz.ModerateComplaints))
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Put("/{id}", h.UpdateStatus)
	})
	return r
}
