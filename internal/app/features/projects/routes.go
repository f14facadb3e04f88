// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the project endpoints (under /api/projects).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.With(authz.RequireCapability(authz.CreateProjects)).Post("/", h.Create)
	r.Get("/mine", h.Mine)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Delete("/members/{memberId}", h.RemoveMember)
		r.Delete("/supervisor", h.RemoveSupervisor)
		r.Delete("/recruiter", h.RemoveRecruiter)
	})
	return r
}
