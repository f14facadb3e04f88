// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin endpoints (under /api/admin). Every route is
// admin-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin))

	r.Get("/users", h.ListUsers)
	r.Delete("/users/{id}", h.DeleteUser)
	r.Get("/projects", h.ListProjects)
	r.Delete("/projects/{id}", h.DeleteProject)
	r.Get("/stats", h.Stats)
	r.Post("/reconcile", h.Reconcile)
	r.Get("/audit", h.AuditEvents)
	r.Get("/audit/failed-logins", h.FailedLogins)
	return r
}
