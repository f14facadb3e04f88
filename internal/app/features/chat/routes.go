// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group chat endpoints (under /api/chat).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/{projectId}", h.List)
	r.Post("/{projectId}", h.Post)
	return r
}
