// internal/app/features/privatechat/routes.go
package privatechat

import (
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the private chat endpoints (under /api/private-chat).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/conversations", h.Conversations)
	r.Get("/with/{userId}", h.With)
	r.Post("/send", h.Send)
	return r
}
