// internal/app/features/requests/handler.go
package requests

import (
	"context"
	"net/http"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the request/approval workflow.
type Handler struct {
	Svc *collab.Service
	Log *zap.Logger
}

func NewHandler(svc *collab.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

type createInput struct {
	RequestType string `json:"request_type" validate:"required,requesttype"`
	ToUserID    string `json:"to_user_id" validate:"required,objectid"`
	ProjectID   string `json:"project_id" validate:"required,objectid"`
	Message     string `json:"message"`
}

type decideInput struct {
	Status string `json:"status" validate:"required,decision"`
}

// Create handles POST /api/requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in createInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	req, err := h.Svc.CreateRequest(ctx, actor, collab.CreateRequestInput{
		RequestType: models.RequestType(in.RequestType),
		ToUserID:    in.ToUserID,
		ProjectID:   in.ProjectID,
		Message:     in.Message,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, req)
}

// List handles GET /api/requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Svc.ListRequests(ctx, actor)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, rows)
}

// Get handles GET /api/requests/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Svc.GetRequest(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, view)
}

// Decide handles PUT /api/requests/{id} with {"status":"approved"|"rejected"}.
// It responds with {"request": ..., "project": ...}; project is present only
// after an approval.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in decideInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dec, err := h.Svc.UpdateRequestStatus(ctx, actor, chi.URLParam(r, "id"), models.RequestStatus(in.Status))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, dec)
}
