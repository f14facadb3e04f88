// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	projectstore "github.com/dalemusser/fypcollab/internal/app/store/projects"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/paging"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves project CRUD and owner-driven removals.
type Handler struct {
	Svc      *collab.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(svc *collab.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, AuditLog: audit, Log: logger}
}

type createInput struct {
	Title          string   `json:"title" validate:"required,notblank,max=200"`
	Description    string   `json:"description" validate:"max=5000"`
	RequiredSkills []string `json:"required_skills" validate:"max=50,dive,max=50"`
	MaxMembers     int      `json:"max_members" validate:"omitempty,min=1,max=3"`
}

type updateInput struct {
	Title          *string  `json:"title" validate:"omitempty,notblank,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=5000"`
	RequiredSkills []string `json:"required_skills" validate:"omitempty,max=50,dive,max=50"`
	Status         *string  `json:"status" validate:"omitempty,projectstatus"`
	MaxMembers     *int     `json:"max_members" validate:"omitempty,min=1,max=3"`
}

// List handles GET /api/projects?status=&q=&after=&before=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f := projectstore.ListFilter{
		Status: models.ProjectStatus(query.Get(r, "status")),
		Search: query.Get(r, "q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		apierr.Write(w, h.Log, apierr.ErrInvalidStatus)
		return
	}

	page, err := h.Svc.ListProjects(ctx, f, paging.Parse(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, page)
}

// Mine handles GET /api/projects/mine: every project the caller owns, works
// on, supervises or collaborates on.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Svc.ListMyProjects(ctx, actor)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, views)
}

// Get handles GET /api/projects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Svc.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, view)
}

// Create handles POST /api/projects.
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

	p, err := h.Svc.CreateProject(ctx, actor, collab.ProjectInput{
		Title:          in.Title,
		Description:    in.Description,
		RequiredSkills: in.RequiredSkills,
		MaxMembers:     in.MaxMembers,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, p)
}

// Update handles PUT /api/projects/{id}. Only the owner may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in updateInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	patch := collab.ProjectPatch{
		Title:          in.Title,
		Description:    in.Description,
		RequiredSkills: in.RequiredSkills,
		MaxMembers:     in.MaxMembers,
	}
	if in.Status != nil {
		st := models.ProjectStatus(*in.Status)
		patch.Status = &st
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Svc.UpdateProject(ctx, actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, p)
}

// Delete handles DELETE /api/projects/{id}: the owner or an admin retires
// the project and everything attached to it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Svc.DeleteProject(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if actor.IsAdmin() {
		h.AuditLog.ProjectDeleted(ctx, r, actor.ID, p.ID, string(actor.Role), p.Title)
	}
	jsonio.OK(w, map[string]string{"message": "project deleted", "id": p.ID.Hex()})
}

// RemoveMember handles DELETE /api/projects/{id}/members/{memberId}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(ctx context.Context, actor authz.Actor, id string) (*models.Project, error) {
		return h.Svc.RemoveMember(ctx, actor, id, chi.URLParam(r, "memberId"))
	})
}

// RemoveSupervisor handles DELETE /api/projects/{id}/supervisor.
func (h *Handler) RemoveSupervisor(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.RemoveSupervisor)
}

// RemoveRecruiter handles DELETE /api/projects/{id}/recruiter.
func (h *Handler) RemoveRecruiter(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.RemoveRecruiter)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, fn func(context.Context, authz.Actor, string) (*models.Project, error)) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := fn(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, p)
}
