// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	"github.com/dalemusser/fypcollab/internal/app/store/audit"
	complaintstore "github.com/dalemusser/fypcollab/internal/app/store/complaints"
	projectstore "github.com/dalemusser/fypcollab/internal/app/store/projects"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/paging"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxAuditRows caps one page of the audit log.
const maxAuditRows = 500

// Handler serves the admin console API.
type Handler struct {
	Svc        *collab.Service
	Users      *userstore.Store
	Complaints *complaintstore.Store
	Audit      *audit.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, svc *collab.Service, audits *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:        svc,
		Users:      userstore.New(db),
		Complaints: complaintstore.New(db),
		Audit:      audit.New(db),
		AuditLog:   audits,
		Log:        logger,
	}
}

type deleteUserResponse struct {
	ID              primitive.ObjectID `json:"id"`
	Role            models.Role        `json:"role"`
	ProjectsRetired int                `json:"projects_retired"`
	RequestsDeleted int64              `json:"requests_deleted"`
	ChatDeleted     int64              `json:"chat_messages_deleted"`
	PrivateDeleted  int64              `json:"private_messages_deleted"`
	ListingsDeleted int64              `json:"listings_deleted"`
}

type statsResponse struct {
	Users      map[models.Role]int64            `json:"users"`
	Complaints map[models.ComplaintStatus]int64 `json:"complaints"`
}

type reconcileResponse struct {
	UsersChecked int `json:"users_checked"`
	UsersFixed   int `json:"users_fixed"`
}

// ListUsers handles GET /api/admin/users?role=&after=&before=&limit=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var role models.Role
	if s := query.Get(r, "role"); s != "" {
		parsed, ok := models.ParseRole(s)
		if !ok {
			apierr.Write(w, h.Log, apierr.Invalid.WithMessage("unknown role %q", s))
			return
		}
		role = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Users.List(ctx, role, paging.Parse(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, page)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Svc.DeleteUser(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.AuditLog.UserDeleted(ctx, r, actor.ID, res.User.ID, string(res.User.Role), res.ProjectsRetired)

	jsonio.OK(w, deleteUserResponse{
		ID:              res.User.ID,
		Role:            res.User.Role,
		ProjectsRetired: res.ProjectsRetired,
		RequestsDeleted: res.RequestsDeleted,
		ChatDeleted:     res.ChatDeleted,
		PrivateDeleted:  res.PrivateDeleted,
		ListingsDeleted: res.ListingsDeleted,
	})
}

// ListProjects handles GET /api/admin/projects?status=&q=&after=&before=&limit=.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	f := projectstore.ListFilter{
		Status: models.ProjectStatus(query.Get(r, "status")),
		Search: query.Get(r, "q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		apierr.Write(w, h.Log, apierr.ErrInvalidStatus)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Svc.ListProjects(ctx, f, paging.Parse(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, page)
}

// DeleteProject handles DELETE /api/admin/projects/{id}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
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
	h.AuditLog.ProjectDeleted(ctx, r, actor.ID, p.ID, string(actor.Role), p.Title)
	jsonio.OK(w, map[string]string{"message": "project deleted", "id": p.ID.Hex()})
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	resp := statsResponse{Users: map[models.Role]int64{}}
	for _, role := range models.Roles {
		n, err := h.Users.CountByRole(ctx, role)
		if err != nil {
			apierr.Write(w, h.Log, err)
			return
		}
		resp.Users[role] = n
	}
	counts, err := h.Complaints.CountByStatus(ctx)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	resp.Complaints = counts
	jsonio.OK(w, resp)
}

// Reconcile handles POST /api/admin/reconcile: an on-demand run of the
// back-reference repair job.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Svc.ReconcileBackRefs(ctx)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, reconcileResponse{UsersChecked: res.UsersChecked, UsersFixed: res.UsersFixed})
}

// AuditEvents handles GET /api/admin/audit?category=&event_type=&user_id=&actor_id=&limit=&offset=.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	actorID, err := idParam(r, "actor_id")
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	f := audit.QueryFilter{
		UserID:    userID,
		ActorID:   actorID,
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Limit:     intParam(r, "limit", 100, maxAuditRows),
		Offset:    intParam(r, "offset", 0, 0),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.Query(ctx, f)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, events)
}

// FailedLogins handles GET /api/admin/audit/failed-logins?since=24h.
func (h *Handler) FailedLogins(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if s := query.Get(r, "since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			apierr.Write(w, h.Log, apierr.Invalid.WithMessage("since must be a positive duration like 24h"))
			return
		}
		window = d
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.GetFailedLogins(ctx, time.Now().UTC().Add(-window), intParam(r, "limit", 100, maxAuditRows))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, events)
}

// intParam reads a non-negative integer query value. Bad input falls back to
// def; ceiling > 0 clamps the result.
func intParam(r *http.Request, key string, def, ceiling int64) int64 {
	s := query.Get(r, key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	if ceiling > 0 && n > ceiling {
		return ceiling
	}
	return n
}

func idParam(r *http.Request, key string) (*primitive.ObjectID, error) {
	s := query.Get(r, key)
	if s == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, apierr.ErrInvalidID
	}
	return &oid, nil
}
