// internal/app/features/ideas/handler.go
package ideas

import (
	"context"
	"errors"
	"net/http"

	ideastore "github.com/dalemusser/fypcollab/internal/app/store/ideas"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/normalize"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves supervisor project ideas. Supervisors manage their own;
// anyone signed in can browse.
type Handler struct {
	Ideas *ideastore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Ideas: ideastore.New(db), Users: userstore.New(db), Log: logger}
}

// IdeaView is an idea with its author resolved.
type IdeaView struct {
	models.SupervisorIdea
	AuthorInfo *models.UserSummary `json:"author_info,omitempty"`
}

type ideaInput struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Domain      string `json:"domain" validate:"max=100"`
}

// List handles GET /api/ideas?domain=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Ideas.List(ctx, normalize.QueryParam(query.Get(r, "domain")))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.writeViews(ctx, w, rows)
}

// Mine handles GET /api/ideas/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Ideas.ListByAuthor(ctx, actor.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.writeViews(ctx, w, rows)
}

// Create handles POST /api/ideas.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in ideaInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	idea, err := h.Ideas.Create(ctx, models.SupervisorIdea{
		Title:       normalize.Name(in.Title),
		Description: htmlsanitize.Sanitize(in.Description),
		Domain:      normalize.QueryParam(in.Domain),
		Author:      actor.ID,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, idea)
}

// Update handles PUT /api/ideas/{id}. Only the author may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var in ideaInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	matched, err := h.Ideas.Update(ctx, id, actor.ID,
		normalize.Name(in.Title), htmlsanitize.Sanitize(in.Description), normalize.QueryParam(in.Domain))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if !matched {
		apierr.Write(w, h.Log, h.missOrForeign(ctx, id))
		return
	}

	idea, err := h.Ideas.GetByID(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, idea)
}

// Delete handles DELETE /api/ideas/{id}. Only the author may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Ideas.Delete(ctx, id, actor.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if !deleted {
		apierr.Write(w, h.Log, h.missOrForeign(ctx, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (authz.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, apierr.ErrInvalidID)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	return actor, id, true
}

// missOrForeign explains an author-scoped write that matched nothing.
func (h *Handler) missOrForeign(ctx context.Context, id primitive.ObjectID) error {
	_, err := h.Ideas.GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.ErrListingNotFound
	case err != nil:
		return err
	}
	return apierr.Forbidden.WithMessage("only the author may change this idea")
}

func (h *Handler) writeViews(ctx context.Context, w http.ResponseWriter, rows []models.SupervisorIdea) {
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, idea := range rows {
		ids = append(ids, idea.Author)
	}
	authors, err := h.Users.Summaries(ctx, ids)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	out := make([]IdeaView, 0, len(rows))
	for _, idea := range rows {
		v := IdeaView{SupervisorIdea: idea}
		if a, ok := authors[idea.Author]; ok {
			v.AuthorInfo = &a
		}
		out = append(out, v)
	}
	jsonio.OK(w, out)
}
