// internal/app/features/sponsored/handler.go
package sponsored

import (
	"context"
	"errors"
	"net/http"

	sponsoredstore "github.com/dalemusser/fypcollab/internal/app/store/sponsored"
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

// Handler serves company-sponsored projects. Recruiters manage their own;
// anyone signed in can browse.
type Handler struct {
	Listings *sponsoredstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Listings: sponsoredstore.New(db), Users: userstore.New(db), Log: logger}
}

// ListingView is a sponsored project with its recruiter resolved.
type ListingView struct {
	models.SponsoredProject
	AuthorInfo *models.UserSummary `json:"author_info,omitempty"`
}

type listingInput struct {
	Title        string   `json:"title" validate:"required,notblank,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Technologies []string `json:"technologies" validate:"max=50,dive,max=50"`
}

// List handles GET /api/sponsored?technology=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Listings.List(ctx, normalize.Name(query.Get(r, "technology")))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.writeViews(ctx, w, rows)
}

// Mine handles GET /api/sponsored/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Listings.ListByAuthor(ctx, actor.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.writeViews(ctx, w, rows)
}

// Create handles POST /api/sponsored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in listingInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.Listings.Create(ctx, models.SponsoredProject{
		Title:        normalize.Name(in.Title),
		Description:  htmlsanitize.Sanitize(in.Description),
		Technologies: normalize.Tags(in.Technologies),
		Author:       actor.ID,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, sp)
}

// Update handles PUT /api/sponsored/{id}. Only the author may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var in listingInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	matched, err := h.Listings.Update(ctx, id, actor.ID,
		normalize.Name(in.Title), htmlsanitize.Sanitize(in.Description), normalize.Tags(in.Technologies))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	if !matched {
		apierr.Write(w, h.Log, h.missOrForeign(ctx, id))
		return
	}

	sp, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, sp)
}

// Delete handles DELETE /api/sponsored/{id}. Only the author may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Listings.Delete(ctx, id, actor.ID)
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
	_, err := h.Listings.GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.ErrListingNotFound
	case err != nil:
		return err
	}
	return apierr.Forbidden.WithMessage("only the recruiter who posted this listing may change it")
}

func (h *Handler) writeViews(ctx context.Context, w http.ResponseWriter, rows []models.SponsoredProject) {
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, sp := range rows {
		ids = append(ids, sp.Author)
	}
	authors, err := h.Users.Summaries(ctx, ids)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	out := make([]ListingView, 0, len(rows))
	for _, sp := range rows {
		v := ListingView{SponsoredProject: sp}
		if a, ok := authors[sp.Author]; ok {
			v.AuthorInfo = &a
		}
		out = append(out, v)
	}
	jsonio.OK(w, out)
}
