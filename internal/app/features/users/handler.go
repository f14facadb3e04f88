// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// searchLimit caps GET /api/users/search results.
const searchLimit = 20

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

// Profile is the public view of a user: no credentials, no back-references.
type Profile struct {
	ID         primitive.ObjectID        `json:"id"`
	Name       string                    `json:"name"`
	Email      string                    `json:"email"`
	Role       models.Role               `json:"role"`
	Student    *models.StudentProfile    `json:"student,omitempty"`
	Supervisor *models.SupervisorProfile `json:"supervisor,omitempty"`
	Recruiter  *models.RecruiterProfile  `json:"recruiter,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

func profileOf(u models.User) Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Student:    u.Student,
		Supervisor: u.Supervisor,
		Recruiter:  u.Recruiter,
		CreatedAt:  u.CreatedAt,
	}
}

type profileInput struct {
	Skills                 []string `json:"skills" validate:"omitempty,max=50,dive,max=50"`
	Expertise              []string `json:"expertise" validate:"omitempty,max=50,dive,max=50"`
	Company                *string  `json:"company" validate:"omitempty,max=200"`
	InterestedTechnologies []string `json:"interested_technologies" validate:"omitempty,max=50,dive,max=50"`
}

// Search handles GET /api/users/search?q=. The caller is never in the result.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Users.Search(ctx, query.Get(r, "q"), actor.ID, searchLimit)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, rows)
}

// Supervisors handles GET /api/users/supervisors.
func (h *Handler) Supervisors(w http.ResponseWriter, r *http.Request) {
	h.listRole(w, r, models.RoleSupervisor)
}

// Recruiters handles GET /api/users/recruiters.
func (h *Handler) Recruiters(w http.ResponseWriter, r *http.Request) {
	h.listRole(w, r, models.RoleRecruiter)
}

func (h *Handler) listRole(w http.ResponseWriter, r *http.Request, role models.Role) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Users.ListByRole(ctx, role)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	out := make([]Profile, 0, len(rows))
	for _, u := range rows {
		out = append(out, profileOf(u))
	}
	jsonio.OK(w, out)
}

// Get handles GET /api/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, apierr.ErrInvalidID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrUserNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, profileOf(*u))
}

// UpdateProfile handles PUT /api/users/me/profile. Only the profile fields
// belonging to the caller's role are written; the rest are ignored.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in profileInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, actor.ID, actor.Role, userstore.ProfileUpdate{
		Skills:                 in.Skills,
		Expertise:              in.Expertise,
		Company:                in.Company,
		InterestedTechnologies: in.InterestedTechnologies,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrUserNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, profileOf(*u))
}
