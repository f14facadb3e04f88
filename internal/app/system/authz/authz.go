// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller as seen by the service layer.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
	Name string
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c Capability) bool { return Can(a.Role, c) }

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// ActorFrom returns the Actor for the current request. ok is false when no
// user is signed in or the session carries a malformed id, so callers can
// trust that ok=true means a valid ObjectID.
func ActorFrom(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Actor{}, false
	}
	return Actor{ID: id, Role: u.Role, Name: u.Name}, true
}

// UserCtx returns the user's role, name, ObjectID, and a found flag.
func UserCtx(r *http.Request) (role models.Role, name string, userID primitive.ObjectID, ok bool) {
	a, ok := ActorFrom(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	return a.Role, a.Name, a.ID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// HasAnyRole reports whether the current request's user has any of roles.
func HasAnyRole(r *http.Request, roles ...models.Role) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == want {
			return true
		}
	}
	return false
}

// RequireCapability rejects callers whose role lacks c: 401 when signed out,
// 403 otherwise.
func RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := ActorFrom(r)
			if !ok {
				apierr.Write(w, nil, apierr.Unauthorized)
				return
			}
			if !a.Can(c) {
				apierr.Write(w, nil, apierr.ErrRoleNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
