package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
}

// ObjectID returns the user's id, or NilObjectID if it is malformed.
func (u *SessionUser) ObjectID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// UserFetcher loads the current state of a user on every request so that
// deletion takes effect immediately. It returns (nil, nil) when the user no
// longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Manager authenticates requests from a bearer token, the "token" cookie,
// or the browser session, in that order.
type Manager struct {
	tokens   *Tokens
	sessions *SessionManager
	fetcher  UserFetcher
	log      *zap.Logger
}

// NewManager wires token verification, the session store, and the user fetcher.
// sessions may be nil for API-only deployments.
func NewManager(tokens *Tokens, sessions *SessionManager, fetcher UserFetcher, log *zap.Logger) *Manager {
	return &Manager{tokens: tokens, sessions: sessions, fetcher: fetcher, log: log}
}

// Tokens exposes the token issuer.
func (m *Manager) Tokens() *Tokens { return m.tokens }

// Sessions exposes the browser session manager (may be nil).
func (m *Manager) Sessions() *SessionManager { return m.sessions }

// LoadUser injects the user into context when a valid credential is present.
// Requests without credentials pass through untouched; an invalid credential
// is treated the same as none.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.tokenFrom(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Parse(raw)
		if err != nil {
			m.log.Debug("rejected token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		u, err := m.fetcher.FetchUser(r.Context(), claims.UserID)
		if err != nil {
			m.log.Error("load user for token failed", zap.String("user_id", claims.UserID), zap.Error(err))
			apierr.Write(w, m.log, err)
			return
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if m.sessions != nil {
		return m.sessions.Token(r)
	}
	return ""
}

// RequireSignedIn rejects requests without a user with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apierr.Write(w, nil, apierr.Unauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only users whose role is in allowed.
// Not signed in → 401; signed in with another role → 403.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				apierr.Write(w, nil, apierr.Unauthorized)
				return
			}
			if _, has := set[u.Role]; !has {
				apierr.Write(w, nil, apierr.ErrRoleNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
