// internal/app/features/auth/handler.go
package authfeature

import (
	"context"
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/normalize"
	"github.com/dalemusser/fypcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves registration, login, logout and the current-user lookup.
type Handler struct {
	Users    *userstore.Store
	Tokens   *auth.Tokens
	Sessions *auth.SessionManager // nil disables the browser session
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	// SecureCookie marks the token cookie Secure (prod).
	SecureCookie bool
	// HashCost is the bcrypt cost for new passwords.
	HashCost int
}

// NewHandler builds an auth Handler around the shared auth manager.
func NewHandler(db *mongo.Database, mgr *auth.Manager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, secure bool, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Tokens:       mgr.Tokens(),
		Sessions:     mgr.Sessions(),
		Limiter:      limiter,
		AuditLog:     audit,
		Log:          logger,
		SecureCookie: secure,
		HashCost:     bcrypt.DefaultCost,
	}
}

type registerInput struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,signuprole"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register handles POST /api/auth/register. Admins cannot self-register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	role, _ := models.ParseRole(in.Role)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), h.HashCost)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			err = apierr.ErrDuplicateEmail
		}
		apierr.Write(w, h.Log, err)
		return
	}

	h.AuditLog.UserRegistered(ctx, r, u.ID, string(u.Role))
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("role", string(u.Role)))

	resp, err := h.signIn(w, r, u)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, resp)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, limitType := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email, limitType)
			ratelimit.TooMany(w)
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
			apierr.Write(w, h.Log, apierr.ErrInvalidCredentials)
			return
		}
		apierr.Write(w, h.Log, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		apierr.Write(w, h.Log, apierr.ErrInvalidCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)

	resp, err := h.signIn(w, r, *u)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, resp)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrUserNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, u)
}

// Logout handles POST /api/auth/logout. It clears the token cookie and the
// browser session; bearer tokens simply expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	if h.Sessions != nil {
		if err := h.Sessions.Clear(w, r); err != nil {
			h.Log.Warn("clear session failed", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// signIn issues a token for u and hands it to browser clients as both the
// token cookie and the session value.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u models.User) (authResponse, error) {
	token, exp, err := h.Tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		return authResponse{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	if h.Sessions != nil {
		if err := h.Sessions.SetToken(w, r, token); err != nil {
			h.Log.Warn("store token in session failed", zap.Error(err))
		}
	}
	return authResponse{Token: token, ExpiresAt: exp, User: u}, nil
}
