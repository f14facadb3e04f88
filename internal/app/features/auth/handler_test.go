package authfeature_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authfeature "github.com/dalemusser/fypcollab/internal/app/features/auth"
	"github.com/dalemusser/fypcollab/internal/app/store/audit"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/indexes"
	"github.com/dalemusser/fypcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

type fixture struct {
	db      *mongo.Database
	handler *authfeature.Handler
	router  http.Handler
	tokens  *auth.Tokens
}

func setup(t *testing.T, limiter *ratelimit.LoginLimiter) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	tokens, err := auth.NewTokens("test-jwt-secret-must-be-32-chars-long!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	mgr := auth.NewManager(tokens, nil, userstore.NewFetcher(db), zap.NewNop())
	audits := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})

	h := authfeature.NewHandler(db, mgr, limiter, audits, false, zap.NewNop())
	h.HashCost = bcrypt.MinCost

	r := chi.NewRouter()
	r.Use(mgr.LoadUser)
	r.Mount("/api/auth", authfeature.Routes(h))
	return fixture{db: db, handler: h, router: r, tokens: tokens}
}

func (f fixture) do(method, target string, body any, bearer string) *testutil.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type authBody struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegister_IssuesTokenAndCookie(t *testing.T) {
	f := setup(t, nil)

	rec := f.do("POST", "/api/auth/register", map[string]string{
		"name": "  Ada Lovelace ", "email": "Ada@Example.com", "password": "secret1", "role": "student",
	}, "")
	rec.AssertStatus(t, http.StatusCreated)

	var got authBody
	rec.DecodeJSON(t, &got)
	if got.User.Email != "ada@example.com" || got.User.Name != "Ada Lovelace" {
		t.Errorf("user not normalized: %+v", got.User)
	}
	if got.User.Role != models.RoleStudent || got.User.Student == nil {
		t.Errorf("student profile missing: %+v", got.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not expose the password hash")
	}

	claims, err := f.tokens.Parse(got.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != got.User.ID.Hex() || claims.Role != models.RoleStudent {
		t.Errorf("claims = %+v", claims)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != got.Token || !cookie.HttpOnly {
		t.Errorf("token cookie = %+v", cookie)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := setup(t, nil)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"admin cannot self-register", map[string]string{"name": "A", "email": "a@x.io", "password": "secret1", "role": "admin"}, http.StatusBadRequest},
		{"short password", map[string]string{"name": "A", "email": "a@x.io", "password": "12345", "role": "student"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "secret1", "role": "student"}, http.StatusBadRequest},
		{"blank name", map[string]string{"name": "   ", "email": "a@x.io", "password": "secret1", "role": "student"}, http.StatusBadRequest},
		{"unknown role", map[string]string{"name": "A", "email": "a@x.io", "password": "secret1", "role": "dean"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.do("POST", "/api/auth/register", tt.body, "").AssertStatus(t, tt.want)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setup(t, nil)
	body := map[string]string{"name": "Sam", "email": "sam@x.io", "password": "secret1", "role": "supervisor"}

	f.do("POST", "/api/auth/register", body, "").AssertStatus(t, http.StatusCreated)

	body["email"] = "SAM@x.io"
	rec := f.do("POST", "/api/auth/register", body, "")
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertErrorCode(t, "duplicate_email")
}

func TestLogin(t *testing.T) {
	f := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, f.db)
	u := fx.CreateRecruiter(ctx, "Rita", "rita@corp.io")

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do("POST", "/api/auth/login", map[string]string{"email": "rita@corp.io", "password": "nope"}, "")
		rec.AssertStatus(t, http.StatusUnauthorized)
		rec.AssertErrorCode(t, "invalid_credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := f.do("POST", "/api/auth/login", map[string]string{"email": "ghost@corp.io", "password": "x"}, "")
		rec.AssertStatus(t, http.StatusUnauthorized)
		rec.AssertErrorCode(t, "invalid_credentials")
	})

	t.Run("success then me", func(t *testing.T) {
		rec := f.do("POST", "/api/auth/login", map[string]string{"email": "RITA@corp.io", "password": testutil.TestPassword}, "")
		rec.AssertStatus(t, http.StatusOK)

		var got authBody
		rec.DecodeJSON(t, &got)
		if got.User.ID != u.ID {
			t.Fatalf("logged in as %s, want %s", got.User.ID.Hex(), u.ID.Hex())
		}

		me := f.do("GET", "/api/auth/me", nil, got.Token)
		me.AssertStatus(t, http.StatusOK)
		var meUser models.User
		me.DecodeJSON(t, &meUser)
		if meUser.ID != u.ID || meUser.Role != models.RoleRecruiter {
			t.Errorf("me = %+v", meUser)
		}
	})

	if n := fx.Count(ctx, "audit_events", bson.M{"event_type": audit.EventLoginFailedWrongPassword}); n != 1 {
		t.Errorf("wrong-password audit events = %d, want 1", n)
	}
	if n := fx.Count(ctx, "audit_events", bson.M{"event_type": audit.EventLoginSuccess}); n != 1 {
		t.Errorf("login success audit events = %d, want 1", n)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(0.001, 1)
	defer limiter.Close()
	f := setup(t, limiter)

	body := map[string]string{"email": "x@y.io", "password": "whatever"}
	f.do("POST", "/api/auth/login", body, "").AssertStatus(t, http.StatusUnauthorized)
	f.do("POST", "/api/auth/login", body, "").AssertStatus(t, http.StatusTooManyRequests)
}

func TestMe_RequiresSignIn(t *testing.T) {
	f := setup(t, nil)
	f.do("GET", "/api/auth/me", nil, "").AssertStatus(t, http.StatusUnauthorized)
	f.do("GET", "/api/auth/me", nil, "garbage").AssertStatus(t, http.StatusUnauthorized)
}

func TestMe_DeletedUserLosesAccess(t *testing.T) {
	f := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, f.db)
	u := fx.CreateStudent(ctx, "Gone", "gone@x.io")

	token, _, err := f.tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	f.do("GET", "/api/auth/me", nil, token).AssertStatus(t, http.StatusOK)

	if _, err := f.db.Collection("users").DeleteOne(ctx, bson.M{"_id": u.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	f.do("GET", "/api/auth/me", nil, token).AssertStatus(t, http.StatusUnauthorized)
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := setup(t, nil)

	rec := f.do("POST", "/api/auth/logout", nil, "")
	rec.AssertStatus(t, http.StatusNoContent)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			found = true
			if c.MaxAge >= 0 || c.Value != "" {
				t.Errorf("cookie not expired: %+v", c)
			}
		}
	}
	if !found {
		t.Error("logout should expire the token cookie")
	}
}
