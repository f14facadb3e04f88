package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/store/audit"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	audits := auditlog.New(audit.New(db), testLogger(), auditlog.Config{Admin: auditlog.ModeDB})

	if err := ensureAdmin(ctx, db, "Root@Uni.edu", "hunter22", audits, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "root@uni.edu"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created admin: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not match configured password: %v", err)
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventAdminBootstrapped})
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin_bootstrapped event, got %d", n)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, db, "root@uni.edu", "hunter22", nil, testLogger()); err != nil {
			t.Fatalf("run %d: ensureAdmin failed: %v", i, err)
		}
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 admin, got %d", n)
	}
}

func TestEnsureAdmin_LeavesNonAdminAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	stu := fx.CreateStudent(ctx, "Stu", "stu@uni.edu")

	if err := ensureAdmin(ctx, db, "stu@uni.edu", "hunter22", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	if got := fx.ReloadUser(ctx, stu.ID); got.Role != models.RoleStudent {
		t.Errorf("expected role to stay student, got %q", got.Role)
	}
}

func TestEnsureAdmin_Disabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "", "", nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	n, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("expected no users, got %d", n)
	}
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "fypcollab",
		JWTSecret:      strings.Repeat("j", 40),
		JWTTTL:         defaultJWTTTL,
		SessionKey:     strings.Repeat("s", 40),
		SessionName:    "fypcollab-session",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		ReconcileCron:  "@every 1h",
		AuditLog:       auditlog.ModeAll,
		ChatPageSize:   100,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid prod", "prod", func(*AppConfig) {}, false},
		{"short secret allowed in dev", "dev", func(c *AppConfig) { c.JWTSecret = "x" }, false},
		{"short jwt secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "x" }, true},
		{"short session key in prod", "prod", func(c *AppConfig) { c.SessionKey = "x" }, true},
		{"admin email without password", "dev", func(c *AppConfig) { c.AdminEmail = "a@b.c" }, true},
		{"admin password too short", "dev", func(c *AppConfig) { c.AdminEmail, c.AdminPassword = "a@b.c", "123" }, true},
		{"admin pair ok", "dev", func(c *AppConfig) { c.AdminEmail, c.AdminPassword = "a@b.c", "123456" }, false},
		{"unknown audit mode", "dev", func(c *AppConfig) { c.AuditLog = "syslog" }, true},
		{"zero burst", "dev", func(c *AppConfig) { c.RateLimitBurst = 0 }, true},
		{"zero chat page", "dev", func(c *AppConfig) { c.ChatPageSize = 0 }, true},
		{"zero ttl", "dev", func(c *AppConfig) { c.JWTTTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeedRequestID(t *testing.T) {
	var seen string
	h := seedRequestID(middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if len(seen) != 36 {
		t.Errorf("expected a UUID request id, got %q", seen)
	}
	if rec.Header().Get(middleware.RequestIDHeader) != seen {
		t.Errorf("response header %q != context id %q", rec.Header().Get(middleware.RequestIDHeader), seen)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-1" {
		t.Errorf("expected upstream id to be kept, got %q", seen)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := requestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	start := time.Now()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if time.Since(start) > time.Second {
		t.Error("logger middleware should not block")
	}
}
