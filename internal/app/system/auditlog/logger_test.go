package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/store/audit"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic.
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.AdminBootstrapped(ctx, primitive.NewObjectID(), "admin@example.com")
}

func TestValidMode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"all", true},
		{"db", true},
		{"log", true},
		{"off", true},
		{"", false},
		{"ALL", false},
		{"mongo", false},
	}
	for _, tt := range tests {
		if got := auditlog.ValidMode(tt.in); got != tt.want {
			t.Errorf("ValidMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_ConfigRouting(t *testing.T) {
	tests := []struct {
		name   string
		config auditlog.Config
		want   int
	}{
		{"off", auditlog.Config{Auth: auditlog.ModeOff}, 0},
		{"log only", auditlog.Config{Auth: auditlog.ModeLog}, 0},
		{"db", auditlog.Config{Auth: auditlog.ModeDB}, 1},
		{"all", auditlog.Config{Auth: auditlog.ModeAll}, 1},
		{"unset", auditlog.Config{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			userID := primitive.NewObjectID()
			logger := auditlog.New(store, zap.NewNop(), tt.config)
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/api/auth/login", nil), userID, "a@example.com")

			events, err := store.GetByUser(ctx, userID, 10)
			if err != nil {
				t.Fatalf("GetByUser failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d stored events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestLogger_CategoriesRoutedIndependently(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  auditlog.ModeOff,
		Admin: auditlog.ModeDB,
	})

	actor, target := primitive.NewObjectID(), primitive.NewObjectID()
	req := httptest.NewRequest("DELETE", "/api/admin/users/"+target.Hex(), nil)
	logger.LoginSuccess(ctx, req, target, "a@example.com")
	logger.UserDeleted(ctx, req, actor, target, "student", 2)

	events, err := store.GetByUser(ctx, target, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the admin event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventUserDeleted {
		t.Errorf("EventType = %q, want %q", e.EventType, audit.EventUserDeleted)
	}
	if e.ActorID == nil || *e.ActorID != actor {
		t.Errorf("ActorID = %v, want %v", e.ActorID, actor)
	}
	if e.Details["projects_retired"] != "2" {
		t.Errorf("projects_retired = %q, want 2", e.Details["projects_retired"])
	}
}

func TestLogger_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.195, 10.0.0.1", "X-Real-IP": "192.168.1.1"}, "127.0.0.1:12345", "203.0.113.195"},
		{"real ip", map[string]string{"X-Real-IP": "192.168.1.100"}, "127.0.0.1:12345", "192.168.1.100"},
		{"remote addr", nil, "10.0.0.5:12345", "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			userID := primitive.NewObjectID()
			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB})

			req := httptest.NewRequest("POST", "/api/auth/login", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remote
			logger.LoginSuccess(ctx, req, userID, "a@example.com")

			events, _ := store.GetByUser(ctx, userID, 10)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].IP != tt.want {
				t.Errorf("IP: got %q, want %q", events[0].IP, tt.want)
			}
		})
	}
}
