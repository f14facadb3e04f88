package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestCan(t *testing.T) {
	tests := []struct {
		role models.Role
		cap  authz.Capability
		want bool
	}{
		{models.RoleStudent, authz.SendRequests, true},
		{models.RoleStudent, authz.CreateProjects, true},
		{models.RoleStudent, authz.ManageUsers, false},
		{models.RoleSupervisor, authz.SendRequests, false},
		{models.RoleSupervisor, authz.SuperviseProjects, true},
		{models.RoleRecruiter, authz.CollaborateOnProjects, true},
		{models.RoleRecruiter, authz.PublishIdeas, false},
		{models.RoleAdmin, authz.ManageUsers, true},
		{models.RoleAdmin, authz.CreateProjects, false},
		{models.Role("visitor"), authz.SendRequests, false},
	}
	for _, tt := range tests {
		if got := authz.Can(tt.role, tt.cap); got != tt.want {
			t.Errorf("Can(%s, %d) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestTargetRoleFor(t *testing.T) {
	if r, ok := authz.TargetRoleFor(models.RequestSupervisor); !ok || r != models.RoleSupervisor {
		t.Errorf("supervisor request target = %v, %v", r, ok)
	}
	if _, ok := authz.TargetRoleFor("bogus"); ok {
		t.Error("unknown request type should have no target role")
	}
}

func TestIsAdmin_True_ForAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: models.RoleAdmin})

	if !authz.IsAdmin(req) {
		t.Error("expected IsAdmin to return true for admin user")
	}
}

func TestIsAdmin_False_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin to return false without a user")
	}
}

func TestActorFrom_MalformedIDFailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-id", Role: models.RoleAdmin})

	if _, ok := authz.ActorFrom(req); ok {
		t.Error("expected malformed id to yield no actor")
	}
	if authz.IsAdmin(req) {
		t.Error("expected malformed id not to be treated as admin")
	}
}

func TestHasAnyRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: models.RoleRecruiter})

	if !authz.HasAnyRole(req, models.RoleSupervisor, models.RoleRecruiter) {
		t.Error("expected recruiter to match")
	}
	if authz.HasAnyRole(req, models.RoleStudent) {
		t.Error("expected recruiter not to match student")
	}
}

func TestRequireCapability(t *testing.T) {
	h := authz.RequireCapability(authz.SendRequests)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		role models.Role
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"supervisor", models.RoleSupervisor, http.StatusForbidden},
		{"student", models.RoleStudent, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/requests", nil)
			if tt.role != "" {
				req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: tt.role})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
