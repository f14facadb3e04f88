package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it again on the same request adds to the existing params.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role and an empty profile
// matching that role. The password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:                    primitive.NewObjectID(),
		Name:                  name,
		NameCI:                text.Fold(name),
		Email:                 strings.ToLower(email),
		PasswordHash:          string(hash),
		Role:                  role,
		OwnedProjects:         []primitive.ObjectID{},
		EnrolledProjects:      []primitive.ObjectID{},
		SupervisedProjects:    []primitive.ObjectID{},
		CollaboratingProjects: []primitive.ObjectID{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	switch role {
	case models.RoleStudent:
		user.Student = &models.StudentProfile{Skills: []string{}}
	case models.RoleSupervisor:
		user.Supervisor = &models.SupervisorProfile{Expertise: []string{}}
	case models.RoleRecruiter:
		user.Recruiter = &models.RecruiterProfile{InterestedTechnologies: []string{}}
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent creates a test student.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleStudent)
}

// CreateSupervisor creates a test supervisor.
func (f *Fixtures) CreateSupervisor(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleSupervisor)
}

// CreateRecruiter creates a test recruiter.
func (f *Fixtures) CreateRecruiter(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleRecruiter)
}

// CreateAdmin creates a test admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateProject creates an open project owned by owner with the default
// capacity, and records it in the owner's owned and enrolled lists.
func (f *Fixtures) CreateProject(ctx context.Context, title string, owner models.User) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:             primitive.NewObjectID(),
		Title:          title,
		TitleCI:        text.Fold(title),
		Description:    "Test project description",
		RequiredSkills: []string{},
		MaxMembers:     models.MaxProjectMembers,
		Owner:          owner.ID,
		Members:        []primitive.ObjectID{owner.ID},
		Recruiter:      models.RecruiterCollaboration{Status: models.CollaborationNone},
		Status:         models.ProjectOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	_, err := f.db.Collection("users").UpdateByID(ctx, owner.ID, bson.M{
		"$addToSet": bson.M{"owned_projects": p.ID, "enrolled_projects": p.ID},
	})
	if err != nil {
		f.t.Fatalf("failed to link project owner: %v", err)
	}
	return p
}

// ReloadUser reads a user back from the database.
func (f *Fixtures) ReloadUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("reload user %s: %v", id.Hex(), err)
	}
	return u
}

// ReloadProject reads a project back from the database.
func (f *Fixtures) ReloadProject(ctx context.Context, id primitive.ObjectID) models.Project {
	f.t.Helper()
	var p models.Project
	if err := f.db.Collection("projects").FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		f.t.Fatalf("reload project %s: %v", id.Hex(), err)
	}
	return p
}

// Count returns the number of documents in coll matching filter.
func (f *Fixtures) Count(ctx context.Context, coll string, filter bson.M) int64 {
	f.t.Helper()
	n, err := f.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		f.t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
