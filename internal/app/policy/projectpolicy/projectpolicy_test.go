package projectpolicy_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/policy/projectpolicy"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHasProjectAccess(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	supervisor := primitive.NewObjectID()
	recruiter := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	withCollab := func(status models.CollaborationStatus) *models.Project {
		return &models.Project{
			Owner:      owner,
			Members:    []primitive.ObjectID{owner, member},
			Supervisor: &supervisor,
			Recruiter:  models.RecruiterCollaboration{Status: status, Recruiter: &recruiter},
		}
	}

	tests := []struct {
		name    string
		project *models.Project
		user    primitive.ObjectID
		want    bool
	}{
		{"owner", withCollab(models.CollaborationNone), owner, true},
		{"member", withCollab(models.CollaborationNone), member, true},
		{"supervisor", withCollab(models.CollaborationNone), supervisor, true},
		{"approved recruiter", withCollab(models.CollaborationApproved), recruiter, true},
		{"pending recruiter", withCollab(models.CollaborationPending), recruiter, false},
		{"rejected recruiter", withCollab(models.CollaborationRejected), recruiter, false},
		{"stranger", withCollab(models.CollaborationApproved), stranger, false},
		{"nil project", nil, owner, false},
		{"zero user", withCollab(models.CollaborationNone), primitive.NilObjectID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := projectpolicy.HasProjectAccess(tt.project, tt.user); got != tt.want {
				t.Errorf("HasProjectAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAccessProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateStudent(ctx, "Owner", "owner@example.com")
	outsider := fx.CreateStudent(ctx, "Outsider", "outsider@example.com")
	p := fx.CreateProject(ctx, "Chat Project", owner)

	ok, err := projectpolicy.CanAccessProject(ctx, db, p.ID, owner.ID)
	if err != nil || !ok {
		t.Errorf("owner access = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = projectpolicy.CanAccessProject(ctx, db, p.ID, outsider.ID)
	if err != nil || ok {
		t.Errorf("outsider access = (%v, %v), want (false, nil)", ok, err)
	}
	if err := projectpolicy.RequireAccess(ctx, db, p.ID, outsider.ID); !errors.Is(err, apierr.ErrNoChatAccess) {
		t.Errorf("RequireAccess(outsider) = %v, want ErrNoChatAccess", err)
	}

	// Access is evaluated against current state: a removed member loses it at once.
	if _, err := db.Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$push": bson.M{"members": outsider.ID}}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := projectpolicy.CanAccessProject(ctx, db, p.ID, outsider.ID); !ok {
		t.Error("new member should have access")
	}
	if _, err := db.Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$pull": bson.M{"members": outsider.ID}}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := projectpolicy.CanAccessProject(ctx, db, p.ID, outsider.ID); ok {
		t.Error("removed member should lose access immediately")
	}

	_, err = projectpolicy.CanAccessProject(ctx, db, primitive.NewObjectID(), owner.ID)
	if !errors.Is(err, apierr.ErrProjectNotFound) {
		t.Errorf("missing project err = %v, want ErrProjectNotFound", err)
	}
	if apierr.KindOf(err) != apierr.KindNotFound {
		t.Errorf("missing project kind = %v, want NotFound", apierr.KindOf(err))
	}
}
