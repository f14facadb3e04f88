// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"context"
	"errors"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HasProjectAccess reports whether userID may see the project's group chat:
// any member, the assigned supervisor, or the recruiter of an approved
// collaboration. A pending or rejected recruiter has no access.
func HasProjectAccess(p *models.Project, userID primitive.ObjectID) bool {
	if p == nil || userID.IsZero() {
		return false
	}
	if p.IsMember(userID) {
		return true
	}
	if p.Supervisor != nil && *p.Supervisor == userID {
		return true
	}
	return p.HasApprovedRecruiter() && *p.Recruiter.Recruiter == userID
}

// CanAccessProject loads the project fresh on every call, so removals take
// effect on the very next chat read or post.
// Returns apierr.ErrProjectNotFound when the project does not exist, letting
// callers distinguish "no such project" from (false, nil) "not allowed".
func CanAccessProject(ctx context.Context, db *mongo.Database, projectID, userID primitive.ObjectID) (bool, error) {
	var p models.Project
	err := db.Collection("projects").FindOne(ctx,
		bson.M{"_id": projectID},
		options.FindOne().SetProjection(bson.M{
			"members": 1, "supervisor": 1, "recruiter_collaboration": 1,
		}),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, apierr.ErrProjectNotFound
	}
	if err != nil {
		return false, err
	}
	return HasProjectAccess(&p, userID), nil
}

// RequireAccess is CanAccessProject folded into a single error:
// apierr.ErrNoChatAccess when the user is not allowed.
func RequireAccess(ctx context.Context, db *mongo.Database, projectID, userID primitive.ObjectID) error {
	ok, err := CanAccessProject(ctx, db, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.ErrNoChatAccess
	}
	return nil
}
