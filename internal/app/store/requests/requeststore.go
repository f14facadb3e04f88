// internal/app/store/requests/requeststore.go
package requeststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fypcollab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicatePending is returned when an identical request is already
// pending. It is raised by the partial unique index on pending requests.
var ErrDuplicatePending = errors.New("an identical request is already pending")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("requests")}
}

// Create inserts a pending request.
func (s *Store) Create(ctx context.Context, r models.Request) (models.Request, error) {
	r.ID = primitive.NewObjectID()
	r.Status = models.RequestPending
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Request{}, ErrDuplicatePending
		}
		return models.Request{}, err
	}
	return r, nil
}

// ExistsPending reports whether a pending request with the same
// (type, from, to, project) exists.
func (s *Store) ExistsPending(ctx context.Context, typ models.RequestType, from, to, project primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"request_type": typ,
		"from_user":    from,
		"to_user":      to,
		"project":      project,
		"status":       models.RequestPending,
	}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// GetByID loads a request. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var r models.Request
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Finalize moves a pending request to status. matched=false means the
// request was already decided (or deleted).
func (s *Store) Finalize(ctx context.Context, id primitive.ObjectID, status models.RequestStatus) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ListForStudent returns the student's outgoing requests plus pending join
// requests for the projects the student owns, newest first.
func (s *Store) ListForStudent(ctx context.Context, userID primitive.ObjectID, owned []primitive.ObjectID) ([]models.Request, error) {
	or := bson.A{bson.M{"from_user": userID}}
	if len(owned) > 0 {
		or = append(or, bson.M{
			"request_type": models.RequestJoinProject,
			"status":       models.RequestPending,
			"project":      bson.M{"$in": owned},
		})
	}
	return s.find(ctx, bson.M{"$or": or})
}

// ListIncomingPending returns pending requests addressed to userID, newest first.
func (s *Store) ListIncomingPending(ctx context.Context, userID primitive.ObjectID) ([]models.Request, error) {
	return s.find(ctx, bson.M{"to_user": userID, "status": models.RequestPending})
}

// DeleteByProject removes every request that references projectID.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes every request sent by or addressed to userID.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"from_user": userID},
		bson.M{"to_user": userID},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Request{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
