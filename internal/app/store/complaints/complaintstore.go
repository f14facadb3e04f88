// internal/app/store/complaints/complaintstore.go
package complaintstore

import (
	"context"
	"time"

	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("complaints")}
}

// Create stores a new pending complaint.
func (s *Store) Create(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Status = models.ComplaintPending
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Complaint{}, err
	}
	return c, nil
}

// GetByID returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByComplainer returns complaints filed by email, newest first.
func (s *Store) ListByComplainer(ctx context.Context, email string) ([]models.Complaint, error) {
	return s.find(ctx, bson.M{"complainer_email": email})
}

// ListAgainst returns complaints about messages sent by email, newest first.
func (s *Store) ListAgainst(ctx context.Context, email string) ([]models.Complaint, error) {
	return s.find(ctx, bson.M{"sender_email": email})
}

// ListAll returns every complaint, optionally narrowed to one status.
func (s *Store) ListAll(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Complaint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Complaint{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves a complaint to status and returns the previous status.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ComplaintStatus) (models.ComplaintStatus, error) {
	var before models.Complaint
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return "", err
	}
	return before.Status, nil
}

// CountByStatus returns complaint counts keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[models.ComplaintStatus]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status models.ComplaintStatus `bson:"_id"`
			N      int64                  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
