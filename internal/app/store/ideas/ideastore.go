// internal/app/store/ideas/ideastore.go
package ideastore

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
	return &Store{c: db.Collection("supervisor_ideas")}
}

func (s *Store) Create(ctx context.Context, idea models.SupervisorIdea) (models.SupervisorIdea, error) {
	now := time.Now().UTC()
	idea.ID = primitive.NewObjectID()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, idea); err != nil {
		return models.SupervisorIdea{}, err
	}
	return idea, nil
}

// GetByID returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SupervisorIdea, error) {
	var idea models.SupervisorIdea
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// List returns ideas newest first. A non-empty domain narrows the result.
func (s *Store) List(ctx context.Context, domain string) ([]models.SupervisorIdea, error) {
	filter := bson.M{}
	if domain != "" {
		filter["domain"] = domain
	}
	return s.find(ctx, filter)
}

func (s *Store) ListByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.SupervisorIdea, error) {
	return s.find(ctx, bson.M{"author": author})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.SupervisorIdea, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SupervisorIdea{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites an idea owned by author. matched is false when the idea
// does not exist or belongs to someone else.
func (s *Store) Update(ctx context.Context, id, author primitive.ObjectID, title, description, domain string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "author": author},
		bson.M{"$set": bson.M{
			"title":       title,
			"description": description,
			"domain":      domain,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes an idea owned by author.
func (s *Store) Delete(ctx context.Context, id, author primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "author": author})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteByAuthor removes every idea author published.
func (s *Store) DeleteByAuthor(ctx context.Context, author primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"author": author})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
