// internal/app/store/sponsored/sponsoredstore.go
package sponsoredstore

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
	return &Store{c: db.Collection("sponsored_projects")}
}

func (s *Store) Create(ctx context.Context, sp models.SponsoredProject) (models.SponsoredProject, error) {
	now := time.Now().UTC()
	sp.ID = primitive.NewObjectID()
	if sp.Technologies == nil {
		sp.Technologies = []string{}
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sp); err != nil {
		return models.SponsoredProject{}, err
	}
	return sp, nil
}

// GetByID returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SponsoredProject, error) {
	var sp models.SponsoredProject
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// List returns listings newest first. A non-empty technology keeps only
// listings that mention it.
func (s *Store) List(ctx context.Context, technology string) ([]models.SponsoredProject, error) {
	filter := bson.M{}
	if technology != "" {
		filter["technologies"] = technology
	}
	return s.find(ctx, filter)
}

func (s *Store) ListByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.SponsoredProject, error) {
	return s.find(ctx, bson.M{"author": author})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.SponsoredProject, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SponsoredProject{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites a listing owned by author.
func (s *Store) Update(ctx context.Context, id, author primitive.ObjectID, title, description string, technologies []string) (bool, error) {
	if technologies == nil {
		technologies = []string{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "author": author},
		bson.M{"$set": bson.M{
			"title":        title,
			"description":  description,
			"technologies": technologies,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes a listing owned by author.
func (s *Store) Delete(ctx context.Context, id, author primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "author": author})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) DeleteByAuthor(ctx context.Context, author primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"author": author})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
