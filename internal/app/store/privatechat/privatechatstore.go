// internal/app/store/privatechat/privatechatstore.go
package privatechatstore

import (
	"context"
	"time"

	"github.com/dalemusser/fypcollab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	convs *mongo.Collection
	msgs  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		convs: db.Collection("conversations"),
		msgs:  db.Collection("private_messages"),
	}
}

// UpsertConversation returns the conversation between a and b, creating it
// on first contact. Two concurrent first messages converge on one document.
func (s *Store) UpsertConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	pair, participants := models.PairKey(a, b)
	now := time.Now().UTC()

	upsert := func() (*models.Conversation, error) {
		var c models.Conversation
		err := s.convs.FindOneAndUpdate(ctx,
			bson.M{"pair": pair},
			bson.M{"$setOnInsert": bson.M{
				"pair":            pair,
				"participants":    participants,
				"last_updated_at": now,
				"created_at":      now,
			}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&c)
		if err != nil {
			return nil, err
		}
		return &c, nil
	}

	c, err := upsert()
	if wafflemongo.IsDup(err) {
		// Lost the insert race; the winner's document now exists.
		return upsert()
	}
	return c, err
}

// FindConversation returns the conversation between a and b.
// Returns mongo.ErrNoDocuments if they never talked.
func (s *Store) FindConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	pair, _ := models.PairKey(a, b)
	var c models.Conversation
	if err := s.convs.FindOne(ctx, bson.M{"pair": pair}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns userID's conversations, most recently active first.
func (s *Store) ListConversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.convs.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Conversation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMessage stores m and advances the conversation's last message pointer.
func (s *Store) AddMessage(ctx context.Context, m models.PrivateMessage) (models.PrivateMessage, error) {
	m.ID = primitive.NewObjectID()
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if _, err := s.msgs.InsertOne(ctx, m); err != nil {
		return models.PrivateMessage{}, err
	}
	_, err := s.convs.UpdateByID(ctx, m.Conversation, bson.M{"$set": bson.M{
		"last_message":    m.ID,
		"last_updated_at": m.Timestamp,
	}})
	if err != nil {
		return models.PrivateMessage{}, err
	}
	return m, nil
}

// Messages returns a conversation's messages in ascending time order.
func (s *Store) Messages(ctx context.Context, conversationID primitive.ObjectID) ([]models.PrivateMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.msgs.Find(ctx, bson.M{"conversation": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PrivateMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMessage loads one message. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetMessage(ctx context.Context, id primitive.ObjectID) (*models.PrivateMessage, error) {
	var m models.PrivateMessage
	if err := s.msgs.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LastMessages resolves last-message pointers to messages.
func (s *Store) LastMessages(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PrivateMessage, error) {
	out := make(map[primitive.ObjectID]models.PrivateMessage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.msgs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var m models.PrivateMessage
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, cur.Err()
}

// DeleteForUser removes every message userID sent or received and every
// conversation it takes part in.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (messages, conversations int64, err error) {
	mres, err := s.msgs.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"sender": userID},
		bson.M{"receiver": userID},
	}})
	if err != nil {
		return 0, 0, err
	}
	cres, err := s.convs.DeleteMany(ctx, bson.M{"participants": userID})
	if err != nil {
		return mres.DeletedCount, 0, err
	}
	return mres.DeletedCount, cres.DeletedCount, nil
}
