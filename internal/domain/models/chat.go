// internal/domain/models/chat.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds chat and private message content (in runes).
const MaxMessageLength = 2000

// ChatMessage is one entry in a project's group chat log.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Project   primitive.ObjectID `bson:"project" json:"project"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Conversation is a private two-party thread. Participants is stored sorted
// and Pair joins their hex ids, so the pair is unique regardless of who
// wrote first.
type Conversation struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Pair          string               `bson:"pair" json:"-"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"`
	LastMessage   *primitive.ObjectID  `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastUpdatedAt time.Time            `bson:"last_updated_at" json:"last_updated_at"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
}

// Other returns the participant that is not self.
func (c *Conversation) Other(self primitive.ObjectID) primitive.ObjectID {
	for _, p := range c.Participants {
		if p != self {
			return p
		}
	}
	return primitive.NilObjectID
}

// PairKey orders two user ids and returns them with their joined key.
func PairKey(a, b primitive.ObjectID) (string, []primitive.ObjectID) {
	if b.Hex() < a.Hex() {
		a, b = b, a
	}
	return a.Hex() + ":" + b.Hex(), []primitive.ObjectID{a, b}
}

// PrivateMessage is one entry in a conversation.
type PrivateMessage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Conversation primitive.ObjectID `bson:"conversation" json:"conversation"`
	Sender       primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver     primitive.ObjectID `bson:"receiver" json:"receiver"`
	Content      string             `bson:"content" json:"content"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}
