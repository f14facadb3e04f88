// internal/domain/models/complaint.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintStatus is the moderation state of a complaint.
type ComplaintStatus string

const (
	ComplaintPending  ComplaintStatus = "pending"
	ComplaintReviewed ComplaintStatus = "reviewed"
	ComplaintResolved ComplaintStatus = "resolved"
)

// Valid reports whether s is a known complaint status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintPending, ComplaintReviewed, ComplaintResolved:
		return true
	}
	return false
}

// Complaint is raised by the receiver of a private message. The message
// content and sender email are snapshotted so the complaint survives deletion
// of the message or the sender.
type Complaint struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MessageID       primitive.ObjectID `bson:"message_id" json:"message_id"`
	SenderEmail     string             `bson:"sender_email" json:"sender_email"`
	ComplainerEmail string             `bson:"complainer_email" json:"complainer_email"`
	Description     string             `bson:"description" json:"description"`
	MessageContent  string             `bson:"message_content" json:"message_content"`
	Status          ComplaintStatus    `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
