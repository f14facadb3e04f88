// internal/domain/models/request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestType identifies what a collaboration request asks for.
type RequestType string

const (
	RequestJoinProject RequestType = "join_project"
	RequestSupervisor  RequestType = "request_supervisor"
	RequestRecruiter   RequestType = "request_recruiter"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestJoinProject, RequestSupervisor, RequestRecruiter:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of a request. Pending is the only
// non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Request is a student's ask to join a project or to attach a supervisor or
// recruiter to it. ToUser is the only party allowed to decide it.
type Request struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestType RequestType        `bson:"request_type" json:"request_type"`
	FromUser    primitive.ObjectID `bson:"from_user" json:"from_user"`
	ToUser      primitive.ObjectID `bson:"to_user" json:"to_user"`
	Project     primitive.ObjectID `bson:"project" json:"project"`
	Status      RequestStatus      `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
