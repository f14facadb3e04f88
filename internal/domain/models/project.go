// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxProjectMembers is the hard cap on team size, owner included.
const MaxProjectMembers = 3

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "open"
	ProjectClosed    ProjectStatus = "closed"
	ProjectCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectOpen, ProjectClosed, ProjectCompleted:
		return true
	}
	return false
}

// CollaborationStatus is the state of a project's recruiter collaboration.
type CollaborationStatus string

const (
	CollaborationNone     CollaborationStatus = "none"
	CollaborationPending  CollaborationStatus = "pending"
	CollaborationApproved CollaborationStatus = "approved"
	CollaborationRejected CollaborationStatus = "rejected"
)

// RecruiterCollaboration tracks the (at most one) recruiter attached to a project.
type RecruiterCollaboration struct {
	Status    CollaborationStatus `bson:"status" json:"status"`
	Recruiter *primitive.ObjectID `bson:"recruiter" json:"recruiter"`
}

// Project is a final-year project owned by a student.
//
// NOTE:
//   - Owner is always in Members.
//   - len(Members) <= MaxMembers <= MaxProjectMembers.
type Project struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Title          string                 `bson:"title" json:"title"`
	TitleCI        string                 `bson:"title_ci" json:"-"`
	Description    string                 `bson:"description" json:"description"`
	RequiredSkills []string               `bson:"required_skills" json:"required_skills"`
	MaxMembers     int                    `bson:"max_members" json:"max_members"`
	Owner          primitive.ObjectID     `bson:"owner" json:"owner"`
	Members        []primitive.ObjectID   `bson:"members" json:"members"`
	Supervisor     *primitive.ObjectID    `bson:"supervisor" json:"supervisor"`
	Recruiter      RecruiterCollaboration `bson:"recruiter_collaboration" json:"recruiter_collaboration"`
	Status         ProjectStatus          `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsMember reports whether id is in p.Members.
func (p *Project) IsMember(id primitive.ObjectID) bool {
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// IsFull reports whether the project has no free member slot.
func (p *Project) IsFull() bool {
	return len(p.Members) >= p.MaxMembers
}

// HasSupervisor reports whether a supervisor is assigned.
func (p *Project) HasSupervisor() bool {
	return p.Supervisor != nil && !p.Supervisor.IsZero()
}

// HasApprovedRecruiter reports whether a recruiter collaboration is approved.
func (p *Project) HasApprovedRecruiter() bool {
	return p.Recruiter.Status == CollaborationApproved && p.Recruiter.Recruiter != nil
}
