// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents students, supervisors, recruiters, and admins.
//
// NOTE:
//   - Role is fixed at registration. Only the profile matching the role is set.
//   - The four *Projects lists are back-references. The source of truth is the
//     owner/members/supervisor/recruiter fields on Project; see collab.Service
//     and the reconcile job.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // folded for case-insensitive search
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`

	Student    *StudentProfile    `bson:"student,omitempty" json:"student,omitempty"`
	Supervisor *SupervisorProfile `bson:"supervisor,omitempty" json:"supervisor,omitempty"`
	Recruiter  *RecruiterProfile  `bson:"recruiter,omitempty" json:"recruiter,omitempty"`

	OwnedProjects         []primitive.ObjectID `bson:"owned_projects" json:"owned_projects"`
	EnrolledProjects      []primitive.ObjectID `bson:"enrolled_projects" json:"enrolled_projects"`
	SupervisedProjects    []primitive.ObjectID `bson:"supervised_projects" json:"supervised_projects"`
	CollaboratingProjects []primitive.ObjectID `bson:"collaborating_projects" json:"collaborating_projects"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// StudentProfile holds student-only attributes.
type StudentProfile struct {
	Skills []string `bson:"skills" json:"skills"`
}

// SupervisorProfile holds supervisor-only attributes.
type SupervisorProfile struct {
	Expertise []string `bson:"expertise" json:"expertise"`
}

// RecruiterProfile holds recruiter-only attributes.
type RecruiterProfile struct {
	Company                string   `bson:"company" json:"company"`
	InterestedTechnologies []string `bson:"interested_technologies" json:"interested_technologies"`
}

// UserSummary is the public projection of a user used in composed views
// (request senders, chat participants, search results).
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Role  Role               `bson:"role" json:"role"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
