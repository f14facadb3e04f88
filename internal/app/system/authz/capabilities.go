// internal/app/system/authz/capabilities.go
package authz

import "github.com/dalemusser/fypcollab/internal/domain/models"

// Capability is an action a role may be allowed to perform.
type Capability int

const (
	// CreateProjects: create projects and own them.
	CreateProjects Capability = iota
	// SendRequests: file join/supervisor/recruiter requests.
	SendRequests
	// SuperviseProjects: be the target of request_supervisor.
	SuperviseProjects
	// CollaborateOnProjects: be the target of request_recruiter.
	CollaborateOnProjects
	// PublishIdeas: manage supervisor idea listings.
	PublishIdeas
	// PublishSponsored: manage sponsored project listings.
	PublishSponsored
	// ManageUsers: list and delete users, delete any project.
	ManageUsers
	// ModerateComplaints: review complaints.
	ModerateComplaints
	// EditSkills: maintain a student skill profile.
	EditSkills
)

var grants = map[models.Role]map[Capability]bool{
	models.RoleStudent: {
		CreateProjects: true,
		SendRequests:   true,
		EditSkills:     true,
	},
	models.RoleSupervisor: {
		SuperviseProjects: true,
		PublishIdeas:      true,
	},
	models.RoleRecruiter: {
		CollaborateOnProjects: true,
		PublishSponsored:      true,
	},
	models.RoleAdmin: {
		ManageUsers:        true,
		ModerateComplaints: true,
	},
}

// Can reports whether role is granted c. Unknown roles are granted nothing.
func Can(role models.Role, c Capability) bool {
	return grants[role][c]
}

// TargetRoleFor returns the role a request of type t must be addressed to.
func TargetRoleFor(t models.RequestType) (models.Role, bool) {
	switch t {
	case models.RequestJoinProject:
		return models.RoleStudent, true
	case models.RequestSupervisor:
		return models.RoleSupervisor, true
	case models.RequestRecruiter:
		return models.RoleRecruiter, true
	}
	return "", false
}
