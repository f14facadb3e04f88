package collab

import (
	"context"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.uber.org/zap"
)

// DeleteUserResult counts what DeleteUser removed.
type DeleteUserResult struct {
	User            models.User
	ProjectsRetired int
	RequestsDeleted int64
	ChatDeleted     int64
	PrivateDeleted  int64
	ListingsDeleted int64
}

// DeleteUser removes a user and every trace of them: projects they own are
// retired, other projects drop them as member, supervisor or recruiter, and
// their requests, messages, conversations and listings are deleted. Admins
// cannot delete themselves or the last admin.
func (s *Service) DeleteUser(ctx context.Context, actor authz.Actor, userID string) (*DeleteUserResult, error) {
	if !actor.Can(authz.ManageUsers) {
		return nil, apierr.ErrRoleNotAllowed
	}
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, apierr.ErrSelfDelete
	}
	u, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin {
		n, err := s.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if n <= 1 {
			return nil, apierr.ErrLastAdmin
		}
	}

	res := &DeleteUserResult{User: *u}

	owned, err := s.projects.ListOwnedBy(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, pid := range owned {
		err := s.withProject(ctx, pid, func(ctx context.Context) error {
			_, err := s.retireProject(ctx, pid)
			return err
		})
		if err != nil {
			return nil, err
		}
		res.ProjectsRetired++
	}

	if err := s.projects.DetachUser(ctx, id); err != nil {
		return nil, err
	}
	if res.RequestsDeleted, err = s.requests.DeleteByUser(ctx, id); err != nil {
		return nil, err
	}
	if res.ChatDeleted, err = s.chat.DeleteBySender(ctx, id); err != nil {
		return nil, err
	}
	if res.PrivateDeleted, _, err = s.private.DeleteForUser(ctx, id); err != nil {
		return nil, err
	}
	switch u.Role {
	case models.RoleSupervisor:
		res.ListingsDeleted, err = s.ideas.DeleteByAuthor(ctx, id)
	case models.RoleRecruiter:
		res.ListingsDeleted, err = s.sponsored.DeleteByAuthor(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("user deleted",
		zap.String("user_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("role", string(u.Role)),
		zap.Int("projects_retired", res.ProjectsRetired),
		zap.Int64("requests_deleted", res.RequestsDeleted))
	return res, nil
}
