package collab

import (
	"context"

	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RemoveMember lets the owner drop a member from the team.
func (s *Service) RemoveMember(ctx context.Context, actor authz.Actor, projectID, memberID string) (*models.Project, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}
	mid, err := parseID(memberID)
	if err != nil {
		return nil, err
	}

	err = s.withProject(ctx, pid, func(ctx context.Context) error {
		p, err := s.ownedProject(ctx, actor, pid)
		if err != nil {
			return err
		}
		if mid == p.Owner {
			return apierr.ErrCannotRemoveOwner
		}
		if !p.IsMember(mid) {
			return apierr.ErrMemberNotFound
		}
		ok, err := s.projects.RemoveMember(ctx, pid, mid)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.ErrMemberNotFound
		}
		return s.unlink(ctx, pid, mid, userstore.EnrolledProjects, "re-add member", func(ctx context.Context) error {
			_, err := s.projects.AddMember(ctx, pid, mid)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, pid)
}

// RemoveSupervisor lets the owner unassign the project's supervisor.
func (s *Service) RemoveSupervisor(ctx context.Context, actor authz.Actor, projectID string) (*models.Project, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	err = s.withProject(ctx, pid, func(ctx context.Context) error {
		p, err := s.ownedProject(ctx, actor, pid)
		if err != nil {
			return err
		}
		if !p.HasSupervisor() {
			return apierr.ErrNoSupervisor
		}
		sup := *p.Supervisor
		ok, err := s.projects.ClearSupervisor(ctx, pid, sup)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.ErrNoSupervisor
		}
		return s.unlink(ctx, pid, sup, userstore.SupervisedProjects, "restore supervisor", func(ctx context.Context) error {
			_, err := s.projects.SetSupervisor(ctx, pid, sup)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, pid)
}

// RemoveRecruiter lets the owner end an approved recruiter collaboration.
// The collaboration resets to "none".
func (s *Service) RemoveRecruiter(ctx context.Context, actor authz.Actor, projectID string) (*models.Project, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	err = s.withProject(ctx, pid, func(ctx context.Context) error {
		p, err := s.ownedProject(ctx, actor, pid)
		if err != nil {
			return err
		}
		if !p.HasApprovedRecruiter() {
			return apierr.ErrNoRecruiter
		}
		prev := p.Recruiter
		rid := *prev.Recruiter
		ok, err := s.projects.ClearRecruiter(ctx, pid, rid)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.ErrNoRecruiter
		}
		return s.unlink(ctx, pid, rid, userstore.CollaboratingProjects, "restore collaboration", func(ctx context.Context) error {
			return s.projects.RestoreCollaboration(ctx, pid, prev)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, pid)
}

func (s *Service) ownedProject(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Project, error) {
	p, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Owner != actor.ID {
		return nil, apierr.ErrNotOwner
	}
	return p, nil
}

// unlink drops the user's back-reference after a project-side removal, and
// restores the project if that fails.
func (s *Service) unlink(ctx context.Context, pid, uid primitive.ObjectID, ref userstore.BackRef, what string, undoProject func(context.Context) error) error {
	if err := s.users.PullProjectRef(ctx, uid, ref, pid); err != nil {
		s.undo(ctx, what, undoProject)
		return err
	}
	return nil
}
