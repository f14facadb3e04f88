package collab

import (
	"context"

	projectstore "github.com/dalemusser/fypcollab/internal/app/store/projects"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fypcollab/internal/app/system/normalize"
	"github.com/dalemusser/fypcollab/internal/app/system/paging"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProjectInput is the payload for CreateProject. MaxMembers <= 0 means the default.
type ProjectInput struct {
	Title          string
	Description    string
	RequiredSkills []string
	MaxMembers     int
}

// ProjectPatch holds the owner-editable fields. Nil fields are unchanged.
type ProjectPatch struct {
	Title          *string
	Description    *string
	RequiredSkills []string
	Status         *models.ProjectStatus
	MaxMembers     *int
}

// ProjectView is a project with its people resolved for display.
type ProjectView struct {
	models.Project
	OwnerInfo      *models.UserSummary  `json:"owner_info,omitempty"`
	MemberInfo     []models.UserSummary `json:"member_info"`
	SupervisorInfo *models.UserSummary  `json:"supervisor_info,omitempty"`
	RecruiterInfo  *models.UserSummary  `json:"recruiter_info,omitempty"`
}

// CreateProject creates a project owned by actor and records it in the
// owner's owned and enrolled lists.
func (s *Service) CreateProject(ctx context.Context, actor authz.Actor, in ProjectInput) (*models.Project, error) {
	if !actor.Can(authz.CreateProjects) {
		return nil, apierr.ErrRoleNotAllowed
	}
	title := normalize.Name(in.Title)
	if title == "" {
		return nil, apierr.Invalid.WithMessage("title is required")
	}

	var created models.Project
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		p, err := s.projects.Create(ctx, models.Project{
			Title:          title,
			Description:    htmlsanitize.Sanitize(in.Description),
			RequiredSkills: in.RequiredSkills,
			MaxMembers:     in.MaxMembers,
			Owner:          actor.ID,
		})
		if err != nil {
			return err
		}
		for _, ref := range []userstore.BackRef{userstore.OwnedProjects, userstore.EnrolledProjects} {
			if err := s.users.AddProjectRef(ctx, actor.ID, ref, p.ID); err != nil {
				s.undo(ctx, "delete new project", func(ctx context.Context) error {
					_, err := s.retireProject(ctx, p.ID)
					return err
				})
				return err
			}
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("project created",
		zap.String("project_id", created.ID.Hex()),
		zap.String("owner_id", actor.ID.Hex()))
	return &created, nil
}

// UpdateProject applies patch for the project owner. Membership fields are
// never editable here; MaxMembers stays within [current team size, 3].
func (s *Service) UpdateProject(ctx context.Context, actor authz.Actor, projectID string, patch ProjectPatch) (*models.Project, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apierr.ErrInvalidStatus
	}
	if patch.MaxMembers != nil && (*patch.MaxMembers < 1 || *patch.MaxMembers > models.MaxProjectMembers) {
		return nil, apierr.Invalid.WithMessage("max members must be between 1 and %d", models.MaxProjectMembers)
	}
	if patch.Title != nil && normalize.Name(*patch.Title) == "" {
		return nil, apierr.Invalid.WithMessage("title cannot be blank")
	}

	err = s.withProject(ctx, id, func(ctx context.Context) error {
		p, err := s.loadProject(ctx, id)
		if err != nil {
			return err
		}
		if p.Owner != actor.ID {
			return apierr.ErrNotOwner
		}
		if patch.MaxMembers != nil && *patch.MaxMembers < len(p.Members) {
			return apierr.ErrMaxBelowMembers
		}

		upd := projectstore.Update{
			Title:          patch.Title,
			RequiredSkills: patch.RequiredSkills,
			Status:         patch.Status,
			MaxMembers:     patch.MaxMembers,
		}
		if patch.Description != nil {
			d := htmlsanitize.Sanitize(*patch.Description)
			upd.Description = &d
		}
		ok, err := s.projects.Update(ctx, id, upd)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.ErrMaxBelowMembers
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, id)
}

// GetProject returns one project with its people resolved.
func (s *Service) GetProject(ctx context.Context, projectID string) (*ProjectView, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.viewProjects(ctx, []models.Project{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListProjects returns a keyset page of projects ordered by title.
func (s *Service) ListProjects(ctx context.Context, f projectstore.ListFilter, p paging.Params) (paging.Page[models.Project], error) {
	return s.projects.List(ctx, f, p)
}

// ListMyProjects returns the projects actor owns, belongs to, supervises or
// collaborates on as an approved recruiter.
func (s *Service) ListMyProjects(ctx context.Context, actor authz.Actor) ([]ProjectView, error) {
	rows, err := s.projects.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.viewProjects(ctx, rows)
}

// DeleteProject removes a project and everything that points at it. Only the
// owner or an admin may do this.
func (s *Service) DeleteProject(ctx context.Context, actor authz.Actor, projectID string) (*models.Project, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	var deleted *models.Project
	err = s.withProject(ctx, id, func(ctx context.Context) error {
		p, err := s.loadProject(ctx, id)
		if err != nil {
			return err
		}
		if p.Owner != actor.ID && !actor.IsAdmin() {
			return apierr.ErrNotOwner
		}
		res, err := s.retireProject(ctx, id)
		if err != nil {
			return err
		}
		s.log.Info("project deleted",
			zap.String("project_id", id.Hex()),
			zap.String("actor_id", actor.ID.Hex()),
			zap.Int64("users_unlinked", res.UsersUnlinked),
			zap.Int64("requests_deleted", res.RequestsDeleted),
			zap.Int64("messages_deleted", res.MessagesDeleted))
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RetireResult counts what retireProject removed.
type RetireResult struct {
	UsersUnlinked   int64
	RequestsDeleted int64
	MessagesDeleted int64
	ProjectDeleted  bool
}

// retireProject pulls the project from every user's back-references, deletes
// its requests and group chat, then the project itself. Running it again on
// already-cleaned state changes nothing. Callers hold the project lock.
func (s *Service) retireProject(ctx context.Context, id primitive.ObjectID) (RetireResult, error) {
	var res RetireResult
	var err error
	if res.UsersUnlinked, err = s.users.PullProjectEverywhere(ctx, id); err != nil {
		return res, err
	}
	if res.RequestsDeleted, err = s.requests.DeleteByProject(ctx, id); err != nil {
		return res, err
	}
	if res.MessagesDeleted, err = s.chat.DeleteByProject(ctx, id); err != nil {
		return res, err
	}
	n, err := s.projects.Delete(ctx, id)
	if err != nil {
		return res, err
	}
	res.ProjectDeleted = n > 0
	return res, nil
}

func (s *Service) viewProjects(ctx context.Context, rows []models.Project) ([]ProjectView, error) {
	var ids []primitive.ObjectID
	for _, p := range rows {
		ids = append(ids, p.Owner)
		ids = append(ids, p.Members...)
		if p.Supervisor != nil {
			ids = append(ids, *p.Supervisor)
		}
		if p.Recruiter.Recruiter != nil {
			ids = append(ids, *p.Recruiter.Recruiter)
		}
	}
	people, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := func(id *primitive.ObjectID) *models.UserSummary {
		if id == nil {
			return nil
		}
		if u, ok := people[*id]; ok {
			return &u
		}
		return nil
	}

	out := make([]ProjectView, 0, len(rows))
	for _, p := range rows {
		v := ProjectView{
			Project:        p,
			OwnerInfo:      lookup(&p.Owner),
			MemberInfo:     make([]models.UserSummary, 0, len(p.Members)),
			SupervisorInfo: lookup(p.Supervisor),
		}
		if p.HasApprovedRecruiter() {
			v.RecruiterInfo = lookup(p.Recruiter.Recruiter)
		}
		for _, m := range p.Members {
			if u, ok := people[m]; ok {
				v.MemberInfo = append(v.MemberInfo, u)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
