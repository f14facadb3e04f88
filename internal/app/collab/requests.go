package collab

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/dalemusser/fypcollab/internal/app/policy/projectpolicy"
	requeststore "github.com/dalemusser/fypcollab/internal/app/store/requests"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fypcollab/internal/app/system/limits"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateRequestInput is what a student submits to open a request.
type CreateRequestInput struct {
	RequestType models.RequestType
	ToUserID    string
	ProjectID   string
	Message     string
}

// CreateRequest validates in against the current project and target user and
// stores a pending request. The project itself is not touched until the
// request is approved.
func (s *Service) CreateRequest(ctx context.Context, actor authz.Actor, in CreateRequestInput) (*models.Request, error) {
	if !actor.Can(authz.SendRequests) {
		return nil, apierr.ErrRoleNotAllowed
	}
	if !in.RequestType.Valid() {
		return nil, apierr.ErrInvalidRequestType
	}
	toID, err := parseID(in.ToUserID)
	if err != nil {
		return nil, err
	}
	projectID, err := parseID(in.ProjectID)
	if err != nil {
		return nil, err
	}
	msg := htmlsanitize.PlainText(in.Message)
	if utf8.RuneCountInString(msg) > limits.MaxRequestMessage {
		return nil, apierr.Invalid.WithMessage("message must be at most %d characters", limits.MaxRequestMessage)
	}

	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	to, err := s.loadUser(ctx, toID)
	if err != nil {
		return nil, err
	}
	if err := checkCreate(p, actor.ID, to, in.RequestType); err != nil {
		return nil, err
	}

	req := models.Request{
		RequestType: in.RequestType,
		FromUser:    actor.ID,
		ToUser:      to.ID,
		Project:     p.ID,
		Message:     msg,
	}

	return s.insertRequest(ctx, req)
}

func (s *Service) insertRequest(ctx context.Context, req models.Request) (*models.Request, error) {
	exists, err := s.requests.ExistsPending(ctx, req.RequestType, req.FromUser, req.ToUser, req.Project)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierr.ErrDuplicatePendingRequest
	}
	r, err := s.requests.Create(ctx, req)
	if errors.Is(err, requeststore.ErrDuplicatePending) {
		return nil, apierr.ErrDuplicatePendingRequest
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// checkCreate holds the rules shared by request creation and approval.
func checkCreate(p *models.Project, from primitive.ObjectID, to *models.User, typ models.RequestType) error {
	switch typ {
	case models.RequestJoinProject:
		if to.ID != p.Owner {
			return apierr.ErrTargetMismatch
		}
		return checkJoin(p, from)
	case models.RequestSupervisor:
		if to.Role != models.RoleSupervisor {
			return apierr.ErrWrongTargetRole
		}
		if p.HasSupervisor() {
			return apierr.ErrSupervisorAlreadyAssigned
		}
	case models.RequestRecruiter:
		if to.Role != models.RoleRecruiter {
			return apierr.ErrWrongTargetRole
		}
		if p.HasApprovedRecruiter() {
			return apierr.ErrRecruiterAlreadyApproved
		}
	default:
		return apierr.ErrInvalidRequestType
	}
	return nil
}

func checkJoin(p *models.Project, student primitive.ObjectID) error {
	if p.IsMember(student) {
		return apierr.ErrAlreadyMember
	}
	if p.IsFull() {
		return apierr.ErrProjectFull
	}
	return nil
}

// Decision is the outcome of UpdateRequestStatus. Project is the project as
// it stands after an approval and nil after a rejection.
type Decision struct {
	Request *models.Request `json:"request"`
	Project *models.Project `json:"project,omitempty"`
}

// UpdateRequestStatus lets the addressed user approve or reject a pending
// request. Approval re-checks the project under its lock; when the check
// fails the request stays pending and the failure is returned.
func (s *Service) UpdateRequestStatus(ctx context.Context, actor authz.Actor, requestID string, status models.RequestStatus) (*Decision, error) {
	if status != models.RequestApproved && status != models.RequestRejected {
		return nil, apierr.ErrInvalidStatus
	}
	id, err := parseID(requestID)
	if err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	// Only the recipient learns whether the request is still open.
	if req.ToUser != actor.ID {
		return nil, apierr.ErrNotRecipient
	}
	if req.Status != models.RequestPending {
		return nil, apierr.AlreadyFinalized
	}

	if status == models.RequestRejected {
		err = s.reject(ctx, req)
	} else {
		err = s.withProject(ctx, req.Project, func(ctx context.Context) error {
			return s.approve(ctx, req.ID)
		})
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("request decided",
		zap.String("request_id", req.ID.Hex()),
		zap.String("type", string(req.RequestType)),
		zap.String("status", string(status)),
		zap.String("project_id", req.Project.Hex()))

	out := &Decision{}
	if out.Request, err = s.loadRequest(ctx, id); err != nil {
		return nil, err
	}
	if status == models.RequestApproved {
		if out.Project, err = s.loadProject(ctx, req.Project); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) reject(ctx context.Context, req *models.Request) error {
	ok, err := s.requests.Finalize(ctx, req.ID, models.RequestRejected)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.AlreadyFinalized
	}
	return nil
}

// approve runs under the project lock. It re-reads everything it decides on.
func (s *Service) approve(ctx context.Context, requestID primitive.ObjectID) error {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.RequestPending {
		return apierr.AlreadyFinalized
	}
	p, err := s.loadProject(ctx, req.Project)
	if err != nil {
		return err
	}

	switch req.RequestType {
	case models.RequestJoinProject:
		return s.approveJoin(ctx, req, p)
	case models.RequestSupervisor:
		return s.approveSupervisor(ctx, req, p)
	case models.RequestRecruiter:
		return s.approveRecruiter(ctx, req, p)
	}
	return apierr.ErrInvalidRequestType
}

func (s *Service) approveJoin(ctx context.Context, req *models.Request, p *models.Project) error {
	if _, err := s.loadUser(ctx, req.FromUser); err != nil {
		return err
	}
	if err := checkJoin(p, req.FromUser); err != nil {
		return err
	}
	ok, err := s.projects.AddMember(ctx, p.ID, req.FromUser)
	if err != nil {
		return err
	}
	if !ok {
		return s.joinConflict(ctx, p.ID, req.FromUser)
	}

	undoProject := func(ctx context.Context) error {
		_, err := s.projects.RemoveMember(ctx, p.ID, req.FromUser)
		return err
	}
	return s.link(ctx, req, req.FromUser, userstore.EnrolledProjects, "remove member", undoProject)
}

// joinConflict explains why a conditional AddMember matched nothing.
func (s *Service) joinConflict(ctx context.Context, projectID, student primitive.ObjectID) error {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := checkJoin(p, student); err != nil {
		return err
	}
	return apierr.ErrProjectFull
}

func (s *Service) approveSupervisor(ctx context.Context, req *models.Request, p *models.Project) error {
	if p.HasSupervisor() {
		return apierr.ErrSupervisorAlreadyAssigned
	}
	ok, err := s.projects.SetSupervisor(ctx, p.ID, req.ToUser)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.ErrSupervisorAlreadyAssigned
	}

	undoProject := func(ctx context.Context) error {
		_, err := s.projects.ClearSupervisor(ctx, p.ID, req.ToUser)
		return err
	}
	return s.link(ctx, req, req.ToUser, userstore.SupervisedProjects, "clear supervisor", undoProject)
}

func (s *Service) approveRecruiter(ctx context.Context, req *models.Request, p *models.Project) error {
	if p.HasApprovedRecruiter() {
		return apierr.ErrRecruiterAlreadyApproved
	}
	prev := p.Recruiter
	ok, err := s.projects.ApproveRecruiter(ctx, p.ID, req.ToUser)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.ErrRecruiterAlreadyApproved
	}

	undoProject := func(ctx context.Context) error {
		return s.projects.RestoreCollaboration(ctx, p.ID, prev)
	}
	return s.link(ctx, req, req.ToUser, userstore.CollaboratingProjects, "restore collaboration", undoProject)
}

// link finishes an approval after its project write: it records the
// back-reference on userID and then finalizes the request. A failure in
// either step undoes everything written so far.
func (s *Service) link(ctx context.Context, req *models.Request, userID primitive.ObjectID, ref userstore.BackRef, what string, undoProject func(context.Context) error) error {
	if err := s.users.AddProjectRef(ctx, userID, ref, req.Project); err != nil {
		s.undo(ctx, what, undoProject)
		return err
	}

	ok, err := s.requests.Finalize(ctx, req.ID, models.RequestApproved)
	if err == nil && !ok {
		err = apierr.AlreadyFinalized
	}
	if err != nil {
		s.undo(ctx, "unlink "+string(ref), func(ctx context.Context) error {
			return s.users.PullProjectRef(ctx, userID, ref, req.Project)
		})
		s.undo(ctx, what, undoProject)
		return err
	}
	return nil
}

// RequestView is a request with its parties and project resolved for display.
type RequestView struct {
	models.Request
	From         *models.UserSummary `json:"from,omitempty"`
	To           *models.UserSummary `json:"to,omitempty"`
	ProjectTitle string              `json:"project_title"`
}

// ListRequests returns the requests relevant to actor, newest first.
// Students see their outgoing requests plus pending join requests for the
// projects they own. Everyone else sees pending requests addressed to them.
func (s *Service) ListRequests(ctx context.Context, actor authz.Actor) ([]RequestView, error) {
	var (
		rows []models.Request
		err  error
	)
	if actor.Role == models.RoleStudent {
		owned, lerr := s.projects.ListOwnedBy(ctx, actor.ID)
		if lerr != nil {
			return nil, lerr
		}
		rows, err = s.requests.ListForStudent(ctx, actor.ID, owned)
	} else {
		rows, err = s.requests.ListIncomingPending(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return s.viewRequests(ctx, rows)
}

// GetRequest returns one request if actor sent it, received it, is an admin,
// or (for join requests) has access to the project.
func (s *Service) GetRequest(ctx context.Context, actor authz.Actor, requestID string) (*RequestView, error) {
	id, err := parseID(requestID)
	if err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := actor.IsAdmin() || req.FromUser == actor.ID || req.ToUser == actor.ID
	if !allowed && req.RequestType == models.RequestJoinProject {
		ok, err := projectpolicy.CanAccessProject(ctx, s.db, req.Project, actor.ID)
		if err != nil && !errors.Is(err, apierr.ErrProjectNotFound) {
			return nil, err
		}
		allowed = ok
	}
	if !allowed {
		return nil, apierr.Forbidden.WithMessage("you are not a party to this request")
	}

	views, err := s.viewRequests(ctx, []models.Request{*req})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) viewRequests(ctx context.Context, rows []models.Request) ([]RequestView, error) {
	userIDs := make([]primitive.ObjectID, 0, 2*len(rows))
	projectIDs := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.FromUser, r.ToUser)
		projectIDs = append(projectIDs, r.Project)
	}
	people, err := s.users.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	titles, err := s.projects.Titles(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RequestView, 0, len(rows))
	for _, r := range rows {
		v := RequestView{Request: r, ProjectTitle: titles[r.Project]}
		if u, ok := people[r.FromUser]; ok {
			v.From = &u
		}
		if u, ok := people[r.ToUser]; ok {
			v.To = &u
		}
		out = append(out, v)
	}
	return out, nil
}
