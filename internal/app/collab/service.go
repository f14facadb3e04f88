// Package collab coordinates every write that must keep Users, Projects and
// Requests consistent with each other: the request approval workflow,
// owner-driven removals, project lifecycle, and the cascades that run when a
// project or a user is deleted.
//
// Project documents hold the forward references (owner, members, supervisor,
// recruiter collaboration). The four *_projects lists on users are
// back-references derived from them. Every mutation writes the project first,
// then the users, then the request, under the project's lock and inside a
// transaction when the deployment supports one. Without transactions a failed
// later step undoes the project write.
package collab

import (
	"context"
	"errors"

	chatstore "github.com/dalemusser/fypcollab/internal/app/store/chat"
	ideastore "github.com/dalemusser/fypcollab/internal/app/store/ideas"
	privatechatstore "github.com/dalemusser/fypcollab/internal/app/store/privatechat"
	projectstore "github.com/dalemusser/fypcollab/internal/app/store/projects"
	requeststore "github.com/dalemusser/fypcollab/internal/app/store/requests"
	sponsoredstore "github.com/dalemusser/fypcollab/internal/app/store/sponsored"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/projectlock"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/app/system/txn"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service is safe for concurrent use. Construct one per process; the
// per-project locks only serialize callers sharing the same Service.
type Service struct {
	db        *mongo.Database
	users     *userstore.Store
	projects  *projectstore.Store
	requests  *requeststore.Store
	chat      *chatstore.Store
	private   *privatechatstore.Store
	ideas     *ideastore.Store
	sponsored *sponsoredstore.Store

	locks *projectlock.Locks
	tx    *txn.Runner
	log   *zap.Logger

	// afterScan runs between the two scans of ReconcileBackRefs. Tests only.
	afterScan func()
}

// New wires a Service over db. tx may be nil, in which case every unit of
// work runs without a transaction.
func New(db *mongo.Database, tx *txn.Runner, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:        db,
		users:     userstore.New(db),
		projects:  projectstore.New(db),
		requests:  requeststore.New(db),
		chat:      chatstore.New(db),
		private:   privatechatstore.New(db),
		ideas:     ideastore.New(db),
		sponsored: sponsoredstore.New(db),
		locks:     projectlock.New(),
		tx:        tx,
		log:       log,
	}
}

// withProject runs fn holding the project's lock, inside a transaction
// when one is available.
func (s *Service) withProject(ctx context.Context, projectID primitive.ObjectID, fn func(ctx context.Context) error) error {
	unlock, err := s.locks.Lock(ctx, projectID)
	if err != nil {
		return err
	}
	defer unlock()
	return s.tx.Run(ctx, fn)
}

// undo runs a compensating write when ctx is not transactional. Inside a
// transaction the abort already discards the earlier writes.
func (s *Service) undo(ctx context.Context, what string, fn func(ctx context.Context) error) {
	if txn.InTransaction(ctx) {
		return
	}
	// The caller's ctx may be the reason we are compensating.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := fn(cctx); err != nil {
		s.log.Error("compensating write failed; reconcile will repair back-references",
			zap.String("step", what), zap.Error(err))
	}
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apierr.ErrInvalidID
	}
	return id, nil
}

func (s *Service) loadProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.ErrProjectNotFound
	}
	return p, err
}

func (s *Service) loadUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.ErrUserNotFound
	}
	return u, err
}

func (s *Service) loadRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	r, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.ErrRequestNotFound
	}
	return r, err
}
