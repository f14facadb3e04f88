package collab_test

import (
	"context"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/indexes"
	"github.com/dalemusser/fypcollab/internal/app/system/txn"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	svc *collab.Service
	fx  *testutil.Fixtures
	ctx context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	log := zap.NewNop()
	return &env{
		svc: collab.New(db, txn.New(db.Client(), log), log),
		fx:  testutil.NewFixtures(t, db),
		ctx: ctx,
	}
}

func actorOf(u models.User) authz.Actor {
	return authz.Actor{ID: u.ID, Role: u.Role, Name: u.Name}
}

// request files a request from student and fails the test on error.
func (e *env) request(t *testing.T, from models.User, typ models.RequestType, to models.User, p models.Project) *models.Request {
	t.Helper()
	r, err := e.svc.CreateRequest(e.ctx, actorOf(from), collab.CreateRequestInput{
		RequestType: typ,
		ToUserID:    to.ID.Hex(),
		ProjectID:   p.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateRequest(%s) failed: %v", typ, err)
	}
	return r
}

// decide approves or rejects r as to and fails the test on error.
func (e *env) decide(t *testing.T, to models.User, r *models.Request, status models.RequestStatus) {
	t.Helper()
	if _, err := e.svc.UpdateRequestStatus(e.ctx, actorOf(to), r.ID.Hex(), status); err != nil {
		t.Fatalf("UpdateRequestStatus(%s) failed: %v", status, err)
	}
}
