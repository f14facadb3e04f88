package requeststore_test

import (
	"errors"
	"testing"

	requeststore "github.com/dalemusser/fypcollab/internal/app/store/requests"
	"github.com/dalemusser/fypcollab/internal/app/system/indexes"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRequest(typ models.RequestType, from, to, project primitive.ObjectID) models.Request {
	return models.Request{RequestType: typ, FromUser: from, ToUser: to, Project: project}
}

func TestStore_Create_DuplicatePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := requeststore.New(db)

	from, to, project := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	r, err := store.Create(ctx, newRequest(models.RequestJoinProject, from, to, project))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Status != models.RequestPending || r.ID.IsZero() {
		t.Errorf("unexpected request: %+v", r)
	}

	if _, err := store.Create(ctx, newRequest(models.RequestJoinProject, from, to, project)); !errors.Is(err, requeststore.ErrDuplicatePending) {
		t.Errorf("expected ErrDuplicatePending, got %v", err)
	}

	exists, err := store.ExistsPending(ctx, models.RequestJoinProject, from, to, project)
	if err != nil || !exists {
		t.Errorf("ExistsPending = (%v, %v), want (true, nil)", exists, err)
	}

	// Once decided, the same request may be sent again.
	if ok, err := store.Finalize(ctx, r.ID, models.RequestRejected); err != nil || !ok {
		t.Fatalf("Finalize = (%v, %v)", ok, err)
	}
	if _, err := store.Create(ctx, newRequest(models.RequestJoinProject, from, to, project)); err != nil {
		t.Errorf("resend after rejection failed: %v", err)
	}
}

func TestStore_Finalize_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, newRequest(models.RequestSupervisor, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if ok, err := store.Finalize(ctx, r.ID, models.RequestApproved); err != nil || !ok {
		t.Fatalf("first Finalize = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := store.Finalize(ctx, r.ID, models.RequestRejected); err != nil || ok {
		t.Fatalf("second Finalize = (%v, %v), want (false, nil)", ok, err)
	}

	got, err := store.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.RequestApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
}

func TestStore_ListForStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	owned := primitive.NewObjectID()
	elsewhere := primitive.NewObjectID()

	mustCreate := func(r models.Request) models.Request {
		t.Helper()
		out, err := store.Create(ctx, r)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return out
	}

	mustCreate(newRequest(models.RequestSupervisor, me, primitive.NewObjectID(), owned))   // outgoing
	mustCreate(newRequest(models.RequestJoinProject, other, me, owned))                    // incoming join to my project
	decided := mustCreate(newRequest(models.RequestJoinProject, primitive.NewObjectID(), me, owned))
	mustCreate(newRequest(models.RequestJoinProject, other, primitive.NewObjectID(), elsewhere)) // unrelated

	if _, err := store.Finalize(ctx, decided.ID, models.RequestRejected); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListForStudent(ctx, me, []primitive.ObjectID{owned})
	if err != nil {
		t.Fatalf("ListForStudent failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d requests, want 2 (outgoing + pending join to owned project)", len(got))
	}

	incoming, err := store.ListIncomingPending(ctx, me)
	if err != nil {
		t.Fatalf("ListIncomingPending failed: %v", err)
	}
	if len(incoming) != 1 {
		t.Errorf("got %d incoming pending, want 1", len(incoming))
	}
}

func TestStore_DeleteByProjectAndUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := primitive.NewObjectID()
	p := primitive.NewObjectID()
	for _, r := range []models.Request{
		newRequest(models.RequestJoinProject, u, primitive.NewObjectID(), p),
		newRequest(models.RequestSupervisor, primitive.NewObjectID(), u, primitive.NewObjectID()),
		newRequest(models.RequestRecruiter, primitive.NewObjectID(), primitive.NewObjectID(), p),
	} {
		if _, err := store.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.DeleteByProject(ctx, p)
	if err != nil || n != 2 {
		t.Errorf("DeleteByProject = (%d, %v), want (2, nil)", n, err)
	}
	n, err = store.DeleteByUser(ctx, u)
	if err != nil || n != 1 {
		t.Errorf("DeleteByUser = (%d, %v), want (1, nil)", n, err)
	}
}
