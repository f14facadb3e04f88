package chat_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/features/chat"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setup(t *testing.T, pageSize int) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return chat.Routes(chat.NewHandler(db, pageSize, zap.NewNop())), testutil.NewFixtures(t, db)
}

func serve(h http.Handler, r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func post(h http.Handler, pid primitive.ObjectID, content string, u models.User) *testutil.ResponseRecorder {
	return serve(h, testutil.NewJSONRequest("POST", "/"+pid.Hex(), map[string]string{"content": content}, testutil.AsTestUser(u)))
}

func TestMemberPostsAndReads(t *testing.T) {
	h, fx := setup(t, 2)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateStudent(ctx, "Owner", "owner@uni.edu")
	p := fx.CreateProject(ctx, "Chatty", owner)

	for _, msg := range []string{"one", "two", "<b>three</b><script>alert(1)</script>"} {
		post(h, p.ID, msg, owner).AssertStatus(t, http.StatusCreated)
	}

	rec := serve(h, testutil.NewAuthenticatedRequest("GET", "/"+p.ID.Hex(), testutil.AsTestUser(owner)))
	rec.AssertStatus(t, http.StatusOK)

	var got []chat.MessageView
	rec.DecodeJSON(t, &got)
	if len(got) != 2 {
		t.Fatalf("got %d messages, want the 2 most recent", len(got))
	}
	if got[0].Content != "two" || got[1].Content != "three" {
		t.Errorf("contents = %q, %q; want two, three", got[0].Content, got[1].Content)
	}
	if got[1].SenderInfo == nil || got[1].SenderInfo.Name != "Owner" {
		t.Errorf("sender not resolved: %+v", got[1].SenderInfo)
	}
}

func TestAccessGate(t *testing.T) {
	h, fx := setup(t, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateStudent(ctx, "Owner", "owner@uni.edu")
	outsider := fx.CreateStudent(ctx, "Outsider", "out@uni.edu")
	rec := fx.CreateRecruiter(ctx, "Rec", "rec@corp.io")
	p := fx.CreateProject(ctx, "Private", owner)

	resp := post(h, p.ID, "hi", outsider)
	resp.AssertStatus(t, http.StatusForbidden)
	resp.AssertErrorCode(t, "no_chat_access")

	// A pending recruiter is not a participant yet.
	_, err := fx.DB().Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"recruiter_collaboration": bson.M{"status": models.CollaborationPending, "recruiter": rec.ID},
	}})
	if err != nil {
		t.Fatalf("set pending: %v", err)
	}
	post(h, p.ID, "hello", rec).AssertStatus(t, http.StatusForbidden)

	_, err = fx.DB().Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"recruiter_collaboration.status": models.CollaborationApproved,
	}})
	if err != nil {
		t.Fatalf("set approved: %v", err)
	}
	post(h, p.ID, "hello", rec).AssertStatus(t, http.StatusCreated)

	serve(h, testutil.NewAuthenticatedRequest("GET", "/"+primitive.NewObjectID().Hex(), testutil.AsTestUser(owner))).
		AssertStatus(t, http.StatusNotFound)
}

func TestPost_Validation(t *testing.T) {
	h, fx := setup(t, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateStudent(ctx, "Owner", "owner@uni.edu")
	p := fx.CreateProject(ctx, "Strict", owner)

	tests := []struct {
		name    string
		content string
	}{
		{"blank", "   "},
		{"markup only", "<script>alert(1)</script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post(h, p.ID, tt.content, owner).AssertStatus(t, http.StatusBadRequest)
		})
	}
}
