package privatechat_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/features/privatechat"
	"github.com/dalemusser/fypcollab/internal/app/system/indexes"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return privatechat.Routes(privatechat.NewHandler(db, zap.NewNop())), testutil.NewFixtures(t, db)
}

func serve(h http.Handler, r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func send(h http.Handler, from models.User, to primitive.ObjectID, content string) *testutil.ResponseRecorder {
	return serve(h, testutil.NewJSONRequest("POST", "/send",
		map[string]string{"receiver_id": to.Hex(), "content": content}, testutil.AsTestUser(from)))
}

func TestSendAndRead(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateStudent(ctx, "Ann", "ann@uni.edu")
	b := fx.CreateSupervisor(ctx, "Ben", "ben@uni.edu")
	c := fx.CreateRecruiter(ctx, "Cat", "cat@corp.io")

	send(h, a, b.ID, "hi Ben").AssertStatus(t, http.StatusCreated)
	send(h, b, a.ID, "hi Ann").AssertStatus(t, http.StatusCreated)
	send(h, c, a.ID, "job?").AssertStatus(t, http.StatusCreated)

	if n := fx.Count(ctx, "conversations", bson.M{}); n != 2 {
		t.Errorf("conversations = %d, want 2 (one per pair)", n)
	}

	rec := serve(h, testutil.NewAuthenticatedRequest("GET", "/with/"+b.ID.Hex(), testutil.AsTestUser(a)))
	rec.AssertStatus(t, http.StatusOK)
	var thread []models.PrivateMessage
	rec.DecodeJSON(t, &thread)
	if len(thread) != 2 || thread[0].Content != "hi Ben" || thread[1].Content != "hi Ann" {
		t.Errorf("thread = %+v", thread)
	}

	rec = serve(h, testutil.NewAuthenticatedRequest("GET", "/conversations", testutil.AsTestUser(a)))
	rec.AssertStatus(t, http.StatusOK)
	var inbox []privatechat.ConversationView
	rec.DecodeJSON(t, &inbox)
	if len(inbox) != 2 {
		t.Fatalf("inbox has %d conversations, want 2", len(inbox))
	}
	if inbox[0].OtherUser == nil || inbox[0].OtherUser.ID != c.ID {
		t.Errorf("most recent conversation should be with Cat, got %+v", inbox[0].OtherUser)
	}
	if inbox[0].LastMessage == nil || inbox[0].LastMessage.Content != "job?" {
		t.Errorf("last message = %+v", inbox[0].LastMessage)
	}
}

func TestWith_NoConversation(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateStudent(ctx, "Ann", "ann@uni.edu")

	rec := serve(h, testutil.NewAuthenticatedRequest("GET", "/with/"+primitive.NewObjectID().Hex(), testutil.AsTestUser(a)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "[]")
}

func TestSend_Rejections(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateStudent(ctx, "Ann", "ann@uni.edu")
	b := fx.CreateStudent(ctx, "Bob", "bob@uni.edu")

	tests := []struct {
		name   string
		to     primitive.ObjectID
		body   string
		status int
		code   string
	}{
		{"self", a.ID, "me", http.StatusBadRequest, "self_message"},
		{"unknown receiver", primitive.NewObjectID(), "hello?", http.StatusNotFound, "user_not_found"},
		{"empty after sanitizing", b.ID, "<script>x</script>", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(h, a, tt.to, tt.body)
			rec.AssertStatus(t, tt.status)
			if tt.code != "" {
				rec.AssertErrorCode(t, tt.code)
			}
		})
	}
	if n := fx.Count(ctx, "private_messages", bson.M{}); n != 0 {
		t.Errorf("rejected sends stored %d messages", n)
	}
}
