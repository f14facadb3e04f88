// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/fypcollab/internal/app/policy/projectpolicy"
	chatstore "github.com/dalemusser/fypcollab/internal/app/store/chat"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/limits"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultPageSize is how many recent messages GET returns when unconfigured.
const DefaultPageSize = 100

// Handler serves a project's group chat. Every call re-evaluates access, so
// a removed member is locked out on their next request.
type Handler struct {
	DB       *mongo.Database
	Messages *chatstore.Store
	Users    *userstore.Store
	PageSize int64
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, pageSize int, logger *zap.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Handler{
		DB:       db,
		Messages: chatstore.New(db),
		Users:    userstore.New(db),
		PageSize: int64(pageSize),
		Log:      logger,
	}
}

// MessageView is a chat message with its sender resolved.
type MessageView struct {
	models.ChatMessage
	SenderInfo *models.UserSummary `json:"sender_info,omitempty"`
}

type postInput struct {
	Content string `json:"content" validate:"required,notblank"`
}

// List handles GET /api/chat/{projectId}: the latest messages, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, pid, ok := h.gate(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Messages.ListRecent(ctx, pid, h.PageSize)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.Sender)
	}
	senders, err := h.Users.Summaries(ctx, ids)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		v := MessageView{ChatMessage: m}
		if s, ok := senders[m.Sender]; ok {
			v.SenderInfo = &s
		}
		out = append(out, v)
	}
	jsonio.OK(w, out)
}

// Post handles POST /api/chat/{projectId}. Content is reduced to plain text.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	actor, pid, ok := h.gate(w, r)
	if !ok {
		return
	}

	var in postInput
	if err := jsonio.Decode(w, r, &in, limits.MaxMessageBody); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	content := htmlsanitize.PlainText(in.Content)
	if content == "" {
		apierr.Write(w, h.Log, apierr.Invalid.WithMessage("message is empty"))
		return
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		apierr.Write(w, h.Log, apierr.Invalid.WithMessage("message must be at most %d characters", models.MaxMessageLength))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Messages.Append(ctx, models.ChatMessage{Project: pid, Sender: actor.ID, Content: content})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	sender := models.UserSummary{ID: actor.ID, Name: actor.Name, Role: actor.Role}
	jsonio.Created(w, MessageView{ChatMessage: m, SenderInfo: &sender})
}

// gate resolves the caller and project and checks chat access. It writes the
// error response itself and reports false when the request must stop.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request) (authz.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	pid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectId"))
	if err != nil {
		apierr.Write(w, h.Log, apierr.ErrInvalidID)
		return authz.Actor{}, primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := projectpolicy.RequireAccess(ctx, h.DB, pid, actor.ID); err != nil {
		apierr.Write(w, h.Log, err)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	return actor, pid, true
}
