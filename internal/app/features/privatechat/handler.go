// internal/app/features/privatechat/handler.go
package privatechat

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	privatechatstore "github.com/dalemusser/fypcollab/internal/app/store/privatechat"
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

type Handler struct {
	Chats *privatechatstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Chats: privatechatstore.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}

// ConversationView is one row of the caller's inbox.
type ConversationView struct {
	ID            primitive.ObjectID     `json:"id"`
	OtherUser     *models.UserSummary    `json:"other_user,omitempty"`
	LastMessage   *models.PrivateMessage `json:"last_message,omitempty"`
	LastUpdatedAt time.Time              `json:"last_updated_at"`
}

type sendInput struct {
	ReceiverID string `json:"receiver_id" validate:"required,objectid"`
	Content    string `json:"content" validate:"required,notblank"`
}

// Conversations handles GET /api/private-chat/conversations, most recently
// active first.
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	convs, err := h.Chats.ListConversations(ctx, actor.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	others := make([]primitive.ObjectID, 0, len(convs))
	lastIDs := make([]primitive.ObjectID, 0, len(convs))
	for i := range convs {
		others = append(others, convs[i].Other(actor.ID))
		if convs[i].LastMessage != nil {
			lastIDs = append(lastIDs, *convs[i].LastMessage)
		}
	}
	people, err := h.Users.Summaries(ctx, others)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	last, err := h.Chats.LastMessages(ctx, lastIDs)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	out := make([]ConversationView, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		v := ConversationView{ID: c.ID, LastUpdatedAt: c.LastUpdatedAt}
		if p, ok := people[c.Other(actor.ID)]; ok {
			v.OtherUser = &p
		}
		if c.LastMessage != nil {
			if m, ok := last[*c.LastMessage]; ok {
				v.LastMessage = &m
			}
		}
		out = append(out, v)
	}
	jsonio.OK(w, out)
}

// With handles GET /api/private-chat/with/{userId}: the full thread with one
// user, oldest first. No conversation yet yields an empty list.
func (h *Handler) With(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	other, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		apierr.Write(w, h.Log, apierr.ErrInvalidID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conv, err := h.Chats.FindConversation(ctx, actor.ID, other)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonio.OK(w, []models.PrivateMessage{})
		return
	}
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	msgs, err := h.Chats.Messages(ctx, conv.ID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, msgs)
}

// Send handles POST /api/private-chat/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in sendInput
	if err := jsonio.Decode(w, r, &in, limits.MaxMessageBody); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	receiver, _ := primitive.ObjectIDFromHex(in.ReceiverID)
	if receiver == actor.ID {
		apierr.Write(w, h.Log, apierr.ErrSelfMessage)
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, receiver); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrUserNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}

	conv, err := h.Chats.UpsertConversation(ctx, actor.ID, receiver)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	m, err := h.Chats.AddMessage(ctx, models.PrivateMessage{
		Conversation: conv.ID,
		Sender:       actor.ID,
		Receiver:     receiver,
		Content:      content,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.Created(w, m)
}
