// internal/app/features/complaints/handler.go
package complaints

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"unicode/utf8"

	complaintstore "github.com/dalemusser/fypcollab/internal/app/store/complaints"
	privatechatstore "github.com/dalemusser/fypcollab/internal/app/store/privatechat"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/authz"
	"github.com/dalemusser/fypcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
	"github.com/dalemusser/fypcollab/internal/app/system/timeouts"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler lets message receivers report private messages and admins
// moderate the reports.
type Handler struct {
	Complaints *complaintstore.Store
	Messages   *privatechatstore.Store
	Users      *userstore.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Complaints: complaintstore.New(db),
		Messages:   privatechatstore.New(db),
		Users:      userstore.New(db),
		AuditLog:   audit,
		Log:        logger,
	}
}

type fileInput struct {
	MessageID   string `json:"message_id" validate:"required,objectid"`
	Description string `json:"description" validate:"required,notblank"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed resolved"`
}

// File handles POST /api/complaints. Only the receiver of the message may
// report it; the message content and sender email are copied into the
// complaint.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	var in fileInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	desc := htmlsanitize.PlainText(in.Description)
	if desc == "" {
		apierr.Write(w, h.Log, apierr.Invalid.WithMessage("description is empty"))
		return
	}
	if utf8.RuneCountInString(desc) > models.MaxMessageLength {
		apierr.Write(w, h.Log, apierr.Invalid.WithMessage("description must be at most %d characters", models.MaxMessageLength))
		return
	}
	msgID, _ := primitive.ObjectIDFromHex(in.MessageID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := h.Messages.GetMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrMessageNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	if msg.Receiver != actor.ID {
		apierr.Write(w, h.Log, apierr.ErrNotReceiver)
		return
	}

	people, err := h.Users.Summaries(ctx, []primitive.ObjectID{msg.Sender, actor.ID})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	me, ok := people[actor.ID]
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUserNotFound)
		return
	}

	c, err := h.Complaints.Create(ctx, models.Complaint{
		MessageID:       msg.ID,
		SenderEmail:     people[msg.Sender].Email,
		ComplainerEmail: me.Email,
		Description:     desc,
		MessageContent:  msg.Content,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("complaint filed", zap.String("complaint_id", c.ID.Hex()), zap.String("message_id", msg.ID.Hex()))
	jsonio.Created(w, c)
}

// Mine handles GET /api/complaints/mine: complaints the caller filed.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	h.listByEmail(w, r, h.Complaints.ListByComplainer)
}

// AgainstMe handles GET /api/complaints/against-me.
func (h *Handler) AgainstMe(w http.ResponseWriter, r *http.Request) {
	h.listByEmail(w, r, h.Complaints.ListAgainst)
}

func (h *Handler) listByEmail(w http.ResponseWriter, r *http.Request, list func(context.Context, string) ([]models.Complaint, error)) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrUserNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	rows, err := list(ctx, u.Email)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, rows)
}

// List handles GET /api/complaints?status= (admin). Pending complaints come
// first, each group newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := models.ComplaintStatus(query.Get(r, "status"))
	if status != "" && !status.Valid() {
		apierr.Write(w, h.Log, apierr.ErrInvalidStatus)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Complaints.ListAll(ctx, status)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	slices.SortStableFunc(rows, func(a, b models.Complaint) int {
		ap, bp := a.Status == models.ComplaintPending, b.Status == models.ComplaintPending
		switch {
		case ap && !bp:
			return -1
		case bp && !ap:
			return 1
		}
		return 0
	})
	jsonio.OK(w, rows)
}

// Stats handles GET /api/complaints/stats (admin).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	counts, err := h.Complaints.CountByStatus(ctx)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, counts)
}

// UpdateStatus handles PUT /api/complaints/{id} (admin).
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		apierr.Write(w, h.Log, apierr.Unauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, apierr.ErrInvalidID)
		return
	}
	var in statusInput
	if err := jsonio.Decode(w, r, &in, 0); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	status := models.ComplaintStatus(in.Status)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prev, err := h.Complaints.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.ErrComplaintNotFound
		}
		apierr.Write(w, h.Log, err)
		return
	}
	h.AuditLog.ComplaintStatusChanged(ctx, r, actor.ID, id, string(prev), string(status))

	c, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	jsonio.OK(w, c)
}
