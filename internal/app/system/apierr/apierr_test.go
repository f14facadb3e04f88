package apierr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"go.uber.org/zap"
)

func TestIs_KindSentinel(t *testing.T) {
	err := fmt.Errorf("approve: %w", apierr.ErrProjectFull)

	if !errors.Is(err, apierr.Conflict) {
		t.Error("expected ErrProjectFull to match Conflict")
	}
	if !errors.Is(err, apierr.ErrProjectFull) {
		t.Error("expected wrapped error to match ErrProjectFull")
	}
	if errors.Is(err, apierr.NotFound) {
		t.Error("ErrProjectFull must not match NotFound")
	}
	if errors.Is(err, apierr.ErrAlreadyMember) {
		t.Error("ErrProjectFull must not match ErrAlreadyMember")
	}
}

func TestIs_AlreadyFinalizedDistinctFromConflict(t *testing.T) {
	if errors.Is(apierr.AlreadyFinalized, apierr.Conflict) {
		t.Error("AlreadyFinalized is its own kind")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apierr.Kind
	}{
		{"plain error", errors.New("boom"), apierr.KindInternal},
		{"not found", apierr.ErrProjectNotFound, apierr.KindNotFound},
		{"wrapped forbidden", fmt.Errorf("x: %w", apierr.ErrNotOwner), apierr.KindForbidden},
		{"invalid", apierr.ErrInvalidID, apierr.KindInvalid},
		{"finalized", apierr.AlreadyFinalized, apierr.KindAlreadyFinalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apierr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind apierr.Kind
		want int
	}{
		{apierr.KindNotFound, http.StatusNotFound},
		{apierr.KindForbidden, http.StatusForbidden},
		{apierr.KindConflict, http.StatusConflict},
		{apierr.KindInvalid, http.StatusBadRequest},
		{apierr.KindAlreadyFinalized, http.StatusConflict},
		{apierr.KindUnauthorized, http.StatusUnauthorized},
		{apierr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%v.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWrite_Classified(t *testing.T) {
	rec := httptest.NewRecorder()
	apierr.Write(rec, zap.NewNop(), fmt.Errorf("create: %w", apierr.ErrDuplicatePendingRequest))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusConflict)
	}
	var got struct {
		Error struct {
			Kind string `json:"kind"`
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error.Kind != "conflict" || got.Error.Code != "duplicate_pending_request" {
		t.Errorf("unexpected body: %+v", got.Error)
	}
}

func TestWrite_InternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	apierr.Write(rec, zap.NewNop(), errors.New("connection refused 10.0.0.3:27017"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "10.0.0.3") {
		t.Errorf("internal details leaked: %s", body)
	}
}

func TestWrap_KeepsIdentity(t *testing.T) {
	cause := errors.New("driver said no")
	err := apierr.ErrProjectNotFound.Wrap(cause)

	if !errors.Is(err, apierr.ErrProjectNotFound) {
		t.Error("wrapped copy should still match the named error")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped copy should expose the cause")
	}
}
