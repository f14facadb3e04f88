package jsonio_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/jsonio"
)

type payload struct {
	Title string `json:"title" validate:"notblank"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		max     int64
		wantErr bool
	}{
		{"valid", `{"title":"Robots"}`, 0, false},
		{"empty body", ``, 0, true},
		{"blank title", `{"title":"  "}`, 0, true},
		{"unknown field", `{"title":"x","owner":"me"}`, 0, true},
		{"two objects", `{"title":"a"}{"title":"b"}`, 0, true},
		{"too large", `{"title":"` + strings.Repeat("a", 100) + `"}`, 32, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var p payload
			err := jsonio.Decode(rec, req, &p, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apierr.Invalid) {
				t.Errorf("expected Invalid kind, got %v", err)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonio.Created(rec, map[string]string{"status": "pending"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"status":"pending"`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}
