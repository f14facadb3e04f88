// Package jsonio reads and writes the JSON bodies of the API handlers.
package jsonio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/limits"
	"github.com/dalemusser/fypcollab/internal/app/system/validate"
)

// Decode reads a JSON object from r into dst and validates it with the
// `validate` struct tags. Bodies larger than max (or limits.MaxJSONBody when
// max <= 0) and unknown fields are rejected as apierr.Invalid.
func Decode(w http.ResponseWriter, r *http.Request, dst any, max int64) error {
	if max <= 0 {
		max = limits.MaxJSONBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, max)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apierr.Invalid.WithMessage("request body is empty")
		case errors.As(err, &tooBig):
			return apierr.Invalid.WithMessage("request body too large")
		default:
			return apierr.Invalid.WithMessage("malformed JSON body").Wrap(err)
		}
	}
	if dec.More() {
		return apierr.Invalid.WithMessage("request body must contain a single JSON object")
	}
	return validate.Struct(dst)
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK is Write with 200.
func OK(w http.ResponseWriter, v any) { Write(w, http.StatusOK, v) }

// Created is Write with 201.
func Created(w http.ResponseWriter, v any) { Write(w, http.StatusCreated, v) }
