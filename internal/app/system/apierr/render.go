package apierr

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Kind    string            `json:"kind"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Write renders err as JSON with the status derived from its Kind.
// Unclassified errors are logged and rendered as a generic 500.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	e, ok := As(err)
	if !ok || e.Kind == KindInternal {
		if log != nil {
			log.Error("internal error", zap.Error(err))
		}
		e = &Error{Kind: KindInternal, Code: "internal", Message: "internal server error"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.Status())
	_ = json.NewEncoder(w).Encode(body{Error: payload{
		Kind:    e.Kind.String(),
		Code:    e.Code,
		Message: e.Message,
		Fields:  e.Fields,
	}})
}
