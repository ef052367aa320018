package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// Problem is the JSON body of every error response.
type Problem struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Resource  string `json:"resource,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Problem codes.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeTooLarge         = "payload_too_large"
	CodeInternal         = "internal_error"
	CodeUnavailable      = "unavailable"
	CodeMethodNotAllowed = "method_not_allowed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}

// writeProblem answers r with a Problem carrying the request's ID.
func writeProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	p.RequestID = RequestID(r.Context())
	writeJSON(w, p.Status, p)
}

// dispatchProblem maps a message.Dispatch error onto a response.
// ErrUnknownResource cannot occur here because the route has already
// resolved the resource, so it falls through to 500 with anything else.
func dispatchProblem(res data.ResourceName, err error) Problem {
	p := Problem{Resource: res.String()}
	switch {
	case errors.Is(err, message.ErrNoListener):
		p.Status, p.Code, p.Message = http.StatusServiceUnavailable, CodeUnavailable, "gateway is not accepting messages"
	case errors.Is(err, data.ErrInvalidInput):
		p.Status, p.Code, p.Message = http.StatusBadRequest, CodeBadRequest, err.Error()
	default:
		p.Status, p.Code, p.Message = http.StatusInternalServerError, CodeInternal, "dispatching message failed"
	}
	return p
}

func notFound(msg string) Problem {
	return Problem{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}
