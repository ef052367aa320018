package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// ResourceInfo describes one resource in the listing response.
type ResourceInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Topic   string `json:"topic"`
	Kind    string `json:"kind,omitempty"`
	Inbound bool   `json:"inbound"`
}

// MessageResult is the response body for an accepted or rejected message.
type MessageResult struct {
	Resource string `json:"resource"`
	Accepted bool   `json:"accepted"`
}

// handleListResources lists every known resource.
func (s *Server) handleListResources(w http.ResponseWriter, _ *http.Request) {
	inbound := make(map[data.ResourceName]bool)
	for _, res := range data.InboundResources() {
		inbound[res] = true
	}

	all := data.AllResources()
	out := make([]ResourceInfo, 0, len(all))
	for _, res := range all {
		info := ResourceInfo{
			Name:    res.String(),
			Path:    "/api/v1/resources" + res.Path(),
			Topic:   res.Topic(),
			Inbound: inbound[res],
		}
		if kind, ok := res.PayloadKind(); ok {
			info.Kind = kind.String()
		}
		out = append(out, info)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resources": out,
		"count":     len(out),
	})
}

// handleGetResource returns the latest payload published on a resource.
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	res, ok := data.ParseResourceName(chi.URLParam(r, "*"))
	if !ok {
		writeProblem(w, r, notFound("unknown resource"))
		return
	}

	payload, ok := s.Latest(res)
	if !ok {
		p := notFound("nothing published yet")
		p.Resource = res.String()
		writeProblem(w, r, p)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(payload))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	io.WriteString(w, payload)
}

// handlePostResource delivers a device message to the data message listener.
func (s *Server) handlePostResource(w http.ResponseWriter, r *http.Request) {
	res, ok := data.ParseResourceName(chi.URLParam(r, "*"))
	if !ok {
		writeProblem(w, r, notFound("unknown resource"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		p := Problem{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "reading request body failed", Resource: res.String()}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			p.Status, p.Code, p.Message = http.StatusRequestEntityTooLarge, CodeTooLarge, "request body too large"
		}
		writeProblem(w, r, p)
		return
	}

	accepted, err := message.Dispatch(s.dataListener(), res, body)
	if err != nil {
		p := dispatchProblem(res, err)
		if p.Status == http.StatusInternalServerError {
			s.logger.Error("dispatching message failed", "resource", res.String(), "error", err)
		}
		writeProblem(w, r, p)
		return
	}

	result := MessageResult{Resource: res.String(), Accepted: accepted}
	if !accepted {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// contentTypeFor reports JSON for payloads that parse as JSON and plain text
// otherwise; management status messages are free-form text.
func contentTypeFor(payload string) string {
	if isJSON(payload) {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
