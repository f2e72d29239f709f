package web

// errors.go provides unified error response handling for the API.
//
// Every failed request:
//  1. Is classified with statusFor (engine error kind, body limit, busy)
//  2. Is mapped via core.MapError to a user-facing message and code
//  3. Is logged with the technical error and the request ID
//  4. Is written as an ErrorResponse JSON body
//
// Aborted cleaning runs also return the stage that failed and the actions
// recorded before the failure.

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Action  string        `json:"action,omitempty"`
	Code    string        `json:"code"`
	Stage   core.Stage    `json:"stage,omitempty"`
	Log     []core.Action `json:"log,omitempty"`
}

// errBadInput marks request problems found before the engine runs.
var errBadInput = errors.New("invalid request")

// errBodyTooLarge replaces *http.MaxBytesError so the message maps to REQ001.
var errBodyTooLarge = errors.New("request body too large")

// respondError logs err and writes it as an ErrorResponse.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err.Error(), "code", userMsg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err.Error(), "code", userMsg.Code)
	}

	resp := ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var pe *core.PipelineError
	if errors.As(err, &pe) {
		resp.Stage = pe.Stage
		resp.Log = pe.Log
	}
	if status >= http.StatusInternalServerError {
		// Unclassified errors may carry internals; the code is enough for support.
		resp.Error = userMsg.Message
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSchema), errors.Is(err, core.ErrComputation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBodyTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
