package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Mapped to the right HTTP status from the error's kind
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message goes out as JSON with the derived status code

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/policy"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action)
// fields, plus per-field errors when a form submission was invalid.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and derives the HTTP status from
// the error's kind. fields carries form validation errors, if any.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, fields map[string]string) {
	userMsg := core.MapError(err)
	statusCode := statusForError(err)

	// A rejected file carries the validator's full reason, including the
	// allowed-type list the user needs; keep it over the generic mapped
	// text.
	var rejected *core.FileRejectedError
	if errors.As(err, &rejected) {
		userMsg.Message = rejected.Reason
	}

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Fields:  fields,
	})
}

// statusForError maps an error to its HTTP status code.
func statusForError(err error) int {
	var rejected *core.FileRejectedError
	var reqErr *api.RequestError

	switch {
	case errors.Is(err, core.ErrFormInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoTargets):
		return http.StatusBadRequest
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, policy.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &reqErr):
		// Pass the upstream's client errors through; hide its 5xx details
		// behind a generic bad gateway.
		if reqErr.Status >= 400 && reqErr.Status < 500 {
			return reqErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
