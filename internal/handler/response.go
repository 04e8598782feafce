package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so success bodies
// and error bodies each have one shape.
//
// CONSISTENT ERROR FORMAT:
//   {"error": "not_found", "message": "video not found with id ...", "field": "..."}
//
// "field" is only present for validation and conflict errors.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/sakif/videotube/internal/apperror"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, when known
}

// MessageResponse is the body of operations that return nothing else.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data with the given status. render sets the
// Content-Type header and encodes.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// writeError maps a domain error to its HTTP status and sends it.
//
// errors.Is walks the whole chain, so a service error such as
//
//	fmt.Errorf("service/video: owner %s: %w", id, apperror.NotFound(...))
//
// still maps to 404. Anything without an *AppError in its chain is an
// unexpected failure: it is logged and the client gets a generic 500 that
// never includes the raw error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || errors.Is(err, apperror.ErrInternal) {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, kind = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
