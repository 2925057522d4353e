package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/hostcart/internal/apperror"
)

// ErrorResponse is the body of every non-2xx API response:
//
//	{"error": "not_found", "message": "game not found with id 1942"}
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "validation_error"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, for validation errors
}

// writeJSON sets the content type and status, then encodes data. A nil data
// writes headers only.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Status is already sent.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError translates a service error into a response. Validation,
// not-found and conflict errors carry their message; anything else,
// corrupted rows included, is a bare 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Message: appErr.Message}
		status := 0

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, resp.Error, resp.Field = http.StatusBadRequest, "validation_error", appErr.Field
		case errors.Is(err, apperror.ErrNotFound):
			status, resp.Error = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, resp.Error = http.StatusConflict, "conflict"
		}

		if status != 0 {
			writeJSON(w, status, resp)
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
