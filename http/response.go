package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/lockbox"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, lockbox.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", invalidInputMessage(err))
	case errors.Is(err, ErrUnsupportedMediaType):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
			"Content-Type must be application/json, application/x-www-form-urlencoded or multipart/form-data")
	case errors.As(err, &maxBytesErr):
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
	case errors.Is(err, lockbox.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, lockbox.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Incorrect password")
	case errors.Is(err, lockbox.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authorization required")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
