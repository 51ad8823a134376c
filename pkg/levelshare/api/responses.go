package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/bect/levelshare/pkg/levelshare"
)

// statusResponse is the envelope for mutations that carry no payload.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// errorResponse is the envelope every failed request answers with.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeError maps domain sentinels onto HTTP statuses and renders the error
// envelope. Unknown errors answer 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, levelshare.ErrInvalidInput):
		status, message = http.StatusBadRequest, "invalid input"
	case errors.Is(err, levelshare.ErrMissingToken), errors.Is(err, levelshare.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, levelshare.ErrInvalidCredential):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, levelshare.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, levelshare.ErrUserNotFound):
		status, message = http.StatusNotFound, "user not found"
	case errors.Is(err, levelshare.ErrLevelNotFound):
		status, message = http.StatusNotFound, "level not found"
	case errors.Is(err, levelshare.ErrDuplicateUsername):
		status, message = http.StatusConflict, "username already taken"
	case errors.Is(err, levelshare.ErrPayloadTooLarge):
		status, message = http.StatusRequestEntityTooLarge, "payload too large"
	case errors.Is(err, levelshare.ErrUploadFailed):
		status, message = http.StatusBadGateway, "upload failed"
	case errors.Is(err, levelshare.ErrStoreUnavailable):
		status, message = http.StatusInternalServerError, "store unavailable"
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "err", err)
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Success: false, Message: message})
}
