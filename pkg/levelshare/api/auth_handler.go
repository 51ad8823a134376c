package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/bect/levelshare/pkg/levelshare"
)

// AuthHandler handles registration, login and admin elevation.
type AuthHandler struct {
	identity levelshare.IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity levelshare.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is the response body for a successful login or elevation.
type SessionResponse struct {
	Success   bool            `json:"success"`
	Token     string          `json:"token"`
	Username  string          `json:"username"`
	Role      levelshare.Role `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, levelshare.ErrInvalidInput)
		return
	}

	user, err := h.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account created", "username", user.Username)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, statusResponse{Success: true, Message: "account created"})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, levelshare.ErrInvalidInput)
		return
	}

	session, err := h.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, SessionResponse{
		Success:   true,
		Token:     session.Token,
		Username:  session.Username,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	})
}

type becomeAdminRequest struct {
	Key string `json:"key"`
}

// BecomeAdmin elevates the authenticated user to admin given the elevation key.
func (h *AuthHandler) BecomeAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	var req becomeAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, levelshare.ErrInvalidInput)
		return
	}

	session, err := h.identity.ElevateToAdmin(r.Context(), actor, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, SessionResponse{
		Success:   true,
		Token:     session.Token,
		Username:  session.Username,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	})
}
