package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/admin"
)

// AdminHandler handles administrative operations. All routes must be
// mounted behind Authenticator and RequireAdmin.
type AdminHandler struct {
	admin admin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc admin.Service) *AdminHandler {
	return &AdminHandler{admin: svc}
}

// Routes returns the admin routes.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/users", h.ListUsers)
	r.Get("/levels", h.ListLevels)
	r.Delete("/users/{username}", h.DeleteUser)
	return r
}

// UserListResponse is the response body for user listings.
type UserListResponse struct {
	Success bool               `json:"success"`
	Users   []*levelshare.User `json:"users"`
}

// ListUsers returns every registered user.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	users, err := h.admin.ListUsers(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, UserListResponse{Success: true, Users: users})
}

// ListLevels returns every level regardless of creator.
func (h *AdminHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	levels, err := h.admin.ListAllLevels(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LevelListResponse{Success: true, Levels: levels})
}

// DeleteUser removes a user and cascades to all their levels.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	target := chi.URLParam(r, "username")
	if err := h.admin.DeleteUser(r.Context(), actor, target); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user deleted", "username", target, "admin", actor.Username)
	render.JSON(w, r, statusResponse{Success: true, Message: "user deleted"})
}
