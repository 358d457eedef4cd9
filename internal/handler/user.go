package handler

import (
	"log/slog"
	"net/http"

	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/service"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUserHandler(authSvc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: authSvc, logger: logger}
}

// HandleMe returns the caller's profile.
//
// GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateMe changes the caller's handle.
//
// PATCH /api/users/me {handle}
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Handle string `json:"handle"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.UpdateHandle(r.Context(), userID, req.Handle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
