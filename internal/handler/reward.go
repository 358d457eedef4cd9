package handler

import (
	"log/slog"
	"net/http"

	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/service"
)

// RewardHandler serves the daily check-in.
type RewardHandler struct {
	rewards *service.RewardService
	logger  *slog.Logger
}

func NewRewardHandler(rewards *service.RewardService, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, logger: logger}
}

// HandleClaim performs today's check-in draw. A repeat claim the same
// UTC day returns 409.
//
// POST /api/rewards/checkin
func (h *RewardHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	result, err := h.rewards.Claim(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleStatus reports whether today is claimed and the current streak.
//
// GET /api/rewards/checkin
func (h *RewardHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	status, err := h.rewards.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
