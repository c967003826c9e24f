package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kamermarket/checkout-service-go/internal/rewards"
)

type RewardsHandler struct {
	svc *rewards.Service
}

func NewRewardsHandler(svc *rewards.Service) *RewardsHandler {
	return &RewardsHandler{svc: svc}
}

type spinResponse struct {
	Prize  rewards.Prize   `json:"prize"`
	Reward *rewards.Reward `json:"reward,omitempty"`
}

// Spin runs the user's daily wheel spin. A second spin on the same day is a
// conflict.
func (h *RewardsHandler) Spin(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	prize, reward, err := h.svc.SpinDaily(ctx, userID)
	if err != nil {
		if errors.Is(err, rewards.ErrAlreadySpunToday) {
			writeError(w, http.StatusConflict, "already spun today")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record spin")
		return
	}

	writeJSON(w, http.StatusOK, spinResponse{Prize: prize, Reward: reward})
}

func (h *RewardsHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.svc.ListRewards(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rewards")
		return
	}

	writeJSON(w, http.StatusOK, list)
}
