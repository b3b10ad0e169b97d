package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/recovery"
)

type RewardHandler struct {
	rewards *recovery.RewardDispenser
	logger  *slog.Logger
}

func NewRewardHandler(rewards *recovery.RewardDispenser, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, logger: logger}
}

type awardRequest struct {
	StreakMilestone int `json:"streakMilestone"`
}

// Award handles POST /reward/award
func (h *RewardHandler) Award(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.rewards.Award(r.Context(), auth.AccountID(r.Context()), req.StreakMilestone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// List handles GET /reward
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.List(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}
