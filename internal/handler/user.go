package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/store"
	"github.com/mlahtinen/paced/internal/streak"
)

const dateLayout = "2006-01-02"

type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, logger: logger}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name               string `json:"name"`
		ImageURL           string `json:"image_url"`
		OnboardingComplete bool   `json:"onboarding_complete"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.users.UpdateProfile(auth.UserID(r.Context()), req.Name, req.ImageURL, req.OnboardingComplete)
	if err != nil {
		writeStoreError(w, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// streakResponse is streak.Data plus the all-time longest run, which the
// walk from today cannot see on its own.
type streakResponse struct {
	streak.Data
	LongestStreak int `json:"longest_streak"`
}

func (h *UserHandler) Streak(w http.ResponseWriter, r *http.Request) {
	resp, err := refreshStreak(h.users, auth.UserID(r.Context()), time.Now())
	if err != nil {
		h.logger.Error("Failed to compute streak", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute streak")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// refreshStreak recomputes the user's streak from activity dates and writes
// the result back to the cached columns so friend listings stay current.
func refreshStreak(users *store.UserStore, userID int64, now time.Time) (*streakResponse, error) {
	dates, err := users.ActivityDates(userID, 365)
	if err != nil {
		return nil, err
	}

	data := streak.Compute(dates, now)
	longest := streak.Longest(dates)
	if data.CurrentStreak > longest {
		longest = data.CurrentStreak
	}
	// The activity window is bounded, so never shrink the recorded longest.
	if user, err := users.GetByID(userID); err == nil && user != nil && user.LongestStreak > longest {
		longest = user.LongestStreak
	}

	today := now.Format(dateLayout)
	goalMet := false
	lastCompleted := ""
	if len(data.RecentDates) > 0 {
		lastCompleted = data.RecentDates[0]
		goalMet = lastCompleted == today
	}

	if err := users.UpdateStreakCache(userID, data.CurrentStreak, longest, lastCompleted, goalMet); err != nil {
		return nil, err
	}

	return &streakResponse{Data: data, LongestStreak: longest}, nil
}
