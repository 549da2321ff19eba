package model

import "time"

type User struct {
	ID                 int64     `json:"id"`
	ExternalID         string    `json:"-"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	StudyCode          string    `json:"study_code"`
	LastActive         time.Time `json:"last_active"`
	DailyGoalMet       bool      `json:"daily_goal_met"`
	CurrentStreak      int       `json:"current_streak"`
	LongestStreak      int       `json:"longest_streak"`
	LastCompletedDate  *string   `json:"last_completed_date,omitempty"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
