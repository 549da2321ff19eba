package model

import "time"

// DailyEntry is the committed ledger record of how many items of a category
// were completed on a specific date. At most one entry exists per
// (category, date); writes go through the delta upsert in EntryStore.
type DailyEntry struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	CourseID   int64     `json:"course_id"`
	UserID     int64     `json:"user_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Completed  int       `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StudyLog is a per-course, per-day journal record (mood, difficulty, note).
// Its dates count as streak activity alongside daily entries.
type StudyLog struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CourseID    int64     `json:"course_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Mood        int       `json:"mood"`
	Difficulty  int       `json:"difficulty"`
	Note        string    `json:"note,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
