package model

import "time"

type Course struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	MilestoneID *int64     `json:"milestone_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	// LastUpdated drives the lazy day rollover: when its calendar date
	// differs from today's, CheckedItems is treated as empty.
	LastUpdated  time.Time `json:"last_updated"`
	CheckedItems []string  `json:"checked_items"`
	Color        string    `json:"color"`
	Icon         string    `json:"icon"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Total    int    `json:"total"`
	// Completed is the lifetime progress counter, kept within [0, Total].
	Completed int `json:"completed"`
	// TodayCompleted is a same-day scratch counter. It is floored at 0 but
	// has no ceiling; CompleteDay reconciles any overshoot.
	TodayCompleted int       `json:"today_completed"`
	SortOrder      int       `json:"order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
