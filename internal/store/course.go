package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlahtinen/paced/internal/checklist"
	"github.com/mlahtinen/paced/internal/model"
)

type CourseStore struct {
	db *sql.DB
}

func NewCourseStore(db *sql.DB) *CourseStore {
	return &CourseStore{db: db}
}

const courseCols = `id, user_id, milestone_id, title, description, start_date, end_date, last_updated, checked_items, color, icon, created_at, updated_at`

func scanCourse(scanner interface{ Scan(...any) error }) (*model.Course, error) {
	var c model.Course
	var milestoneID sql.NullInt64
	var startDate, endDate sql.NullTime
	var checkedJSON string

	err := scanner.Scan(
		&c.ID, &c.UserID, &milestoneID, &c.Title, &c.Description,
		&startDate, &endDate, &c.LastUpdated, &checkedJSON,
		&c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if milestoneID.Valid {
		c.MilestoneID = &milestoneID.Int64
	}
	if startDate.Valid {
		t := startDate.Time
		c.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		c.EndDate = &t
	}
	if err := json.Unmarshal([]byte(checkedJSON), &c.CheckedItems); err != nil {
		return nil, fmt.Errorf("decode checked items: %w", err)
	}
	if c.CheckedItems == nil {
		c.CheckedItems = []string{}
	}
	return &c, nil
}

func encodeChecked(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode checked items: %w", err)
	}
	return string(data), nil
}

func (s *CourseStore) Create(userID int64, title, description string, milestoneID *int64, startDate, endDate *time.Time, color, icon string) (*model.Course, error) {
	var mID sql.NullInt64
	if milestoneID != nil {
		mID = sql.NullInt64{Int64: *milestoneID, Valid: true}
	}
	var sd, ed sql.NullTime
	if startDate != nil {
		sd = sql.NullTime{Time: *startDate, Valid: true}
	}
	if endDate != nil {
		ed = sql.NullTime{Time: *endDate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO courses (user_id, title, description, milestone_id, start_date, end_date, color, icon) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, title, description, mID, sd, ed, color, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CourseStore) GetByID(id int64) (*model.Course, error) {
	row := s.db.QueryRow(`SELECT `+courseCols+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *CourseStore) ListByUser(userID int64) ([]model.Course, error) {
	rows, err := s.db.Query(
		`SELECT `+courseCols+` FROM courses WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	return collectCourses(rows)
}

func (s *CourseStore) ListByMilestone(milestoneID int64) ([]model.Course, error) {
	rows, err := s.db.Query(
		`SELECT `+courseCols+` FROM courses WHERE milestone_id = ? ORDER BY created_at ASC, id ASC`,
		milestoneID,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses by milestone: %w", err)
	}
	defer rows.Close()
	return collectCourses(rows)
}

func collectCourses(rows *sql.Rows) ([]model.Course, error) {
	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

func (s *CourseStore) Update(id int64, title, description string, milestoneID *int64, startDate, endDate *time.Time, color, icon string) (*model.Course, error) {
	var mID sql.NullInt64
	if milestoneID != nil {
		mID = sql.NullInt64{Int64: *milestoneID, Valid: true}
	}
	var sd, ed sql.NullTime
	if startDate != nil {
		sd = sql.NullTime{Time: *startDate, Valid: true}
	}
	if endDate != nil {
		ed = sql.NullTime{Time: *endDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE courses SET title = ?, description = ?, milestone_id = ?, start_date = ?, end_date = ?, color = ?, icon = ?,
		 last_updated = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, mID, sd, ed, color, icon, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return s.GetByID(id)
}

func (s *CourseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ToggleCheckItem adds or removes one checklist slot in the course's
// checked set. When the stored set belongs to an earlier calendar day it is
// discarded first (lazy rollover); lastUpdated is always stamped to now.
func (s *CourseStore) ToggleCheckItem(id int64, itemID string, checked bool, now time.Time) (*model.Course, error) {
	if _, err := checklist.ParseItemID(itemID); err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrInvalidArgument)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+courseCols+` FROM courses WHERE id = ?`, id)
	course, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	items := checklist.ActiveChecked(*course, now)

	if checked {
		found := false
		for _, it := range items {
			if it == itemID {
				found = true
				break
			}
		}
		if !found {
			items = append(items, itemID)
		}
	} else {
		kept := items[:0]
		for _, it := range items {
			if it != itemID {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	encoded, err := encodeChecked(items)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		`UPDATE courses SET checked_items = ?, last_updated = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		encoded, now.UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("update checked items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// CompleteDay folds every category's same-day scratch counter into its
// lifetime counter (capped at total), zeroes the scratch counters, clears
// the checklist, and records the folded amounts in the daily-entry ledger
// for now's date. The whole fold is one transaction. Returns the number of
// items folded; calling it again immediately folds nothing.
func (s *CourseStore) CompleteDay(id int64, now time.Time) (int, error) {
	date := now.Format(dateLayout)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+courseCols+` FROM courses WHERE id = ?`, id)
	course, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get course: %w", err)
	}

	rows, err := tx.Query(`SELECT `+categoryCols+` FROM categories WHERE course_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	var cats []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}

	folded := 0
	for _, cat := range cats {
		if cat.TodayCompleted == 0 {
			continue
		}

		completed := cat.Completed + cat.TodayCompleted
		if completed > cat.Total {
			completed = cat.Total
		}
		if completed < 0 {
			completed = 0
		}

		if _, err := tx.Exec(
			`UPDATE categories SET completed = ?, today_completed = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			completed, cat.ID,
		); err != nil {
			return 0, fmt.Errorf("fold category %d: %w", cat.ID, err)
		}

		// Ledger-only write: the counter was already adjusted by the fold,
		// so the entry is topped up without re-applying a delta.
		if _, err := tx.Exec(
			`INSERT INTO daily_entries (category_id, course_id, user_id, date, completed)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(category_id, date) DO UPDATE SET
			   completed = completed + excluded.completed,
			   updated_at = CURRENT_TIMESTAMP`,
			cat.ID, id, course.UserID, date, cat.TodayCompleted,
		); err != nil {
			return 0, fmt.Errorf("record entry for category %d: %w", cat.ID, err)
		}
		folded += cat.TodayCompleted
	}

	if _, err := tx.Exec(
		`UPDATE courses SET checked_items = '[]', last_updated = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		now.UTC(), id,
	); err != nil {
		return 0, fmt.Errorf("clear checklist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return folded, nil
}
