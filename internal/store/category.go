package store

import (
	"database/sql"
	"fmt"

	"github.com/mlahtinen/paced/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `id, course_id, name, icon, color, total, completed, today_completed, sort_order, created_at, updated_at`

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	err := scanner.Scan(
		&c.ID, &c.CourseID, &c.Name, &c.Icon, &c.Color,
		&c.Total, &c.Completed, &c.TodayCompleted, &c.SortOrder,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) GetByID(id int64) (*model.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListByCourse returns the course's categories in display order.
func (s *CategoryStore) ListByCourse(courseID int64) ([]model.Category, error) {
	rows, err := s.db.Query(
		`SELECT `+categoryCols+` FROM categories WHERE course_id = ? ORDER BY sort_order ASC, id ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// Create inserts a category at the end of the course's display order.
func (s *CategoryStore) Create(courseID int64, name, icon, color string, total int) (*model.Category, error) {
	if total < 0 {
		return nil, fmt.Errorf("total must be non-negative: %w", ErrInvalidArgument)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM courses WHERE id = ?`, courseID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check course: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}

	var order int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM categories WHERE course_id = ?`, courseID,
	).Scan(&order); err != nil {
		return nil, fmt.Errorf("next sort order: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO categories (course_id, name, icon, color, total, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		courseID, name, icon, color, total, order,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *CategoryStore) Update(id int64, name, icon, color string, total int) (*model.Category, error) {
	if total < 0 {
		return nil, fmt.Errorf("total must be non-negative: %w", ErrInvalidArgument)
	}
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, icon = ?, color = ?, total = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, icon, color, total, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id)
}

// UpdateProgress adjusts the lifetime and same-day counters by increment.
// Completed is clamped to [0, total]; todayCompleted is only floored at 0,
// so the scratch counter may overshoot until CompleteDay reconciles it. The
// parent course's lastUpdated is stamped in the same transaction.
func (s *CategoryStore) UpdateProgress(id int64, increment int) (*model.Category, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	completed := clamp(cat.Completed+increment, 0, cat.Total)
	today := cat.TodayCompleted + increment
	if today < 0 {
		today = 0
	}

	if _, err := tx.Exec(
		`UPDATE categories SET completed = ?, today_completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		completed, today, id,
	); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE courses SET last_updated = CURRENT_TIMESTAMP WHERE id = ?`, cat.CourseID,
	); err != nil {
		return nil, fmt.Errorf("touch course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// ResetDaily zeroes the same-day counter for every category of the course.
func (s *CategoryStore) ResetDaily(courseID int64) error {
	_, err := s.db.Exec(`UPDATE categories SET today_completed = 0 WHERE course_id = ?`, courseID)
	if err != nil {
		return fmt.Errorf("reset daily: %w", err)
	}
	return nil
}

// Reorder assigns sort_order by position in ids.
func (s *CategoryStore) Reorder(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE categories SET sort_order = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("update sort order: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes the category and its daily entries so the ledger never
// references a dead category.
func (s *CategoryStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_entries WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category entries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
