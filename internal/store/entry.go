package store

import (
	"database/sql"
	"fmt"

	"github.com/mlahtinen/paced/internal/model"
)

type EntryStore struct {
	db *sql.DB
}

func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

const entryCols = `id, category_id, course_id, user_id, date, completed, created_at, updated_at`

func scanEntry(scanner interface{ Scan(...any) error }) (*model.DailyEntry, error) {
	var e model.DailyEntry
	err := scanner.Scan(
		&e.ID, &e.CategoryID, &e.CourseID, &e.UserID,
		&e.Date, &e.Completed, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert writes the committed count for (categoryID, date), keeping at most
// one entry per key. The category's lifetime counter absorbs only the delta
// between the new and previous value, floored at 0, so rewriting the same
// value is a no-op. Entry write and counter adjustment commit together.
func (s *EntryStore) Upsert(categoryID, courseID, userID int64, date string, completed int) (*model.DailyEntry, error) {
	if !validDate(date) {
		return nil, fmt.Errorf("date %q: %w", date, ErrInvalidArgument)
	}
	if completed < 0 {
		return nil, fmt.Errorf("completed must be non-negative: %w", ErrInvalidArgument)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertInTx(tx, categoryID, courseID, userID, date, completed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// upsertInTx performs the read-then-write delta upsert for one key inside
// the caller's transaction. The category must belong to courseID; a ledger
// row must never pair one course's id with another course's category.
func upsertInTx(tx *sql.Tx, categoryID, courseID, userID int64, date string, completed int) (int64, error) {
	var catCompleted int
	var catCourseID int64
	err := tx.QueryRow(`SELECT completed, course_id FROM categories WHERE id = ?`, categoryID).Scan(&catCompleted, &catCourseID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get category: %w", err)
	}
	if catCourseID != courseID {
		return 0, fmt.Errorf("category %d not in course %d: %w", categoryID, courseID, ErrNotFound)
	}

	var entryID int64
	var oldCompleted int
	err = tx.QueryRow(
		`SELECT id, completed FROM daily_entries WHERE category_id = ? AND date = ?`,
		categoryID, date,
	).Scan(&entryID, &oldCompleted)

	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO daily_entries (category_id, course_id, user_id, date, completed) VALUES (?, ?, ?, ?, ?)`,
			categoryID, courseID, userID, date, completed,
		)
		if err != nil {
			return 0, fmt.Errorf("insert entry: %w", err)
		}
		entryID, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		catCompleted += completed
	case err != nil:
		return 0, fmt.Errorf("get entry: %w", err)
	default:
		if _, err := tx.Exec(
			`UPDATE daily_entries SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			completed, entryID,
		); err != nil {
			return 0, fmt.Errorf("update entry: %w", err)
		}
		catCompleted += completed - oldCompleted
	}

	if catCompleted < 0 {
		catCompleted = 0
	}
	if _, err := tx.Exec(
		`UPDATE categories SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		catCompleted, categoryID,
	); err != nil {
		return 0, fmt.Errorf("adjust category: %w", err)
	}

	return entryID, nil
}

// SaveDayItem is one category's committed count in a batch save.
type SaveDayItem struct {
	CategoryID int64 `json:"category_id"`
	Completed  int   `json:"completed"`
}

// SaveDay upserts one date's counts across multiple categories in a single
// transaction. Zero counts with no pre-existing entry are skipped so the
// ledger never accumulates empty rows; an existing entry may be overwritten
// down to zero.
func (s *EntryStore) SaveDay(courseID, userID int64, date string, items []SaveDayItem) error {
	if !validDate(date) {
		return fmt.Errorf("date %q: %w", date, ErrInvalidArgument)
	}
	for _, it := range items {
		if it.Completed < 0 {
			return fmt.Errorf("completed must be non-negative: %w", ErrInvalidArgument)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		if it.Completed == 0 {
			var exists int
			err := tx.QueryRow(
				`SELECT COUNT(*) FROM daily_entries WHERE category_id = ? AND date = ?`,
				it.CategoryID, date,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check entry: %w", err)
			}
			if exists == 0 {
				continue
			}
		}
		if _, err := upsertInTx(tx, it.CategoryID, courseID, userID, date, it.Completed); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Remove deletes an entry, first handing its committed count back out of the
// category's lifetime counter (floored at 0).
func (s *EntryStore) Remove(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+entryCols+` FROM daily_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE categories SET completed = MAX(0, completed - ?), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		entry.Completed, entry.CategoryID,
	); err != nil {
		return fmt.Errorf("adjust category: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM daily_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return tx.Commit()
}

func (s *EntryStore) GetByID(id int64) (*model.DailyEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM daily_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// GetByKey returns the single entry for (categoryID, date), or nil.
func (s *EntryStore) GetByKey(categoryID int64, date string) (*model.DailyEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryCols+` FROM daily_entries WHERE category_id = ? AND date = ?`,
		categoryID, date,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry by key: %w", err)
	}
	return e, nil
}

func (s *EntryStore) ListByCategory(categoryID int64) ([]model.DailyEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM daily_entries WHERE category_id = ? ORDER BY date DESC`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries by category: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListByCourseAndDateRange returns the course's entries with start <= date <= end.
func (s *EntryStore) ListByCourseAndDateRange(courseID int64, start, end string) ([]model.DailyEntry, error) {
	if !validDate(start) || !validDate(end) {
		return nil, fmt.Errorf("date range %q..%q: %w", start, end, ErrInvalidArgument)
	}
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM daily_entries WHERE course_id = ? AND date >= ? AND date <= ? ORDER BY date DESC`,
		courseID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries by range: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.DailyEntry, error) {
	var entries []model.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
