package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mlahtinen/paced/internal/model"
)

type MilestoneStore struct {
	db *sql.DB
}

func NewMilestoneStore(db *sql.DB) *MilestoneStore {
	return &MilestoneStore{db: db}
}

const milestoneCols = `id, user_id, title, description, deadline, is_completed, color, emoji, created_at, updated_at`

func scanMilestone(scanner interface{ Scan(...any) error }) (*model.Milestone, error) {
	var m model.Milestone
	var completed int
	err := scanner.Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &m.Deadline,
		&completed, &m.Color, &m.Emoji, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.IsCompleted = completed != 0
	return &m, nil
}

func (s *MilestoneStore) Create(userID int64, title, description string, deadline time.Time, color, emoji string) (*model.Milestone, error) {
	result, err := s.db.Exec(
		`INSERT INTO milestones (user_id, title, description, deadline, color, emoji) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, title, description, deadline.UTC(), color, emoji,
	)
	if err != nil {
		return nil, fmt.Errorf("insert milestone: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MilestoneStore) GetByID(id int64) (*model.Milestone, error) {
	row := s.db.QueryRow(`SELECT `+milestoneCols+` FROM milestones WHERE id = ?`, id)
	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get milestone: %w", err)
	}
	return m, nil
}

func (s *MilestoneStore) ListByUser(userID int64) ([]model.Milestone, error) {
	rows, err := s.db.Query(
		`SELECT `+milestoneCols+` FROM milestones WHERE user_id = ? ORDER BY deadline ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func (s *MilestoneStore) Update(id int64, title, description string, deadline time.Time, color, emoji string) (*model.Milestone, error) {
	_, err := s.db.Exec(
		`UPDATE milestones SET title = ?, description = ?, deadline = ?, color = ?, emoji = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, deadline.UTC(), color, emoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	return s.GetByID(id)
}

func (s *MilestoneStore) SetCompleted(id int64, completed bool) error {
	var v int
	if completed {
		v = 1
	}
	result, err := s.db.Exec(
		`UPDATE milestones SET is_completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, v, id,
	)
	if err != nil {
		return fmt.Errorf("set milestone completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("milestone %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MilestoneStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return nil
}
