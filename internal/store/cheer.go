package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mlahtinen/paced/internal/model"
)

const cheerMessageMax = 280

type CheerStore struct {
	db *sql.DB
}

func NewCheerStore(db *sql.DB) *CheerStore {
	return &CheerStore{db: db}
}

// Create records an encouragement from one user to another. Only accepted
// friends may cheer each other; the handler enforces that via AreFriends.
func (s *CheerStore) Create(fromUserID, toUserID int64, message, emoji string) (*model.Cheer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required: %w", ErrInvalidArgument)
	}
	if len(message) > cheerMessageMax {
		return nil, fmt.Errorf("message exceeds %d characters: %w", cheerMessageMax, ErrInvalidArgument)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("cannot cheer yourself: %w", ErrInvalidArgument)
	}

	result, err := s.db.Exec(
		`INSERT INTO cheers (from_user_id, to_user_id, message, emoji) VALUES (?, ?, ?, ?)`,
		fromUserID, toUserID, message, emoji,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cheer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func scanCheer(scanner interface{ Scan(...any) error }) (*model.Cheer, error) {
	var c model.Cheer
	var read int
	err := scanner.Scan(&c.ID, &c.FromUserID, &c.ToUserID, &c.Message, &c.Emoji, &read, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Read = read != 0
	return &c, nil
}

const cheerCols = `id, from_user_id, to_user_id, message, emoji, read, created_at`

func (s *CheerStore) GetByID(id int64) (*model.Cheer, error) {
	row := s.db.QueryRow(`SELECT `+cheerCols+` FROM cheers WHERE id = ?`, id)
	c, err := scanCheer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cheer: %w", err)
	}
	return c, nil
}

// ListForUser returns cheers received by the user, newest first.
func (s *CheerStore) ListForUser(toUserID int64, limit int) ([]*model.Cheer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+cheerCols+` FROM cheers WHERE to_user_id = ? ORDER BY created_at DESC LIMIT ?`,
		toUserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list cheers: %w", err)
	}
	defer rows.Close()

	var cheers []*model.Cheer
	for rows.Next() {
		c, err := scanCheer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cheer: %w", err)
		}
		cheers = append(cheers, c)
	}
	return cheers, rows.Err()
}

// MarkRead flags a received cheer as read. Only the recipient may mark it.
func (s *CheerStore) MarkRead(id, toUserID int64) error {
	result, err := s.db.Exec(
		`UPDATE cheers SET read = 1 WHERE id = ? AND to_user_id = ?`,
		id, toUserID,
	)
	if err != nil {
		return fmt.Errorf("mark cheer read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cheer %d for user %d: %w", id, toUserID, ErrNotFound)
	}
	return nil
}

// MarkAllRead flags every unread cheer for the user as read.
func (s *CheerStore) MarkAllRead(toUserID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE cheers SET read = 1 WHERE to_user_id = ? AND read = 0`, toUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark cheers read: %w", err)
	}
	return result.RowsAffected()
}

func (s *CheerStore) UnreadCount(toUserID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM cheers WHERE to_user_id = ? AND read = 0`, toUserID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread cheers: %w", err)
	}
	return count, nil
}
