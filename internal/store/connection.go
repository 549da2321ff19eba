package store

import (
	"database/sql"
	"fmt"

	"github.com/mlahtinen/paced/internal/model"
)

type ConnectionStore struct {
	db *sql.DB
}

func NewConnectionStore(db *sql.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

// Friend is a connection joined with the other user's public profile.
type Friend struct {
	ConnectionID  int64  `json:"connection_id"`
	Status        string `json:"status"`
	Incoming      bool   `json:"incoming"`
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	DailyGoalMet  bool   `json:"daily_goal_met"`
}

// Request creates a pending connection from userID to friendID. Self
// connections and duplicates (in either direction) are rejected.
func (s *ConnectionStore) Request(userID, friendID int64) (*model.Connection, error) {
	if userID == friendID {
		return nil, fmt.Errorf("cannot connect to yourself: %w", ErrInvalidArgument)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var friendExists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, friendID).Scan(&friendExists); err != nil {
		return nil, fmt.Errorf("check friend: %w", err)
	}
	if friendExists == 0 {
		return nil, fmt.Errorf("user %d: %w", friendID, ErrNotFound)
	}

	var existing int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM connections WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("connection already exists: %w", ErrInvalidArgument)
	}

	result, err := tx.Exec(
		`INSERT INTO connections (user_id, friend_id, status) VALUES (?, ?, ?)`,
		userID, friendID, model.ConnectionPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
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

func (s *ConnectionStore) GetByID(id int64) (*model.Connection, error) {
	var c model.Connection
	err := s.db.QueryRow(
		`SELECT id, user_id, friend_id, status, created_at FROM connections WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.FriendID, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &c, nil
}

// Accept marks a pending request as accepted. Only the recipient may accept.
func (s *ConnectionStore) Accept(id, userID int64) error {
	result, err := s.db.Exec(
		`UPDATE connections SET status = ? WHERE id = ? AND friend_id = ? AND status = ?`,
		model.ConnectionAccepted, id, userID, model.ConnectionPending,
	)
	if err != nil {
		return fmt.Errorf("accept connection: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending connection %d for user %d: %w", id, userID, ErrNotFound)
	}
	return nil
}

// Remove deletes a connection; either side may remove it.
func (s *ConnectionStore) Remove(id, userID int64) error {
	result, err := s.db.Exec(
		`DELETE FROM connections WHERE id = ? AND (user_id = ? OR friend_id = ?)`,
		id, userID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("connection %d for user %d: %w", id, userID, ErrNotFound)
	}
	return nil
}

// AreFriends reports whether an accepted connection exists between the two
// users in either direction.
func (s *ConnectionStore) AreFriends(a, b int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM connections
		 WHERE status = ? AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))`,
		model.ConnectionAccepted, a, b, b, a,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return count > 0, nil
}

// ListForUser returns the user's connections joined with each friend's
// profile and cached streak, pending requests included.
func (s *ConnectionStore) ListForUser(userID int64) ([]Friend, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.status, c.friend_id = ?1 AS incoming,
		        u.id, u.name, u.image_url, u.current_streak, u.longest_streak, u.daily_goal_met
		 FROM connections c
		 JOIN users u ON u.id = CASE WHEN c.user_id = ?1 THEN c.friend_id ELSE c.user_id END
		 WHERE c.user_id = ?1 OR c.friend_id = ?1
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		var incoming, goalMet int
		if err := rows.Scan(
			&f.ConnectionID, &f.Status, &incoming,
			&f.UserID, &f.Name, &f.ImageURL, &f.CurrentStreak, &f.LongestStreak, &goalMet,
		); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		f.Incoming = incoming != 0
		f.DailyGoalMet = goalMet != 0
		friends = append(friends, f)
	}
	return friends, rows.Err()
}
