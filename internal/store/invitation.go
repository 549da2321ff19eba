package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/studycode"
)

const invitationTTL = 7 * 24 * time.Hour

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

const invitationCols = `id, from_user_id, to_email, invite_code, token, status, created_at, expires_at`

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	err := scanner.Scan(
		&inv.ID, &inv.FromUserID, &inv.ToEmail, &inv.InviteCode, &inv.Token,
		&inv.Status, &inv.CreatedAt, &inv.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create issues a new invitation from the given user. The short invite code
// is for reading aloud; the token goes into the emailed link.
func (s *InvitationStore) Create(fromUserID int64, toEmail string) (*model.Invitation, error) {
	toEmail = strings.TrimSpace(strings.ToLower(toEmail))
	if toEmail == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := studycode.Generate(studycode.InviteCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		token := uuid.NewString()
		expires := time.Now().UTC().Add(invitationTTL)

		result, err := s.db.Exec(
			`INSERT INTO invitations (from_user_id, to_email, invite_code, token, expires_at) VALUES (?, ?, ?, ?, ?)`,
			fromUserID, toEmail, code, token, expires,
		)
		if err != nil {
			if strings.Contains(err.Error(), "invitations.invite_code") {
				continue
			}
			return nil, fmt.Errorf("insert invitation: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(id)
	}
	return nil, fmt.Errorf("generate invite code: exhausted retries")
}

func (s *InvitationStore) GetByID(id int64) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) GetByCode(code string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE invite_code = ?`, strings.ToUpper(strings.TrimSpace(code)))
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by code: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) GetByToken(token string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE token = ?`, token)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) ListByUser(fromUserID int64) ([]*model.Invitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM invitations WHERE from_user_id = ? ORDER BY created_at DESC`,
		fromUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []*model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// Accept redeems an invitation for the given user: marks it accepted and
// creates an accepted connection between inviter and acceptor. Expired or
// already-redeemed invitations fail.
func (s *InvitationStore) Accept(inv *model.Invitation, userID int64, now time.Time) error {
	if inv.Status != model.InvitationPending {
		return fmt.Errorf("invitation already %s: %w", inv.Status, ErrInvalidArgument)
	}
	if now.After(inv.ExpiresAt) {
		return fmt.Errorf("invitation expired: %w", ErrInvalidArgument)
	}
	if inv.FromUserID == userID {
		return fmt.Errorf("cannot accept your own invitation: %w", ErrInvalidArgument)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE invitations SET status = ? WHERE id = ? AND status = ?`,
		model.InvitationAccepted, inv.ID, model.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("mark accepted: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("invitation already redeemed: %w", ErrInvalidArgument)
	}

	_, err = tx.Exec(
		`INSERT INTO connections (user_id, friend_id, status)
		 SELECT ?, ?, ?
		 WHERE NOT EXISTS (
		   SELECT 1 FROM connections WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
		 )`,
		inv.FromUserID, userID, model.ConnectionAccepted,
		inv.FromUserID, userID, userID, inv.FromUserID,
	)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}

	return tx.Commit()
}

// PruneExpired marks pending invitations past their expiry as expired.
func (s *InvitationStore) PruneExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE invitations SET status = ? WHERE status = ? AND expires_at < ?`,
		model.InvitationExpired, model.InvitationPending, now,
	)
	if err != nil {
		return 0, fmt.Errorf("prune invitations: %w", err)
	}
	return result.RowsAffected()
}
