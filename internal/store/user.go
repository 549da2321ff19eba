package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/studycode"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, external_id, name, email, image_url, study_code, last_active, daily_goal_met, current_streak, longest_streak, last_completed_date, onboarding_complete, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var goalMet, onboarding int
	var lastCompleted sql.NullString

	err := scanner.Scan(
		&u.ID, &u.ExternalID, &u.Name, &u.Email, &u.ImageURL, &u.StudyCode,
		&u.LastActive, &goalMet, &u.CurrentStreak, &u.LongestStreak,
		&lastCompleted, &onboarding, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.DailyGoalMet = goalMet != 0
	u.OnboardingComplete = onboarding != 0
	if lastCompleted.Valid {
		u.LastCompletedDate = &lastCompleted.String
	}
	return &u, nil
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByExternalID(externalID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, nil
}

// GetByStudyCode looks a user up by their share code, case-insensitively.
func (s *UserStore) GetByStudyCode(code string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE study_code = ?`, strings.ToUpper(code))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by study code: %w", err)
	}
	return u, nil
}

// GetOrCreate syncs a user from the external identity provider: an existing
// row gets its profile fields and lastActive refreshed, a missing one is
// created with a fresh unique study code.
func (s *UserStore) GetOrCreate(externalID, name, email, imageURL string) (*model.User, error) {
	existing, err := s.GetByExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if _, err := s.db.Exec(
			`UPDATE users SET name = ?, email = ?, image_url = ?, last_active = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			name, email, imageURL, existing.ID,
		); err != nil {
			return nil, fmt.Errorf("sync user: %w", err)
		}
		return s.GetByID(existing.ID)
	}

	// Study codes are unique; retry on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := studycode.Generate(studycode.StudyCodeLength)
		if err != nil {
			return nil, err
		}
		result, err := s.db.Exec(
			`INSERT INTO users (external_id, name, email, image_url, study_code) VALUES (?, ?, ?, ?, ?)`,
			externalID, name, email, imageURL, code,
		)
		if err != nil {
			if strings.Contains(err.Error(), "users.study_code") {
				continue
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(id)
	}
	return nil, fmt.Errorf("generate unique study code: too many collisions")
}

func (s *UserStore) UpdateProfile(id int64, name, imageURL string, onboardingComplete bool) (*model.User, error) {
	var onboarding int
	if onboardingComplete {
		onboarding = 1
	}
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, image_url = ?, onboarding_complete = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, imageURL, onboarding, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

// UpdateStreakCache refreshes the denormalized streak columns. The values
// are derived by the streak package from activity dates; the cache exists
// so friend listings don't recompute every user's streak per request.
func (s *UserStore) UpdateStreakCache(id int64, current, longest int, lastCompletedDate string, goalMet bool) error {
	var goal int
	if goalMet {
		goal = 1
	}
	var lastDate sql.NullString
	if lastCompletedDate != "" {
		lastDate = sql.NullString{String: lastCompletedDate, Valid: true}
	}
	result, err := s.db.Exec(
		`UPDATE users SET current_streak = ?, longest_streak = ?, last_completed_date = ?, daily_goal_met = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current, longest, lastDate, goal, id,
	)
	if err != nil {
		return fmt.Errorf("update streak cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// ActivityDates returns the user's distinct activity dates, most recent
// first, drawn from both the daily-entry ledger and study logs. The limit
// bounds the lookback; streaks longer than the window are effectively
// capped at it.
func (s *UserStore) ActivityDates(userID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 60
	}
	rows, err := s.db.Query(
		`SELECT date FROM daily_entries WHERE user_id = ?
		 UNION
		 SELECT date FROM study_logs WHERE user_id = ?
		 ORDER BY date DESC LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("activity dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
