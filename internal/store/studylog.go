package store

import (
	"database/sql"
	"fmt"

	"github.com/mlahtinen/paced/internal/model"
)

type StudyLogStore struct {
	db *sql.DB
}

func NewStudyLogStore(db *sql.DB) *StudyLogStore {
	return &StudyLogStore{db: db}
}

const studyLogCols = `id, user_id, course_id, date, mood, difficulty, note, completed_at`

func scanStudyLog(scanner interface{ Scan(...any) error }) (*model.StudyLog, error) {
	var l model.StudyLog
	err := scanner.Scan(
		&l.ID, &l.UserID, &l.CourseID, &l.Date,
		&l.Mood, &l.Difficulty, &l.Note, &l.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Upsert writes the day's journal record for a course; a second save on the
// same date overwrites the first.
func (s *StudyLogStore) Upsert(userID, courseID int64, date string, mood, difficulty int, note string) (*model.StudyLog, error) {
	if !validDate(date) {
		return nil, fmt.Errorf("date %q: %w", date, ErrInvalidArgument)
	}

	_, err := s.db.Exec(
		`INSERT INTO study_logs (user_id, course_id, date, mood, difficulty, note)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(course_id, date) DO UPDATE SET
		   mood = excluded.mood,
		   difficulty = excluded.difficulty,
		   note = excluded.note,
		   completed_at = CURRENT_TIMESTAMP`,
		userID, courseID, date, mood, difficulty, note,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert study log: %w", err)
	}
	return s.GetByCourseAndDate(courseID, date)
}

func (s *StudyLogStore) GetByCourseAndDate(courseID int64, date string) (*model.StudyLog, error) {
	row := s.db.QueryRow(
		`SELECT `+studyLogCols+` FROM study_logs WHERE course_id = ? AND date = ?`,
		courseID, date,
	)
	l, err := scanStudyLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get study log: %w", err)
	}
	return l, nil
}

func (s *StudyLogStore) ListByUser(userID int64, limit int) ([]model.StudyLog, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.Query(
		`SELECT `+studyLogCols+` FROM study_logs WHERE user_id = ? ORDER BY date DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list study logs: %w", err)
	}
	defer rows.Close()
	return collectStudyLogs(rows)
}

func (s *StudyLogStore) ListByCourse(courseID int64, limit int) ([]model.StudyLog, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.Query(
		`SELECT `+studyLogCols+` FROM study_logs WHERE course_id = ? ORDER BY date DESC LIMIT ?`,
		courseID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list study logs by course: %w", err)
	}
	defer rows.Close()
	return collectStudyLogs(rows)
}

func collectStudyLogs(rows *sql.Rows) ([]model.StudyLog, error) {
	var logs []model.StudyLog
	for rows.Next() {
		l, err := scanStudyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}
