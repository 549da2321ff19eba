package store

import "testing"

func TestStudyLogUpsert(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-log-1")
	course := createTestCourse(t, db, user.ID)
	ls := NewStudyLogStore(db)

	log, err := ls.Upsert(user.ID, course.ID, "2026-08-28", 4, 2, "felt easy today")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if log.Mood != 4 || log.Difficulty != 2 {
		t.Errorf("mood/difficulty = %d/%d, want 4/2", log.Mood, log.Difficulty)
	}

	// Logging again for the same course and day replaces the entry.
	log2, err := ls.Upsert(user.ID, course.ID, "2026-08-28", 2, 4, "revised opinion")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if log2.ID != log.ID {
		t.Errorf("expected update of log %d, got %d", log.ID, log2.ID)
	}
	if log2.Mood != 2 || log2.Note != "revised opinion" {
		t.Errorf("log2 = %+v", log2)
	}

	logs, err := ls.ListByCourse(course.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one log per day, got %d", len(logs))
	}
}

func TestStudyLogListByUser(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-log-2")
	course := createTestCourse(t, db, user.ID)
	other := createTestCourse(t, db, user.ID)
	ls := NewStudyLogStore(db)

	if _, err := ls.Upsert(user.ID, course.ID, "2026-08-27", 3, 3, ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := ls.Upsert(user.ID, other.ID, "2026-08-28", 5, 1, ""); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	logs, err := ls.ListByUser(user.ID, 0)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs across courses, got %d", len(logs))
	}
	if logs[0].Date != "2026-08-28" {
		t.Errorf("newest first: logs[0].Date = %s", logs[0].Date)
	}
}
