package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mlahtinen/paced/internal/checklist"
	"github.com/mlahtinen/paced/internal/database"
	"github.com/mlahtinen/paced/internal/model"
)

func itemIDFor(categoryID int64, index int) string {
	return checklist.ItemID{CategoryID: categoryID, Index: index}.String()
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	// Open as-is: stores must work with exactly what production connections
	// get, foreign-key enforcement included.
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, externalID string) *model.User {
	t.Helper()
	user, err := NewUserStore(db).GetOrCreate(externalID, "Test User", externalID+"@example.com", "")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestCourse(t *testing.T, db *sql.DB, userID int64) *model.Course {
	t.Helper()
	end := time.Now().UTC().AddDate(0, 0, 30)
	course, err := NewCourseStore(db).Create(userID, "Spanish B2", "", nil, nil, &end, "#4ade80", "book")
	if err != nil {
		t.Fatalf("create test course: %v", err)
	}
	return course
}

func createTestCategory(t *testing.T, db *sql.DB, courseID int64, name string, total int) *model.Category {
	t.Helper()
	cat, err := NewCategoryStore(db).Create(courseID, name, "pencil", "#60a5fa", total)
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	return cat
}
