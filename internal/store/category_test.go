package store

import (
	"errors"
	"testing"
)

func TestCategoryCreateAssignsOrder(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-cat-1")
	course := createTestCourse(t, db, user.ID)
	cs := NewCategoryStore(db)

	first, err := cs.Create(course.ID, "Vocabulary", "pencil", "#60a5fa", 100)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := cs.Create(course.ID, "Grammar", "book", "#f472b6", 50)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.SortOrder != 0 {
		t.Errorf("first sort order = %d, want 0", first.SortOrder)
	}
	if second.SortOrder != 1 {
		t.Errorf("second sort order = %d, want 1", second.SortOrder)
	}
	if first.Completed != 0 || first.TodayCompleted != 0 {
		t.Errorf("new category counters = %d/%d, want 0/0", first.Completed, first.TodayCompleted)
	}

	if _, err := cs.Create(course.ID, "Bad", "x", "#fff", -1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative total: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := cs.Create(course.ID+999, "Orphan", "x", "#fff", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing course: err = %v, want ErrNotFound", err)
	}
}

func TestCategoryUpdateProgressClamping(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-cat-2")
	course := createTestCourse(t, db, user.ID)
	cat := createTestCategory(t, db, course.ID, "Grammar", 10)

	cs := NewCategoryStore(db)

	got, err := cs.UpdateProgress(cat.ID, 4)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got.Completed != 4 || got.TodayCompleted != 4 {
		t.Errorf("counters = %d/%d, want 4/4", got.Completed, got.TodayCompleted)
	}

	// Lifetime counter caps at total; the scratch counter keeps climbing.
	got, err = cs.UpdateProgress(cat.ID, 9)
	if err != nil {
		t.Fatalf("overshoot: %v", err)
	}
	if got.Completed != 10 {
		t.Errorf("completed = %d, want 10", got.Completed)
	}
	if got.TodayCompleted != 13 {
		t.Errorf("today = %d, want 13", got.TodayCompleted)
	}

	// Decrement floors both at zero.
	got, err = cs.UpdateProgress(cat.ID, -100)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got.Completed != 0 || got.TodayCompleted != 0 {
		t.Errorf("counters = %d/%d, want 0/0", got.Completed, got.TodayCompleted)
	}

	if _, err := cs.UpdateProgress(cat.ID+999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing category: err = %v, want ErrNotFound", err)
	}
}

func TestCategoryResetDaily(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-cat-3")
	course := createTestCourse(t, db, user.ID)
	a := createTestCategory(t, db, course.ID, "Vocabulary", 100)
	b := createTestCategory(t, db, course.ID, "Grammar", 50)

	cs := NewCategoryStore(db)
	if _, err := cs.UpdateProgress(a.ID, 5); err != nil {
		t.Fatalf("tick a: %v", err)
	}
	if _, err := cs.UpdateProgress(b.ID, 2); err != nil {
		t.Fatalf("tick b: %v", err)
	}

	if err := cs.ResetDaily(course.ID); err != nil {
		t.Fatalf("reset daily: %v", err)
	}

	// Only the scratch counters reset; lifetime progress stays.
	gotA, _ := cs.GetByID(a.ID)
	if gotA.TodayCompleted != 0 || gotA.Completed != 5 {
		t.Errorf("a = %d/%d, want completed 5 today 0", gotA.Completed, gotA.TodayCompleted)
	}
	gotB, _ := cs.GetByID(b.ID)
	if gotB.TodayCompleted != 0 || gotB.Completed != 2 {
		t.Errorf("b = %d/%d, want completed 2 today 0", gotB.Completed, gotB.TodayCompleted)
	}
}

func TestCategoryReorder(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-cat-4")
	course := createTestCourse(t, db, user.ID)
	a := createTestCategory(t, db, course.ID, "A", 1)
	b := createTestCategory(t, db, course.ID, "B", 1)
	c := createTestCategory(t, db, course.ID, "C", 1)

	cs := NewCategoryStore(db)
	if err := cs.Reorder([]int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	cats, err := cs.ListByCourse(course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"C", "A", "B"}
	for i, name := range want {
		if cats[i].Name != name {
			t.Errorf("cats[%d] = %q, want %q", i, cats[i].Name, name)
		}
	}
}

func TestCategoryDeleteCascadesEntries(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-cat-5")
	course := createTestCourse(t, db, user.ID)
	cat := createTestCategory(t, db, course.ID, "Vocabulary", 100)

	es := NewEntryStore(db)
	if _, err := es.Upsert(cat.ID, course.ID, user.ID, "2026-08-28", 3); err != nil {
		t.Fatalf("upsert entry: %v", err)
	}

	cs := NewCategoryStore(db)
	if err := cs.Delete(cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	gone, err := cs.GetByID(cat.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if gone != nil {
		t.Error("expected category to be deleted")
	}
	entries, err := es.ListByCategory(cat.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected entries removed with category, got %d", len(entries))
	}
}
