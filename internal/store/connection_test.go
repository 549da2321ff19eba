package store

import (
	"errors"
	"testing"

	"github.com/mlahtinen/paced/internal/model"
)

func TestConnectionRequestAndAccept(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "ext-conn-alice")
	bob := createTestUser(t, db, "ext-conn-bob")
	cs := NewConnectionStore(db)

	conn, err := cs.Request(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if conn.Status != model.ConnectionPending {
		t.Errorf("status = %q, want pending", conn.Status)
	}

	// Not friends until accepted.
	friends, err := cs.AreFriends(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if friends {
		t.Error("pending request should not count as friendship")
	}

	// The requester cannot accept their own request.
	if err := cs.Accept(conn.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("self accept: err = %v, want ErrNotFound", err)
	}

	if err := cs.Accept(conn.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	friends, err = cs.AreFriends(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if !friends {
		t.Error("expected friendship after accept, in either direction")
	}
}

func TestConnectionRequestRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "ext-conn-dup-a")
	bob := createTestUser(t, db, "ext-conn-dup-b")
	cs := NewConnectionStore(db)

	if _, err := cs.Request(alice.ID, bob.ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := cs.Request(alice.ID, bob.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate: err = %v, want ErrInvalidArgument", err)
	}
	// The reverse direction is the same connection.
	if _, err := cs.Request(bob.ID, alice.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("reverse duplicate: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := cs.Request(alice.ID, alice.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("self: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := cs.Request(alice.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown friend: err = %v, want ErrNotFound", err)
	}
}

func TestConnectionListForUser(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "ext-conn-list-a")
	bob := createTestUser(t, db, "ext-conn-list-b")
	carol := createTestUser(t, db, "ext-conn-list-c")
	cs := NewConnectionStore(db)
	us := NewUserStore(db)

	// Alice requested Bob; Carol requested Alice.
	if _, err := cs.Request(alice.ID, bob.ID); err != nil {
		t.Fatalf("request bob: %v", err)
	}
	if _, err := cs.Request(carol.ID, alice.ID); err != nil {
		t.Fatalf("request from carol: %v", err)
	}
	if err := us.UpdateStreakCache(bob.ID, 3, 7, "2026-08-28", true); err != nil {
		t.Fatalf("streak cache: %v", err)
	}

	list, err := cs.ListForUser(alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(list))
	}

	byUser := make(map[int64]Friend, len(list))
	for _, f := range list {
		byUser[f.UserID] = f
	}

	bobSide, ok := byUser[bob.ID]
	if !ok {
		t.Fatal("bob missing from list")
	}
	if bobSide.Incoming {
		t.Error("request to bob should be outgoing")
	}
	if bobSide.CurrentStreak != 3 || bobSide.LongestStreak != 7 {
		t.Errorf("bob streaks = %d/%d, want 3/7", bobSide.CurrentStreak, bobSide.LongestStreak)
	}
	if !bobSide.DailyGoalMet {
		t.Error("expected bob's goal met flag carried through")
	}

	carolSide, ok := byUser[carol.ID]
	if !ok {
		t.Fatal("carol missing from list")
	}
	if !carolSide.Incoming {
		t.Error("request from carol should be incoming")
	}
	if carolSide.Status != model.ConnectionPending {
		t.Errorf("carol status = %q, want pending", carolSide.Status)
	}
}

func TestConnectionRemove(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "ext-conn-rm-a")
	bob := createTestUser(t, db, "ext-conn-rm-b")
	mallory := createTestUser(t, db, "ext-conn-rm-m")
	cs := NewConnectionStore(db)

	conn, err := cs.Request(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// A third party cannot remove someone else's connection.
	if err := cs.Remove(conn.ID, mallory.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("outsider remove: err = %v, want ErrNotFound", err)
	}

	if err := cs.Remove(conn.ID, bob.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := cs.GetByID(conn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected connection deleted")
	}
}
