package store

import (
	"errors"
	"testing"

	"github.com/mlahtinen/paced/internal/model"
)

func TestPushSaveAndReassign(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "ext-push-a")
	bob := createTestUser(t, db, "ext-push-b")
	ps := NewPushStore(db)

	sub, err := ps.Save(&model.PushSubscription{
		UserID:     alice.ID,
		Endpoint:   "https://push.example/ep-1",
		P256dhKey:  "p256dh",
		AuthKey:    "auth",
		DeviceName: "laptop",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if sub.ID == 0 {
		t.Fatal("expected assigned id")
	}

	// Re-subscribing from the same endpoint reassigns the row.
	moved, err := ps.Save(&model.PushSubscription{
		UserID:    bob.ID,
		Endpoint:  "https://push.example/ep-1",
		P256dhKey: "p256dh-2",
		AuthKey:   "auth-2",
	})
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if moved.UserID != bob.ID {
		t.Errorf("user = %d, want %d", moved.UserID, bob.ID)
	}

	aliceSubs, err := ps.ListByUser(alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(aliceSubs) != 0 {
		t.Errorf("alice still has %d subscriptions", len(aliceSubs))
	}

	if _, err := ps.Save(&model.PushSubscription{UserID: alice.ID, Endpoint: "https://push.example/ep-2"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing keys: err = %v, want ErrInvalidArgument", err)
	}
}

func TestPushDelete(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "ext-push-d")
	ps := NewPushStore(db)

	for _, ep := range []string{"https://push.example/d-1", "https://push.example/d-2"} {
		if _, err := ps.Save(&model.PushSubscription{
			UserID: user.ID, Endpoint: ep, P256dhKey: "k", AuthKey: "a",
		}); err != nil {
			t.Fatalf("save %s: %v", ep, err)
		}
	}

	if err := ps.DeleteByEndpoint("https://push.example/d-1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ := ps.ListByUser(user.ID)
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription left, got %d", len(subs))
	}

	if err := ps.DeleteByUser(user.ID); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	subs, _ = ps.ListByUser(user.ID)
	if len(subs) != 0 {
		t.Errorf("expected none left, got %d", len(subs))
	}
}
