package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("empty context should have no identity")
	}
	if UserID(ctx) != 0 {
		t.Errorf("UserID on empty context = %d, want 0", UserID(ctx))
	}

	id := Identity{UserID: 42, ExternalID: "idp|42", Name: "Maija"}
	ctx = WithIdentity(ctx, id)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got != id {
		t.Errorf("got %+v, want %+v", got, id)
	}
	if UserID(ctx) != 42 {
		t.Errorf("UserID = %d, want 42", UserID(ctx))
	}
}

func TestVerifier(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Claims{
		Name:  "Pekka",
		Email: "pekka@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp|pekka",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.ExternalID != "idp|pekka" || id.Name != "Pekka" {
		t.Errorf("identity = %+v", id)
	}
	if id.UserID != 0 {
		t.Errorf("UserID should be unresolved, got %d", id.UserID)
	}
}

func TestVerifierRejections(t *testing.T) {
	v := NewVerifier("test-secret")

	expired, err := v.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp|old",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}

	noSubject, err := v.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing subject: err = %v, want ErrInvalidToken", err)
	}

	other := NewVerifier("other-secret")
	good, err := other.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp|x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(good); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidToken", err)
	}

	if _, err := v.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v, want ErrInvalidToken", err)
	}
}
