package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendInvitation(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@paced.test", "https://paced.test", WithAPIURL(server.URL))

	err := client.SendInvitation("friend@example.com", "Maija", "ABCD2345", "tok-123")
	if err != nil {
		t.Fatalf("send invitation: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "friend@example.com" {
		t.Errorf("To = %q", received.To)
	}
	if received.From != "noreply@paced.test" {
		t.Errorf("From = %q", received.From)
	}
	if !strings.Contains(received.Subject, "Maija") {
		t.Errorf("Subject = %q, want inviter name included", received.Subject)
	}
	if !strings.Contains(received.TextBody, "https://paced.test/invite?token=tok-123") {
		t.Errorf("TextBody missing invite link: %q", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "ABCD2345") {
		t.Errorf("TextBody missing invite code: %q", received.TextBody)
	}
}

func TestSendInvitationNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@paced.test", "https://paced.test")

	if err := client.SendInvitation("friend@example.com", "Maija", "ABCD2345", "tok"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendInvitationAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@paced.test", "https://paced.test", WithAPIURL(server.URL))

	if err := client.SendInvitation("friend@example.com", "Maija", "ABCD2345", "tok"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}
