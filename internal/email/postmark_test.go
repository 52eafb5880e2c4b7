package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSend(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "Yuvak Mandal <noreply@example.com>", WithAPIURL(server.URL), WithHTTPClient(server.Client()))

	err := client.Send(context.Background(), Message{To: "alice@example.com", Subject: "Sabha moved", Text: "Starts at 6pm"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "Yuvak Mandal <noreply@example.com>" {
		t.Errorf("From = %q", received.From)
	}
	if received.Subject != "Sabha moved" {
		t.Errorf("Subject = %q, want %q", received.Subject, "Sabha moved")
	}
	if received.TextBody != "Starts at 6pm" {
		t.Errorf("TextBody = %q, want %q", received.TextBody, "Starts at 6pm")
	}
	if received.MessageStream != "broadcast" {
		t.Errorf("MessageStream = %q, want %q", received.MessageStream, "broadcast")
	}
}

func TestClientSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode":406,"Message":"Recipient is inactive"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	err := client.Send(context.Background(), Message{To: "bounced@example.com"})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "Recipient is inactive") {
		t.Errorf("error = %q, want Postmark message", err)
	}
}

func TestClientSendAPIErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.Send(context.Background(), Message{To: "a@example.com"}); err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status 502", err)
	}
}

func TestClientSendNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")

	if err := client.Send(context.Background(), Message{To: "alice@example.com"}); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestClientSendCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.Send(ctx, Message{To: "alice@example.com"}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
