package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testMailer(t *testing.T, url string) *HTTPMailer {
	t.Helper()
	mailer := NewHTTPMailer(url, "test-key", "no-reply@studyhive.app", "StudyHive", zap.NewNop())
	mailer.MaxRetries = 2
	return mailer
}

func TestHTTPMailer_SendsWireFormat(t *testing.T) {
	var got mailSendRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	mailer := testMailer(t, server.URL)
	err := mailer.Send(context.Background(), EmailMessage{
		To:      "ada@example.com",
		ToName:  "Ada",
		Subject: "Hello",
		Text:    "hi",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "Bearer test-key" {
		t.Fatalf("Authorization = %q", auth)
	}
	if got.From.Email != "no-reply@studyhive.app" || len(got.To) != 1 || got.To[0].Email != "ada@example.com" {
		t.Fatalf("unexpected wire payload: %+v", got)
	}
}

func TestHTTPMailer_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mailer := testMailer(t, server.URL)
	done := make(chan error, 1)
	go func() {
		done <- mailer.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "s", Text: "t"})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Send after retries: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("send did not finish")
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestHTTPMailer_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	mailer := testMailer(t, server.URL)
	if err := mailer.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "s", Text: "t"}); err == nil {
		t.Fatal("400 must surface as an error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d, want 1 (no retries on 4xx)", calls)
	}
}

func TestHTTPMailer_RequiresRecipient(t *testing.T) {
	mailer := testMailer(t, "http://localhost:0")
	if err := mailer.Send(context.Background(), EmailMessage{Subject: "s"}); err == nil {
		t.Fatal("missing recipient must be rejected before any network call")
	}
}

func TestNoopMailer(t *testing.T) {
	mailer := NoopMailer{Log: zap.NewNop()}
	if err := mailer.Send(context.Background(), EmailMessage{To: "a@b.c"}); err != nil {
		t.Fatalf("noop mailer must never fail: %v", err)
	}
}

func TestVerificationEmail_Link(t *testing.T) {
	msg := VerificationEmail("https://api.studyhive.app/", "ada@example.com", "Ada", "tok123")
	want := "https://api.studyhive.app/api/v1/users/verify-email/tok123"
	if !strings.Contains(msg.Text, want) || !strings.Contains(msg.HTML, want) {
		t.Fatalf("verification link %q missing from message", want)
	}
	if msg.To != "ada@example.com" {
		t.Fatalf("To = %q", msg.To)
	}
}

func TestPasswordResetEmail_Link(t *testing.T) {
	msg := PasswordResetEmail("https://app.studyhive.app/reset-password", "ada@example.com", "Ada", "tok456")
	want := "https://app.studyhive.app/reset-password/tok456"
	if !strings.Contains(msg.Text, want) || !strings.Contains(msg.HTML, want) {
		t.Fatalf("reset link %q missing from message", want)
	}
}
