package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email. Delivery is best effort; request
// flows never fail because a mail could not be sent.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NoopMailer logs instead of sending, for local setups without a mail
// provider configured.
type NoopMailer struct {
	Log *zap.Logger
}

func (m NoopMailer) Send(_ context.Context, msg EmailMessage) error {
	m.Log.Info("mail delivery skipped, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// HTTPMailer posts messages to a JSON mail API. Transient failures
// (429, 5xx, network errors) are retried with doubling backoff.
type HTTPMailer struct {
	BaseURL    string
	APIKey     string
	FromEmail  string
	FromName   string
	Log        *zap.Logger
	Client     *http.Client
	MaxRetries int
}

func NewHTTPMailer(baseURL, apiKey, fromEmail, fromName string, log *zap.Logger) *HTTPMailer {
	return &HTTPMailer{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:     apiKey,
		FromEmail:  fromEmail,
		FromName:   fromName,
		Log:        log,
		Client:     &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 3,
	}
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailSendRequest struct {
	From    mailAddress   `json:"from"`
	To      []mailAddress `json:"to"`
	Subject string        `json:"subject"`
	Text    string        `json:"text,omitempty"`
	HTML    string        `json:"html,omitempty"`
}

func (m *HTTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mail: recipient required")
	}
	wire := mailSendRequest{
		From:    mailAddress{Email: m.FromEmail, Name: m.FromName},
		To:      []mailAddress{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}

	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= m.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retryable, err := m.sendOnce(ctx, wire)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == m.MaxRetries {
			return err
		}
		m.Log.Warn("mail send retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("sleep", backoff),
			zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
	return lastErr
}

func (m *HTTPMailer) sendOnce(ctx context.Context, wire mailSendRequest) (retryable bool, err error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(wire); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/send", &buf)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return true, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err = fmt.Errorf("mail: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
}

// VerificationEmail builds the message carrying an email verification
// link. The token in the URL is the plaintext half; the server only
// stores its hash.
func VerificationEmail(publicBaseURL, toEmail, toName, token string) EmailMessage {
	link := strings.TrimRight(publicBaseURL, "/") + "/api/v1/users/verify-email/" + token
	return EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: "Verify your email address",
		Text: fmt.Sprintf("Hi %s,\n\nPlease verify your email address by opening the link below. The link expires in 10 minutes.\n\n%s\n\nIf you did not create an account, you can ignore this message.\n", toName, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Please verify your email address by clicking the link below. The link expires in 10 minutes.</p><p><a href="%s">Verify email</a></p><p>If you did not create an account, you can ignore this message.</p>`, toName, link),
	}
}

// PasswordResetEmail builds the message carrying a password reset link
// pointing at the frontend reset page.
func PasswordResetEmail(redirectURL, toEmail, toName, token string) EmailMessage {
	link := strings.TrimRight(redirectURL, "/") + "/" + token
	return EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password. The link expires in 10 minutes.\n\n%s\n\nIf you did not request this, you can ignore this message.\n", toName, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>A password reset was requested for your account. Click the link below to choose a new password. The link expires in 10 minutes.</p><p><a href="%s">Reset password</a></p><p>If you did not request this, you can ignore this message.</p>`, toName, link),
	}
}
