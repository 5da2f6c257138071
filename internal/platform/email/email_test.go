package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"onehr/internal/platform/config"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: true})
	if _, ok := mailer.(logMailer); !ok {
		t.Fatalf("expected log mailer without SMTP host, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), "a@example.com", "b@example.com", "hi", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	sent := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("hr@example.com", "ada@example.com", "Upcoming birthday: Zoë", "line one\nline two", sent))

	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("expected encoded subject, got %q", msg)
	}
	if !strings.Contains(msg, "Date: Sun, 01 Jun 2025 09:00:00 +0000") {
		t.Fatalf("missing date header: %q", msg)
	}
	if !strings.HasSuffix(msg, "line one\r\nline two") {
		t.Fatalf("expected CRLF body, got %q", msg)
	}
}

func TestSendRejectsBadRecipient(t *testing.T) {
	mailer := &smtpMailer{host: "localhost", port: 25, now: time.Now}
	if err := mailer.Send(context.Background(), "hr@example.com", "not an address", "s", "b"); err == nil {
		t.Fatalf("expected error for invalid recipient")
	}
}
