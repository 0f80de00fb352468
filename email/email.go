// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package email sends confirmation, waitlist, reminder, and lineup
// notifications through Resend. Without an API key it logs instead.
package email

import (
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Sender delivers one outbound email. The engine never depends on
// delivery succeeding; failures are logged and the request proceeds.
type Sender interface {
	Send(to, subject, html string) error
}

// NewSender returns a Resend-backed sender, or a log-only sender when
// no API key is configured (local development).
func NewSender(apiKey, from string) Sender {
	if apiKey == "" {
		return &logSender{}
	}
	return &resendSender{client: resend.NewClient(apiKey), from: from}
}

type resendSender struct {
	client *resend.Client
	from   string
}

func (s *resendSender) Send(to, subject, html string) error {
	sent, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("email sent", "to", to, "subject", subject, "email_id", sent.Id)
	return nil
}

// logSender logs instead of sending. Used when RESEND_API_KEY is
// unset, and in tests.
type logSender struct{}

func (s *logSender) Send(to, subject, html string) error {
	slog.Info("email suppressed (no API key)", "to", to, "subject", subject)
	return nil
}
