// Package mailer provides delivery backends for nudge emails.
package mailer

import (
	"context"
	"log/slog"
)

// StdoutMailer writes emails to the log instead of delivering them. It is
// the default backend for local development and the test environment.
type StdoutMailer struct {
	logger *slog.Logger
}

// NewStdoutMailer creates a new stdout-backed mailer.
func NewStdoutMailer(logger *slog.Logger) *StdoutMailer {
	return &StdoutMailer{logger: logger.With("component", "stdout_mailer")}
}

func (m *StdoutMailer) Send(ctx context.Context, from, to, subject, body string) error {
	m.logger.Info("email delivered to stdout",
		"from", from,
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
