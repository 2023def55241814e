package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Sender delivers rendered emails. Implementations must be safe for
// concurrent use; callers treat failures as fire-and-forget.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, body []byte) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, body []byte) error {
	msg := []byte("From: " + s.from + "\r\nSubject: " + subject + "\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg = append(msg, body...)
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender logs emails instead of delivering them. Used when no SMTP host
// is configured (development, tests).
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("sender", "log").Logger()}
}

func (s *LogSender) Send(_ context.Context, to []string, subject string, body []byte) error {
	s.logger.Info().Strs("to", to).Str("subject", subject).Bytes("body", body).Msg("email logged instead of sent")
	return nil
}
