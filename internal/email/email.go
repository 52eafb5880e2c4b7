// Package email delivers single plain-text messages through a mail relay.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FormatAddress renders "Name <addr>", or addr alone when name is empty.
func FormatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}

// LogSender writes messages to the log instead of sending them. It is the
// default when no relay is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info("email not sent, no relay configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
