package sender

import (
	"context"
	"log/slog"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender defines the interface for delivering email.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// LogSender logs messages instead of delivering them. It is the development
// default.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes to logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string {
	return "log"
}

// Send logs the message, including its plain-text body.
func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.logger.InfoContext(ctx, "email sent",
		slog.String("sender", s.Name()),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}
