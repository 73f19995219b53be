package services

import (
	"context"

	"go.uber.org/zap"
)

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *zap.SugaredLogger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Infow("email queued", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
