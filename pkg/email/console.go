package email

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleSender logs messages instead of delivering them. It is the default
// provider for local development.
type ConsoleSender struct {
	subjPrefix string
	logger     *zap.Logger
}

// NewConsoleSender constructs a log-only sender.
func NewConsoleSender(subjectPrefix string, logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{subjPrefix: subjectPrefix, logger: logger}
}

// Send logs the message envelope and plain text body.
func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	to := msg.Recipients()
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	s.logger.Info("email",
		zap.Strings("to", to),
		zap.String("subject", s.subjPrefix+msg.Subject),
		zap.String("text", msg.Text),
		zap.Strings("attachments", names),
	)
	return nil
}

// SendBatch logs every message.
func (s *ConsoleSender) SendBatch(ctx context.Context, msgs []Message) BatchResult {
	return sendAll(ctx, msgs, s.Send)
}
