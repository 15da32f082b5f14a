package mail

import (
	"context"
	"log/slog"
)

// LogTransport writes messages to the log instead of delivering them.
// Used in development when no mail provider is configured.
type LogTransport struct{}

// Send logs the recipient, subject and text body.
func (LogTransport) Send(_ context.Context, msg Message) error {
	slog.Info("mail not delivered (log transport)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
