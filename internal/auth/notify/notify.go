// Package notify delivers auth codes out of band.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// CodeMessage is everything needed to tell a user their code.
type CodeMessage struct {
	To            string
	Code          string
	WorkspaceName string
	TTL           time.Duration
}

// Notifier sends a code. Callers treat errors as non-fatal.
type Notifier interface {
	SendCode(ctx context.Context, msg CodeMessage) error
}

// LogNotifier is used when no SMTP server is configured. The code itself is
// already logged by the issuer, so this only records that delivery was skipped.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendCode(ctx context.Context, msg CodeMessage) error {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "smtp not configured, code not emailed", "to", msg.To)
	return nil
}
