package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes reminders to the log instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, address, subject, body string) error {
	n.logger.InfoContext(ctx, "reminder", "to", address, "subject", subject, "body", body)
	return nil
}
