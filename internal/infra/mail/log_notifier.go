package mail

import (
	"context"
	"log/slog"

	"carbooking/internal/app/policies"
)

// LogNotifier renders notifications and writes them to the log. It stands in
// for SendGrid when no API key is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n policies.Notification) error {
	if l.Logger == nil {
		return nil
	}
	msg := Render(n)
	l.Logger.InfoContext(ctx, "notification",
		"event", n.Event,
		"booking", n.Booking.Number,
		"to", n.Customer.Email,
		"locale", n.Locale,
		"subject", msg.Subject,
	)
	return nil
}

var _ policies.Notifier = LogNotifier{}
