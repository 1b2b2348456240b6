package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	appoutbox "carbooking/internal/app/outbox"
	infraoutbox "carbooking/internal/infra/outbox"
)

// Inbox remembers which events a consumer already handled.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// BookingEventsHandler turns CloudEvents from the booking topic back into
// event records for the notification dispatcher.
type BookingEventsHandler struct {
	Inbox  Inbox
	Sink   appoutbox.Sink
	Logger *slog.Logger
}

func (h BookingEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env infraoutbox.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		// poison message, nothing to retry
		if h.Logger != nil {
			h.Logger.Error("dropping undecodable booking event", "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if env.ID == "" {
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	payload, err := json.Marshal(env.Data)
	if err != nil {
		return fmt.Errorf("kafka: re-encode event %s: %w", env.ID, err)
	}
	rec := appoutbox.EventRecord{
		ID:         env.ID,
		Name:       env.EventName(),
		Payload:    payload,
		OccurredAt: env.Time,
		Aggregate:  env.Subject,
		Headers:    headersOf(msg),
	}
	if err := h.Sink.Deliver(ctx, rec); err != nil {
		return err
	}
	if h.Inbox != nil {
		return h.Inbox.Mark(ctx, env.ID)
	}
	return nil
}

func headersOf(msg *sarama.ConsumerMessage) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		if h == nil {
			continue
		}
		out[string(h.Key)] = string(h.Value)
	}
	return out
}
