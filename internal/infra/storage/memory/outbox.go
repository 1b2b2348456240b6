package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "carbooking/internal/app/outbox"
)

// Outbox buffers committed event records and hands them to the sink on Flush.
// Delivery failures are logged; the records are already committed facts.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    appoutbox.Sink
	logger  *slog.Logger
}

func NewOutbox(sink appoutbox.Sink, logger *slog.Logger) *Outbox {
	return &Outbox{sink: sink, logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.sink == nil {
		return nil
	}
	for _, rec := range pending {
		if err := o.sink.Deliver(ctx, rec); err != nil && o.logger != nil {
			o.logger.Warn("event delivery failed", "event", rec.Name, "aggregate", rec.Aggregate, "error", err)
		}
	}
	return nil
}

// Pending reports how many records wait for the next flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
