package support

import (
	"context"
	"log/slog"

	"carbooking/internal/app/outbox"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/shared/events"
)

// RecordEvents encodes evs and writes them to box. Units with commit hooks
// receive the records only once the commit succeeded; other units write them
// inside the transaction.
func RecordEvents(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, encoder outbox.EventEncoder, evs []events.DomainEvent, logger *slog.Logger) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	hooks, deferred := unit.(uow.CommitHooks)
	if !deferred {
		return outbox.RecordDomainEvents(ctx, box, encoder, evs)
	}
	records := make([]outbox.EventRecord, 0, len(evs))
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	hooks.AfterCommit(func(ctx context.Context) {
		for _, rec := range records {
			if err := box.Add(ctx, rec); err != nil && logger != nil {
				logger.Error("outbox add failed", "event", rec.Name, "aggregate", rec.Aggregate, "error", err)
			}
		}
	})
	return nil
}
