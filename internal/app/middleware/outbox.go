package middleware

import (
	"context"
	"log/slog"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/outbox"
)

// OutboxFlush hands the records of a committed command to the outbox sink.
// The command has committed by the time Flush runs, so a flush failure is
// logged and the result is still returned to the caller and the idempotency
// store.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if flushErr := box.Flush(ctx); flushErr != nil && logger != nil {
				logger.Error("outbox flush failed", "command", cmd.Key(), "error", flushErr)
			}
			return res, nil
		})
	}
}
