package middleware

import (
	"context"
	"log/slog"
	"time"

	"carbooking/internal/app/commands"
	"carbooking/internal/domain/shared/apperr"
)

// Retry re-dispatches a command that lost an optimistic concurrency race. It
// must wrap Transaction so every attempt re-reads availability in a fresh unit.
func Retry(backoff []time.Duration, logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			for attempt := 0; ; attempt++ {
				res, err := next.Dispatch(ctx, cmd)
				if err == nil || apperr.CodeOf(err) != apperr.CodePersistenceConflict || attempt >= len(backoff) {
					return res, err
				}
				if logger != nil {
					logger.Warn("command conflicted, retrying", "command", cmd.Key(), "attempt", attempt+1, "backoff", backoff[attempt])
				}
				timer := time.NewTimer(backoff[attempt])
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, err
				case <-timer.C:
				}
			}
		})
	}
}
