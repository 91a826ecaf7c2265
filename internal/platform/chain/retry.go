package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/medichain-payments/internal/domain/shared"
)

// WithRetry runs fn with a bounded retry and exponential backoff, retrying
// only on ChainUnavailableError. Verification outcomes are final answers, not
// errors, and are never retried here.
func WithRetry(ctx context.Context, logger *slog.Logger, maxAttempts int, backoff time.Duration, fn func() error) error {
	var err error
	wait := backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ChainUnavailableError{}) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		logger.Warn("Chain RPC unavailable, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", wait.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
