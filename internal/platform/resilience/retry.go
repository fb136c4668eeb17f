package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
)

var (
	// ErrSecondaryRateLimit marks provider errors that are worth waiting out.
	ErrSecondaryRateLimit = crerr.New("secondary rate limit")
	ErrRetriesExhausted   = crerr.New("retries exhausted")
)

// Retrier re-runs an operation while it fails with ErrSecondaryRateLimit.
// Any other error is returned on the first attempt.
type Retrier struct {
	cfg    RetryConfig
	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrier(cfg RetryConfig, logger *logging.Logger) *Retrier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Retrier{
		cfg:    NormalizeRetryConfig(cfg),
		logger: logger,
		sleep:  sleepContext,
	}
}

func (r *Retrier) Config() RetryConfig {
	return r.cfg
}

func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSecondaryRateLimit) {
			return err
		}
		lastErr = err
		if attempt == r.cfg.MaxAttempts {
			break
		}

		r.logger.WarnContext(ctx, "secondary rate limit hit, backing off",
			"operation", op,
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"backoff", r.cfg.Backoff.String(),
		)
		if err := r.sleep(ctx, r.cfg.Backoff); err != nil {
			return crerr.Wrapf(err, "%s: interrupted while backing off", op)
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w: %w", op, r.cfg.MaxAttempts, ErrRetriesExhausted, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
