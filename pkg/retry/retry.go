package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
)

type Config struct {
	MaxRetries uint64
	Interval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Interval:   10 * time.Second,
	}
}

// Do runs operation, retrying on error at a fixed interval until it succeeds
// or the retry budget is spent. The last error is returned on exhaustion.
func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	bo := backoff.NewConstantBackOff(cfg.Interval)

	retryable := backoff.WithMaxRetries(bo, cfg.MaxRetries)
	retryableWithContext := backoff.WithContext(retryable, ctx)

	notify := func(err error, t time.Duration) {
		log.Warn(
			"Operation failed, retrying...",
			"operation", operationName,
			"error", err,
			"next_attempt_in", t.Round(time.Millisecond).String(),
		)
	}

	return backoff.RetryNotify(operation, retryableWithContext, notify)
}
