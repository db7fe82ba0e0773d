package util

import (
	"context"
	"errors"
	"time"

	"github.com/leobot/leo/core"
)

// Retry runs fn and, if it fails with a TransientNetworkError, retries after
// backoff up to attempts total tries. Any other error class (rate limits,
// validation, auth) is surfaced immediately; transient errors that survive all
// attempts are surfaced as-is.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}

		var transient *core.TransientNetworkError
		if !errors.As(err, &transient) {
			return err
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff << i):
		}
	}

	return err
}
