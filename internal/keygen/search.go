package keygen

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

var errRejected = errors.New("candidate rejected")

// search calls draw until it reports a hit. Misses are retried immediately;
// after the handler's attempt cap the search gives up with
// ErrExhaustedSearch. Errors from draw and ctx cancellation end the search.
func (h *NumberHandler) search(ctx context.Context, draw func() (bool, error)) error {
	var b retry.Backoff = retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	})
	if h.maxAttempts > 0 {
		b = retry.WithMaxRetries(h.maxAttempts-1, b)
	}

	err := retry.Do(ctx, b, func(_ context.Context) error {
		ok, err := draw()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errRejected)
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		return ErrExhaustedSearch
	}
	return err
}
