// Package poller re-runs a refresh function on a fixed interval for the lifetime
// of a view.
package poller

import (
	"context"
	"time"
)

// Every calls fn immediately and then once per interval until ctx is cancelled or
// fn returns an error. It returns ctx.Err() on cancellation, otherwise fn's error.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}
