package job

import (
	"context"
	"time"
)

// Work is a runnable unit handed to a worker slot.
type Work func(ctx context.Context) error

// SleepWork returns a runnable that spends the given duration waiting.
// It returns ctx.Err() if the context is cancelled first.
func SleepWork(d time.Duration) Work {
	return func(ctx context.Context) error {
		return Sleep(ctx, d)
	}
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// still honour an already-cancelled context
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		// If the time is up, we just return nil.
		return nil
	}
}
