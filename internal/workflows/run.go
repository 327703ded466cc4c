package workflows

import (
	"context"
	"time"
)

// PassFunc runs one pass of a folder loop.
type PassFunc func(ctx context.Context) error

// Run calls pass every interval until ctx is cancelled or pass fails.
// Cancellation is only observed between passes.
func Run(ctx context.Context, interval time.Duration, pass PassFunc) error {
	return RunWithWake(ctx, interval, nil, pass)
}

// RunWithWake is Run that also starts a pass whenever wake delivers.
// A nil wake channel never fires.
func RunWithWake(ctx context.Context, interval time.Duration, wake <-chan struct{}, pass PassFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := pass(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-wake:
		}
	}
}
