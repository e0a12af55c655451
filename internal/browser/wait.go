package browser

import (
	"context"
	"time"
)

// Sleep waits out a settle delay unless the context is cancelled first. The
// site updates prices and location state asynchronously with no completion
// signal, so fixed delays are part of every flow's contract.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
