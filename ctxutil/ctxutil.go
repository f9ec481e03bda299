// Copyright (c) 2025 BVK Chaitanya

package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks the caller for the given duration or until the context is
// canceled. Returns true if the full duration has elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryTimeout runs f until it succeeds, the timeout expires or the context
// is canceled, sleeping for interval between attempts. Returns the last
// error from f when it never succeeded.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) (err error) {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()

	for err = f(); err != nil && sctx.Err() == nil; err = f() {
		if !Sleep(sctx, interval) {
			break
		}
	}
	return err
}
