package controller

import (
	"context"
	"time"
)

// Clock is the time source of a controller, replaced in tests
type Clock interface {
	Now() time.Time
	// Sleep blocks for d, returning early with ctx.Err() when ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
