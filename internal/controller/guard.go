package controller

import (
	"context"
	"github.com/dMopp/hass-lunos/internal/ui"
	"sync"
	"time"
)

const (
	// SpeedChangeDelay is applied before every speed change. Flipping W1 or W2 twice
	// within 3 seconds triggers a hidden controller function instead of a speed change.
	SpeedChangeDelay = 4 * time.Second
	// ModeClearDelay is the minimum time since the last relay change before summer
	// ventilation can be disabled
	ModeClearDelay = 15 * time.Second
	// FlipDelay is the pause between two relay commands of a toggle sequence
	FlipDelay = 100 * time.Millisecond
	// SettleDelay is the time to wait for pending relay changes before reading them back
	SettleDelay = 1 * time.Second
)

// TimingGuard tracks the time of the last relay transition of a unit
// and delays relay changes that would land inside the detection window of the controller.
// Callers must serialize Throttle, the controller does this with its operation lock.
type TimingGuard struct {
	clock Clock

	mu             sync.RWMutex
	lastTransition time.Time
}

func NewTimingGuard(clock Clock) *TimingGuard {
	return &TimingGuard{
		clock: clock,
	}
}

// MarkTransition records a relay transition at the current time
func (g *TimingGuard) MarkTransition() {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastTransition = now
}

func (g *TimingGuard) LastTransition() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastTransition
}

// Throttle blocks until at least requiredDelay has passed since the last transition
// and returns the time it waited.
func (g *TimingGuard) Throttle(ctx context.Context, requiredDelay time.Duration) (time.Duration, error) {
	elapsed := g.clock.Now().Sub(g.LastTransition())
	if elapsed >= requiredDelay {
		return 0, nil
	}

	delay := requiredDelay - elapsed
	ui.Warning("Delaying relay change by %v to avoid triggering a LUNOS controller function", delay)
	return delay, g.clock.Sleep(ctx, delay)
}
