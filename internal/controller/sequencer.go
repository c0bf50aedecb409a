package controller

import (
	"context"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/relays"
	"github.com/dMopp/hass-lunos/internal/ui"
	"time"
)

// toggling a relay off and on three times within the detection window selects
// a controller function: W1 clears the filter reminder, W2 enables summer ventilation
var modeSelectSequence = []lunos.RelayState{
	lunos.RelayOff,
	lunos.RelayOn,
	lunos.RelayOff,
	lunos.RelayOn,
	lunos.RelayOff,
	lunos.RelayOn,
}

// setSpeed writes the relay pair of target, W1 first. force re-applies the pair
// even if target is the current speed.
func (f *DefaultFanController) setSpeed(ctx context.Context, target lunos.SpeedName, force bool) error {
	pair, ok := f.variant.RelayPairFor(target)
	if !ok {
		ui.Warning("LUNOS unit '%s' does not support speed '%s', ignoring speed change", f.GetId(), target)
		return nil
	}

	current := f.currentSpeed()
	if current == target && !force {
		return nil
	}

	if err := f.throttle(ctx, SpeedChangeDelay); err != nil {
		return err
	}

	ui.Info("Changing LUNOS unit '%s' speed from %s to %s", f.GetId(), current, target)
	if err := f.writeRelay(ctx, f.w1, pair.W1); err != nil {
		return err
	}
	if err := f.writeRelay(ctx, f.w2, pair.W2); err != nil {
		return err
	}

	f.updateState(func() {
		f.speed = target
	})
	return nil
}

// toggleSequence runs the mode select sequence on relay and restores the speed
// that was active before. The restore is skipped if a command fails.
func (f *DefaultFanController) toggleSequence(ctx context.Context, relay relays.Relay) error {
	savedSpeed := f.currentSpeed()

	for _, state := range modeSelectSequence {
		if err := f.writeRelay(ctx, relay, state); err != nil {
			return err
		}
		if err := f.clock.Sleep(ctx, FlipDelay); err != nil {
			return err
		}
	}

	if !savedSpeed.IsKnown() {
		ui.Warning("Speed of LUNOS unit '%s' is unknown, cannot restore it after toggling %s", f.GetId(), relay.GetId())
		return nil
	}
	return f.setSpeed(ctx, savedSpeed, true)
}

// toggleOnce inverts relay and switches it back, leaving it in its original state without selecting a function.
// The state is read once up front, a relay only reporting state changes asynchronously may still report the old one after the first write.
func (f *DefaultFanController) toggleOnce(ctx context.Context, relay relays.Relay) error {
	state, err := relay.GetState(ctx)
	if err == nil && !state.IsResolved() {
		err = relays.ErrRelayUnresolved
	}
	if err != nil {
		return fmt.Errorf("unit %s: cannot toggle relay %s: %w", f.GetId(), relay.GetId(), err)
	}

	if err := f.writeRelay(ctx, relay, state.Inverted()); err != nil {
		return err
	}
	if err := f.clock.Sleep(ctx, FlipDelay); err != nil {
		return err
	}
	return f.writeRelay(ctx, relay, state)
}

func (f *DefaultFanController) throttle(ctx context.Context, requiredDelay time.Duration) error {
	waited, err := f.guard.Throttle(ctx, requiredDelay)
	if waited > 0 {
		f.mu.Lock()
		f.statistics.ThrottleCount++
		f.statistics.ThrottleTime += waited
		f.mu.Unlock()
	}
	return err
}

func (f *DefaultFanController) writeRelay(ctx context.Context, relay relays.Relay, state lunos.RelayState) error {
	ui.Debug("Setting relay %s to %s", relay.GetId(), state)
	return f.command(fmt.Sprintf("setting relay %s to %s", relay.GetId(), state), func() error {
		return relay.SetState(ctx, state)
	})
}

// command runs a single relay command. The transition is recorded even if the
// command failed, the relay may have switched anyway.
func (f *DefaultFanController) command(description string, run func() error) error {
	start := f.clock.Now()
	err := run()
	f.guard.MarkTransition()

	f.mu.Lock()
	f.statistics.RelayCommands++
	if err != nil {
		f.statistics.RelayCommandFailures++
	}
	f.mu.Unlock()
	f.latency.Append(float64(f.clock.Now().Sub(start)))

	if err != nil {
		ui.ErrorAndNotify("LUNOS relay failure", "Unit %s: %s failed: %v", f.GetId(), description, err)
		return fmt.Errorf("unit %s: %s: %w", f.GetId(), description, err)
	}
	return nil
}
