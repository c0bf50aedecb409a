package controller

import (
	"context"
	"fmt"
	"github.com/asecurityteam/rolling"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/persistence"
	"github.com/dMopp/hass-lunos/internal/relays"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/dMopp/hass-lunos/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
	"sync"
	"time"
)

const latencyWindowSize = 20

var UnitMap = cmap.New[FanController]()

type FanController interface {
	GetId() string
	GetName() string
	GetVariant() lunos.ControllerVariant

	// Run refreshes the unit state from its relays until ctx is done
	Run(ctx context.Context) error

	SetPercentage(ctx context.Context, percentage int) error
	SetPresetMode(ctx context.Context, name string) error
	// TurnOn applies the given preset (or the default preset), then the given percentage
	TurnOn(ctx context.Context, percentage *int, preset *string) error
	TurnOff(ctx context.Context) error
	Refresh(ctx context.Context) error

	ClearFilterReminder(ctx context.Context) error
	EnableSummerVentilation(ctx context.Context) error
	DisableSummerVentilation(ctx context.Context) error

	// OnExternalRelayChange schedules a refresh, it never blocks
	OnExternalRelayChange(relayId string)

	GetState() State
	GetStatistics() Statistics
	// AddListener registers a function called after every state change.
	// Listeners must not call state changing operations of the same unit.
	AddListener(listener func(State))
}

// State is a snapshot of a unit
type State struct {
	Id             string                `json:"id"`
	Name           string                `json:"name"`
	Speed          lunos.SpeedName       `json:"speed"`
	Percentage     *int                  `json:"percentage"`
	IsOn           bool                  `json:"isOn"`
	Preset         string                `json:"preset"`
	Ventilation    lunos.VentilationMode `json:"ventilationMode"`
	Attributes     Attributes            `json:"attributes"`
	LastTransition time.Time             `json:"lastTransition"`
}

type Statistics struct {
	RelayCommands        int           `json:"relayCommands"`
	RelayCommandFailures int           `json:"relayCommandFailures"`
	ThrottleCount        int           `json:"throttleCount"`
	ThrottleTime         time.Duration `json:"throttleTime"`
	Refreshes            int           `json:"refreshes"`
	AvgRelayLatency      time.Duration `json:"avgRelayLatency"`
	MaxRelayLatency      time.Duration `json:"maxRelayLatency"`
}

type DefaultFanController struct {
	config        configuration.UnitConfig
	variant       lunos.ControllerVariant
	fanCount      int
	defaultPreset string

	w1 relays.Relay
	w2 relays.Relay

	persistence persistence.Persistence
	refreshRate time.Duration
	clock       Clock
	guard       *TimingGuard

	// opMu is held for the whole duration of every state changing operation
	opMu sync.Mutex

	mu          sync.RWMutex
	speed       lunos.SpeedName
	preset      string
	ventilation lunos.VentilationMode
	attributes  Attributes
	listeners   []func(State)
	statistics  Statistics
	latency     *rolling.PointPolicy

	notifications chan string
}

// NewFanController creates the controller of a single LUNOS unit. p may be nil to disable persistence.
func NewFanController(
	config configuration.UnitConfig,
	w1 relays.Relay,
	w2 relays.Relay,
	p persistence.Persistence,
	refreshRate time.Duration,
) (*DefaultFanController, error) {
	return newFanController(config, w1, w2, p, refreshRate, realClock{})
}

func newFanController(
	config configuration.UnitConfig,
	w1 relays.Relay,
	w2 relays.Relay,
	p persistence.Persistence,
	refreshRate time.Duration,
	clock Clock,
) (*DefaultFanController, error) {
	variant, ok := lunos.DefaultRegistry.Get(config.ControllerCoding)
	if !ok {
		return nil, fmt.Errorf("unit %s: unknown controller coding '%s'", config.ID, config.ControllerCoding)
	}
	if w1 == nil || w2 == nil {
		return nil, fmt.Errorf("unit %s: both W1 and W2 relays are required", config.ID)
	}

	fanCount := config.FanCount
	if fanCount <= 0 {
		fanCount = variant.DefaultFanCount
	}

	defaultPreset := string(config.DefaultSpeed)
	if !variant.SupportsSpeed(config.DefaultSpeed) {
		ui.Warning("Default speed '%s' of unit %s is not valid for %s, using %s", config.DefaultSpeed, config.ID, variant.Key, lunos.PresetEco)
		defaultPreset = lunos.PresetEco
	}

	f := &DefaultFanController{
		config:        config,
		variant:       variant,
		fanCount:      fanCount,
		defaultPreset: defaultPreset,
		w1:            w1,
		w2:            w2,
		persistence:   p,
		refreshRate:   refreshRate,
		clock:         clock,
		guard:         NewTimingGuard(clock),
		speed:         lunos.SpeedUnknown,
		preset:        defaultPreset,
		ventilation:   lunos.VentilationNormal,
		latency:       util.CreateRollingWindow(latencyWindowSize),
		notifications: make(chan string, 1),
	}
	f.restorePersistedState()
	f.attributes = f.computeAttributesLocked()

	for _, relay := range []relays.Relay{w1, w2} {
		if notifier, ok := relay.(relays.Notifier); ok {
			notifier.OnChange(f.OnExternalRelayChange)
		}
	}

	ui.Info("Created LUNOS unit '%s': W1=%s; W2=%s; presets=%v", config.ID, w1.GetId(), w2.GetId(), variant.PresetModes())
	return f, nil
}

func (f *DefaultFanController) GetId() string {
	return f.config.ID
}

func (f *DefaultFanController) GetName() string {
	return f.config.Name
}

func (f *DefaultFanController) GetVariant() lunos.ControllerVariant {
	return f.variant
}

func (f *DefaultFanController) Run(ctx context.Context) error {
	ui.Info("Starting controller loop for LUNOS unit '%s'", f.GetId())

	// relays may not be ready yet, this is retried on every tick and notification
	_ = f.Refresh(ctx)

	var tick <-chan time.Time
	if f.refreshRate > 0 {
		ticker := time.NewTicker(f.refreshRate)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case relayId := <-f.notifications:
			ui.Debug("Relay %s of LUNOS unit '%s' changed, refreshing", relayId, f.GetId())
			if err := f.clock.Sleep(ctx, SettleDelay); err != nil {
				return nil
			}
			_ = f.Refresh(ctx)
		case <-tick:
			_ = f.Refresh(ctx)
		}
	}
}

func (f *DefaultFanController) OnExternalRelayChange(relayId string) {
	if relayId != f.w1.GetId() && relayId != f.w2.GetId() {
		return
	}
	select {
	case f.notifications <- relayId:
	default:
		// a refresh is already pending
	}
}

func (f *DefaultFanController) SetPercentage(ctx context.Context, percentage int) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.setPercentage(ctx, percentage)
}

func (f *DefaultFanController) SetPresetMode(ctx context.Context, name string) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.setPresetMode(ctx, name)
}

func (f *DefaultFanController) TurnOn(ctx context.Context, percentage *int, preset *string) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	name := f.defaultPreset
	if preset != nil {
		name = *preset
	}
	if err := f.setPresetMode(ctx, name); err != nil {
		return err
	}

	if percentage != nil {
		return f.setPercentage(ctx, *percentage)
	}
	return nil
}

func (f *DefaultFanController) TurnOff(ctx context.Context) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.setPercentage(ctx, 0)
}

func (f *DefaultFanController) Refresh(ctx context.Context) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.refresh(ctx)
}

func (f *DefaultFanController) ClearFilterReminder(ctx context.Context) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	if !f.variant.SupportsFilterReminder {
		ui.Info("LUNOS unit '%s' (%s) has no filter reminder light, clearing anyway", f.GetId(), f.variant.Key)
	}
	ui.Info("Clearing the filter change reminder light for LUNOS unit '%s'", f.GetId())
	return f.toggleSequence(ctx, f.w1)
}

func (f *DefaultFanController) EnableSummerVentilation(ctx context.Context) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.enableSummerVentilation(ctx)
}

func (f *DefaultFanController) DisableSummerVentilation(ctx context.Context) error {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	if !f.variant.SupportsSummerVent {
		ui.Warning("LUNOS unit '%s' does not support summer ventilation", f.GetId())
		return nil
	}

	// the controller ignores the toggle if W2 changed too recently
	if err := f.throttle(ctx, ModeClearDelay); err != nil {
		return err
	}

	ui.Info("Disabling summer ventilation mode for LUNOS unit '%s'", f.GetId())
	if err := f.toggleOnce(ctx, f.w2); err != nil {
		return err
	}

	f.updateState(func() {
		f.ventilation = lunos.VentilationNormal
		f.preset = lunos.PresetEco
	})
	return nil
}

func (f *DefaultFanController) GetState() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stateLocked()
}

func (f *DefaultFanController) GetStatistics() Statistics {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := f.statistics
	if result.RelayCommands > 0 {
		result.AvgRelayLatency = time.Duration(util.GetWindowAvg(f.latency))
		result.MaxRelayLatency = time.Duration(util.GetWindowMax(f.latency))
	}
	return result
}

func (f *DefaultFanController) AddListener(listener func(State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, listener)
}

func (f *DefaultFanController) setPercentage(ctx context.Context, percentage int) error {
	speed, err := f.variant.SpeedForPercentage(percentage)
	if err != nil {
		return err
	}

	current := f.currentSpeed()
	if speed == current {
		// attributes are always recomputed
		f.updateState(func() {})
		return nil
	}

	if scaled, _ := f.variant.PercentageFor(speed); scaled != percentage {
		ui.Info("Set LUNOS unit '%s' to %d%% (changed %s to %s) rescaled to %d%%", f.GetId(), percentage, current, speed, scaled)
	}
	return f.setSpeed(ctx, speed, false)
}

func (f *DefaultFanController) setPresetMode(ctx context.Context, name string) error {
	preset := f.variant.ResolvePreset(name)

	switch preset.Kind {
	case lunos.PresetKindOff:
		if err := f.setPercentage(ctx, 0); err != nil {
			return err
		}
		f.updateState(func() {
			f.preset = lunos.PresetOff
		})
	case lunos.PresetKindEco:
		f.updateState(func() {
			f.preset = lunos.PresetEco
		})
	case lunos.PresetKindSummerVent:
		return f.enableSummerVentilation(ctx)
	case lunos.PresetKindSpeed:
		ui.Info("Applying LUNOS speed preset '%s' as percentage %d", preset.Name, preset.Percentage)
		if err := f.setPercentage(ctx, preset.Percentage); err != nil {
			return err
		}
		f.updateState(func() {
			f.preset = preset.Name
		})
	case lunos.PresetKindUnknown:
		ui.Warning("LUNOS preset '%s' not supported by unit '%s': %v", name, f.GetId(), f.variant.PresetModes())
		f.updateState(func() {
			f.preset = lunos.PresetEco
		})
	}
	return nil
}

func (f *DefaultFanController) enableSummerVentilation(ctx context.Context) error {
	if !f.variant.SupportsSummerVent {
		ui.Warning("LUNOS unit '%s' does not support summer ventilation", f.GetId())
		return nil
	}

	ui.Info("Enabling summer ventilation mode for LUNOS unit '%s'", f.GetId())
	if err := f.toggleSequence(ctx, f.w2); err != nil {
		return err
	}

	f.updateState(func() {
		f.ventilation = lunos.VentilationSummer
		f.preset = lunos.PresetSummerVent
	})
	return nil
}

func (f *DefaultFanController) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.statistics.Refreshes++
	f.mu.Unlock()

	w1, err := f.w1.GetState(ctx)
	if err != nil || !w1.IsResolved() {
		ui.Warning("W1 relay %s not ready, cannot determine speed of LUNOS unit '%s': %v", f.w1.GetId(), f.GetId(), err)
		return nil
	}
	w2, err := f.w2.GetState(ctx)
	if err != nil || !w2.IsResolved() {
		ui.Warning("W2 relay %s not ready, cannot determine speed of LUNOS unit '%s': %v", f.w2.GetId(), f.GetId(), err)
		return nil
	}

	pair := lunos.RelayPair{W1: w1, W2: w2}
	speed := f.variant.SpeedFor(pair)
	if !speed.IsKnown() || speed == f.currentSpeed() {
		return nil
	}

	ui.Info("LUNOS speed for '%s' = %s (%s)", f.GetId(), speed, pair)
	f.guard.MarkTransition()
	f.updateState(func() {
		f.speed = speed
	})
	return nil
}

func (f *DefaultFanController) currentSpeed() lunos.SpeedName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.speed
}

// updateState applies mutate, recomputes the attributes and notifies all listeners
func (f *DefaultFanController) updateState(mutate func()) {
	f.mu.Lock()
	oldPreset, oldVentilation := f.preset, f.ventilation
	mutate()
	f.attributes = f.computeAttributesLocked()
	state := f.stateLocked()
	listeners := append([]func(State){}, f.listeners...)
	f.mu.Unlock()

	if state.Preset != oldPreset || state.Ventilation != oldVentilation {
		f.persistState(state)
	}

	for _, listener := range listeners {
		listener(state)
	}
}

func (f *DefaultFanController) computeAttributesLocked() Attributes {
	return computeAttributes(attributeInput{
		variant:     f.variant,
		fanCount:    f.fanCount,
		relayW1:     f.w1.GetId(),
		relayW2:     f.w2.GetId(),
		speed:       f.speed,
		ventilation: f.ventilation,
		preset:      f.preset,
	})
}

func (f *DefaultFanController) stateLocked() State {
	return State{
		Id:             f.config.ID,
		Name:           f.config.Name,
		Speed:          f.speed,
		Percentage:     f.attributes.Percentage,
		IsOn:           f.isOnLocked(),
		Preset:         f.preset,
		Ventilation:    f.ventilation,
		Attributes:     f.attributes,
		LastTransition: f.guard.LastTransition(),
	}
}

// isOnLocked reports false for variants without an off setting, they never truly stop
func (f *DefaultFanController) isOnLocked() bool {
	if !f.speed.IsKnown() || !f.variant.SupportsOff {
		return false
	}
	return f.speed != lunos.SpeedOff
}

func (f *DefaultFanController) restorePersistedState() {
	if f.persistence == nil {
		return
	}
	saved, err := f.persistence.LoadUnitState(f.GetId())
	if err != nil {
		ui.Debug("No saved state for LUNOS unit '%s': %v", f.GetId(), err)
		return
	}
	for _, mode := range f.variant.VentilationModes() {
		if mode == saved.Ventilation && mode != lunos.VentilationExhaustOnly {
			f.ventilation = mode
		}
	}
	if len(saved.Preset) > 0 {
		f.preset = saved.Preset
	}
	ui.Info("Restored LUNOS unit '%s': preset=%s; ventilation=%s", f.GetId(), f.preset, f.ventilation)
}

func (f *DefaultFanController) persistState(state State) {
	if f.persistence == nil {
		return
	}
	err := f.persistence.SaveUnitState(f.GetId(), persistence.UnitState{
		Speed:       state.Speed,
		Preset:      state.Preset,
		Ventilation: state.Ventilation,
		UpdatedAt:   f.clock.Now(),
	})
	if err != nil {
		ui.Warning("Unable to save state of LUNOS unit '%s': %v", f.GetId(), err)
	}
}
