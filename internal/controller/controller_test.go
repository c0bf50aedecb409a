package controller

import (
	"context"
	"testing"
	"time"

	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/persistence"
	"github.com/dMopp/hass-lunos/internal/relays"
	"github.com/dMopp/hass-lunos/internal/testingutils"
	"github.com/stretchr/testify/assert"
)

type testUnit struct {
	controller *DefaultFanController
	w1         *MockRelay
	w2         *MockRelay
	log        *commandLog
	clock      *testingutils.FakeClock
}

func createUnit(t *testing.T, coding string, w1 lunos.RelayState, w2 lunos.RelayState) testUnit {
	return createUnitWithPersistence(t, coding, w1, w2, nil)
}

func createUnitWithPersistence(t *testing.T, coding string, w1 lunos.RelayState, w2 lunos.RelayState, p persistence.Persistence) testUnit {
	log := &commandLog{}
	clock := testingutils.NewFakeClock()
	relayW1 := &MockRelay{ID: "w1", log: log, state: w1, failAfter: -1}
	relayW2 := &MockRelay{ID: "w2", log: log, state: w2, failAfter: -1}

	config := configuration.UnitConfig{
		ID:               "unit",
		Name:             "LUNOS Ventilation",
		RelayW1:          "w1",
		RelayW2:          "w2",
		DefaultSpeed:     lunos.SpeedMedium,
		ControllerCoding: coding,
	}
	controller, err := newFanController(config, relayW1, relayW2, p, 0, clock)
	assert.NoError(t, err)

	return testUnit{
		controller: controller,
		w1:         relayW1,
		w2:         relayW2,
		log:        log,
		clock:      clock,
	}
}

// createUnitAtSpeed creates a unit whose speed was read back from its relays
func createUnitAtSpeed(t *testing.T, coding string, speed lunos.SpeedName) testUnit {
	variant, _ := lunos.DefaultRegistry.Get(coding)
	pair, ok := variant.RelayPairFor(speed)
	assert.True(t, ok)

	unit := createUnit(t, coding, pair.W1, pair.W2)
	err := unit.controller.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, speed, unit.controller.GetState().Speed)
	return unit
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func TestNewFanController_UnknownCoding(t *testing.T) {
	// GIVEN
	config := configuration.UnitConfig{ID: "unit", ControllerCoding: "e3"}
	relay := &MockRelay{ID: "w1", log: &commandLog{}, failAfter: -1}

	// WHEN
	_, err := NewFanController(config, relay, relay, nil, 0)

	// THEN
	assert.EqualError(t, err, "unit unit: unknown controller coding 'e3'")
}

func TestNewFanController_FanCountDefaultsToVariant(t *testing.T) {
	// WHEN
	unit := createUnit(t, "ego", lunos.RelayOff, lunos.RelayOff)

	// THEN
	assert.Equal(t, 1, unit.controller.GetState().Attributes.FanCount)
	assert.Equal(t, lunos.SpeedUnknown, unit.controller.GetState().Speed)
	assert.Equal(t, "medium", unit.controller.GetState().Preset)
}

func TestSetPercentage_HighToOff(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=off", "w2=off"}, unit.log.all())
	state := unit.controller.GetState()
	assert.Equal(t, lunos.SpeedOff, state.Speed)
	assert.False(t, state.IsOn)
	assert.Nil(t, state.Attributes.CFM)
	assert.Equal(t, 0, *state.Percentage)
}

func TestSetPercentage_SameSpeed_NoRelayWrites(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)
	var notified []State
	unit.controller.AddListener(func(state State) {
		notified = append(notified, state)
	})

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 90)

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Len(t, notified, 1)
	assert.Equal(t, 20.0, *notified[0].Attributes.CFM)
}

func TestSetPercentage_OutOfRange(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 101)

	// THEN
	assert.ErrorIs(t, err, lunos.ErrPercentageOutOfRange)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.SpeedLow, unit.controller.GetState().Speed)
}

func TestSetPercentage_ThrottlesAfterTransition(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	unit.clock.Advance(1 * time.Second)

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 100)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, unit.clock.RecordedSleeps())
	assert.Equal(t, 1, unit.controller.GetStatistics().ThrottleCount)
	assert.Equal(t, 3*time.Second, unit.controller.GetStatistics().ThrottleTime)
}

func TestSetPercentage_NoThrottleWhenIdle(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	unit.clock.Advance(SpeedChangeDelay)

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 100)

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.clock.RecordedSleeps())
}

func TestSetPercentage_MarksTransitionOnEachWrite(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	unit.clock.Advance(SpeedChangeDelay)
	unit.w1.onSet = func() { unit.clock.Advance(500 * time.Millisecond) }
	unit.w2.onSet = func() { unit.clock.Advance(500 * time.Millisecond) }

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 66)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, unit.clock.Now(), unit.controller.GetState().LastTransition)
}

func TestSetPercentage_CancelledWhileThrottling(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	err := unit.controller.SetPercentage(ctx, 0)

	// THEN
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.SpeedHigh, unit.controller.GetState().Speed)
}

func TestSetPercentage_RelayFailure(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)
	unit.w2.failAfter = 0

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 0)

	// THEN
	assert.ErrorContains(t, err, "unit unit: setting relay w2 to off: relay not reachable")
	assert.Equal(t, []string{"w1=off"}, unit.log.all())
	assert.Equal(t, lunos.SpeedHigh, unit.controller.GetState().Speed)
	assert.Equal(t, 1, unit.controller.GetStatistics().RelayCommandFailures)
}

func TestSetPresetMode_OffOnFourSpeedVariant(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-4-speed", lunos.SpeedHigh)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "off")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=off", "w2=off"}, unit.log.all())
	state := unit.controller.GetState()
	assert.Equal(t, lunos.SpeedLow, state.Speed)
	assert.Equal(t, 25, *state.Percentage)
	assert.False(t, state.IsOn)
}

func TestSetPresetMode_Eco(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "eco")

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.PresetEco, unit.controller.GetState().Preset)
}

func TestSetPresetMode_Speed(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "High")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=on", "w2=on"}, unit.log.all())
	state := unit.controller.GetState()
	assert.Equal(t, lunos.SpeedHigh, state.Speed)
	assert.Equal(t, "high", state.Preset)
	assert.True(t, state.IsOn)
}

func TestSetPresetMode_Unknown(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "party")

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.PresetEco, unit.controller.GetState().Preset)
	assert.Equal(t, lunos.SpeedHigh, unit.controller.GetState().Speed)
}

func TestSetPresetMode_TurboOnThreeSpeedVariant(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "turbo")

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.PresetEco, unit.controller.GetState().Preset)
}

func TestSetPresetMode_SummerOnUnsupportedVariant(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "ego-exhaust-4-speed", lunos.SpeedLow)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "summer")

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.VentilationNormal, unit.controller.GetState().Ventilation)
	assert.Equal(t, lunos.PresetEco, unit.controller.GetState().Preset)
}

func TestSetPresetMode_Summer(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)

	// WHEN
	err := unit.controller.SetPresetMode(context.Background(), "summer")

	// THEN
	assert.NoError(t, err)
	assert.Len(t, unit.log.all(), 8)
	assert.Equal(t, lunos.VentilationSummer, unit.controller.GetState().Ventilation)
	assert.Equal(t, lunos.PresetSummerVent, unit.controller.GetState().Preset)
}

func TestTurnOn_DefaultPreset(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)

	// WHEN
	err := unit.controller.TurnOn(context.Background(), nil, nil)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=off", "w2=on"}, unit.log.all())
	assert.Equal(t, lunos.SpeedMedium, unit.controller.GetState().Speed)
	assert.Equal(t, "medium", unit.controller.GetState().Preset)
}

func TestTurnOn_PercentageOverridesPreset(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)

	// WHEN
	err := unit.controller.TurnOn(context.Background(), intPtr(100), stringPtr("low"))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=on", "w2=off", "w1=on", "w2=on"}, unit.log.all())
	assert.Equal(t, lunos.SpeedHigh, unit.controller.GetState().Speed)
}

func TestTurnOff(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedMedium)

	// WHEN
	err := unit.controller.TurnOff(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=off", "w2=off"}, unit.log.all())
	assert.False(t, unit.controller.GetState().IsOn)
}

func TestRefresh_AdoptsSpeed(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOn)

	// WHEN
	err := unit.controller.Refresh(context.Background())

	// THEN
	assert.NoError(t, err)
	state := unit.controller.GetState()
	assert.Equal(t, lunos.SpeedMedium, state.Speed)
	assert.Equal(t, 66, *state.Percentage)
	assert.Equal(t, unit.clock.Now(), state.LastTransition)
	assert.Empty(t, unit.log.all())
}

func TestRefresh_UnresolvedRelay(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayUnresolved, lunos.RelayOn)

	// WHEN
	err := unit.controller.Refresh(context.Background())

	// THEN
	assert.NoError(t, err)
	state := unit.controller.GetState()
	assert.Equal(t, lunos.SpeedUnknown, state.Speed)
	assert.Nil(t, state.Percentage)
	assert.False(t, state.IsOn)
	assert.True(t, state.LastTransition.IsZero())
}

func TestClearFilterReminder_RestoresSpeed(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedMedium)

	// WHEN
	err := unit.controller.ClearFilterReminder(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"w1=off", "w1=on", "w1=off", "w1=on", "w1=off", "w1=on",
		"w1=off", "w2=on",
	}, unit.log.all())
	assert.Equal(t, []time.Duration{
		FlipDelay, FlipDelay, FlipDelay, FlipDelay, FlipDelay, FlipDelay,
		SpeedChangeDelay - FlipDelay,
	}, unit.clock.RecordedSleeps())
	assert.Equal(t, lunos.SpeedMedium, unit.controller.GetState().Speed)
}

func TestClearFilterReminder_UnknownSpeedSkipsRestore(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayUnresolved, lunos.RelayUnresolved)

	// WHEN
	err := unit.controller.ClearFilterReminder(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"w1=off", "w1=on", "w1=off", "w1=on", "w1=off", "w1=on"}, unit.log.all())
	assert.Equal(t, lunos.SpeedUnknown, unit.controller.GetState().Speed)
}

func TestClearFilterReminder_FailureSkipsRestore(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedHigh)
	unit.w1.failAfter = 3

	// WHEN
	err := unit.controller.ClearFilterReminder(context.Background())

	// THEN
	assert.Error(t, err)
	assert.Equal(t, []string{"w1=off", "w1=on", "w1=off"}, unit.log.all())
}

func TestEnableSummerVentilation_Unsupported(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "ego-exhaust-4-speed", lunos.SpeedMedium)

	// WHEN
	err := unit.controller.EnableSummerVentilation(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.VentilationNormal, unit.controller.GetState().Ventilation)
}

func TestEnableSummerVentilation_TogglesW2AndRestoresSpeed(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)

	// WHEN
	err := unit.controller.EnableSummerVentilation(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"w2=off", "w2=on", "w2=off", "w2=on", "w2=off", "w2=on",
		"w1=on", "w2=off",
	}, unit.log.all())
	state := unit.controller.GetState()
	assert.Equal(t, lunos.VentilationSummer, state.Ventilation)
	assert.Equal(t, lunos.SpeedLow, state.Speed)
}

func TestDisableSummerVentilation_WaitsForModeClearDelay(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	err := unit.controller.EnableSummerVentilation(context.Background())
	assert.NoError(t, err)
	unit.log.reset()
	sleepsBefore := len(unit.clock.RecordedSleeps())
	unit.clock.Advance(2 * time.Second)

	// WHEN
	err = unit.controller.DisableSummerVentilation(context.Background())

	// THEN
	assert.NoError(t, err)
	sleeps := unit.clock.RecordedSleeps()[sleepsBefore:]
	assert.Equal(t, []time.Duration{13 * time.Second, FlipDelay}, sleeps)
	assert.Equal(t, []string{"w2=on", "w2=off"}, unit.log.all())
	state := unit.controller.GetState()
	assert.Equal(t, lunos.VentilationNormal, state.Ventilation)
	assert.Equal(t, lunos.PresetEco, state.Preset)
	assert.Equal(t, lunos.SpeedLow, state.Speed)
}

func TestDisableSummerVentilation_Unsupported(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "ego-exhaust-4-speed", lunos.SpeedMedium)

	// WHEN
	err := unit.controller.DisableSummerVentilation(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, unit.log.all())
	assert.Empty(t, unit.clock.RecordedSleeps())
}

func createMqttRelay(t *testing.T, client *testingutils.FakeMqttClient, id string, state string) *relays.MqttRelay {
	relay := relays.NewMqttRelay(configuration.RelayConfig{
		ID: id,
		Mqtt: &configuration.MqttRelayConfig{
			StateTopic:   "relay/" + id + "/state",
			CommandTopic: "relay/" + id + "/set",
		},
	}, client)
	assert.NoError(t, relay.Subscribe(client))
	assert.True(t, client.Deliver("relay/"+id+"/state", state))
	return relay
}

func TestDisableSummerVentilation_MqttRelayWithoutStateEcho(t *testing.T) {
	// GIVEN
	client := testingutils.NewFakeMqttClient()
	w1 := createMqttRelay(t, client, "w1", "ON")
	w2 := createMqttRelay(t, client, "w2", "OFF")
	config := configuration.UnitConfig{ID: "unit", RelayW1: "w1", RelayW2: "w2", DefaultSpeed: lunos.SpeedMedium, ControllerCoding: "e2-usa"}
	controller, err := newFanController(config, w1, w2, nil, 0, testingutils.NewFakeClock())
	assert.NoError(t, err)
	assert.NoError(t, controller.Refresh(context.Background()))
	assert.Equal(t, lunos.SpeedLow, controller.GetState().Speed)

	// WHEN
	err = controller.DisableSummerVentilation(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"ON", "OFF"}, client.PublishedTo("relay/w2/set"))
	assert.Empty(t, client.PublishedTo("relay/w1/set"))
	assert.Equal(t, lunos.SpeedLow, controller.GetState().Speed)
}

func TestDisableSummerVentilation_UnresolvedRelay(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	unit.w2.state = lunos.RelayUnresolved
	unit.log.reset()

	// WHEN
	err := unit.controller.DisableSummerVentilation(context.Background())

	// THEN
	assert.ErrorIs(t, err, relays.ErrRelayUnresolved)
	assert.Empty(t, unit.log.all())
	assert.Equal(t, lunos.VentilationNormal, unit.controller.GetState().Ventilation)
}

func TestSummerVentilation_StickyAcrossSpeedChanges(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)
	_ = unit.controller.EnableSummerVentilation(context.Background())

	// WHEN
	err := unit.controller.SetPercentage(context.Background(), 100)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, lunos.SpeedHigh, unit.controller.GetState().Speed)
	assert.Equal(t, lunos.VentilationSummer, unit.controller.GetState().Ventilation)
}

func TestPersistence_VentilationIsRestored(t *testing.T) {
	// GIVEN
	p := NewMockPersistence()
	unit := createUnitWithPersistence(t, "e2-usa", lunos.RelayOn, lunos.RelayOff, p)
	_ = unit.controller.Refresh(context.Background())
	_ = unit.controller.EnableSummerVentilation(context.Background())

	// WHEN
	restarted := createUnitWithPersistence(t, "e2-usa", lunos.RelayOn, lunos.RelayOff, p)

	// THEN
	state := restarted.controller.GetState()
	assert.Equal(t, lunos.VentilationSummer, state.Ventilation)
	assert.Equal(t, lunos.PresetSummerVent, state.Preset)
	assert.Equal(t, lunos.SpeedUnknown, state.Speed)
}

func TestOnExternalRelayChange_IgnoresForeignRelays(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)

	// WHEN
	unit.controller.OnExternalRelayChange("kitchen")

	// THEN
	assert.Len(t, unit.controller.notifications, 0)
}

func TestOnExternalRelayChange_NeverBlocks(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)

	// WHEN
	unit.controller.OnExternalRelayChange("w1")
	unit.controller.OnExternalRelayChange("w2")
	unit.controller.OnExternalRelayChange("w1")

	// THEN
	assert.Len(t, unit.controller.notifications, 1)
}

func TestRun_RefreshesOnRelayChange(t *testing.T) {
	// GIVEN
	unit := createUnit(t, "e2-usa", lunos.RelayOff, lunos.RelayOff)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- unit.controller.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		return unit.controller.GetState().Speed == lunos.SpeedOff
	}, time.Second, 10*time.Millisecond)

	// WHEN
	unit.w1.setExternalState(lunos.RelayOn)
	unit.w2.setExternalState(lunos.RelayOn)
	unit.controller.OnExternalRelayChange("w2")

	// THEN
	assert.Eventually(t, func() bool {
		return unit.controller.GetState().Speed == lunos.SpeedHigh
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, unit.clock.RecordedSleeps(), SettleDelay)

	cancel()
	assert.NoError(t, <-done)
}

func TestGetStatistics(t *testing.T) {
	// GIVEN
	unit := createUnitAtSpeed(t, "e2-usa", lunos.SpeedLow)

	// WHEN
	_ = unit.controller.SetPercentage(context.Background(), 100)
	statistics := unit.controller.GetStatistics()

	// THEN
	assert.Equal(t, 2, statistics.RelayCommands)
	assert.Equal(t, 0, statistics.RelayCommandFailures)
	assert.Equal(t, 1, statistics.Refreshes)
	assert.Equal(t, time.Duration(0), statistics.AvgRelayLatency)
	assert.Equal(t, time.Duration(0), statistics.MaxRelayLatency)
}
