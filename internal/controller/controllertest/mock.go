// Package controllertest provides a FanController that records calls instead of switching relays.
package controllertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/lunos"
)

type MockFanController struct {
	ID      string
	Name    string
	Variant lunos.ControllerVariant
	Err     error

	mu        sync.Mutex
	State     controller.State
	Stats     controller.Statistics
	Calls     []string
	listeners []func(controller.State)
}

func NewMockFanController(id string, coding string) *MockFanController {
	variant, _ := lunos.DefaultRegistry.Get(coding)
	return &MockFanController{
		ID:      id,
		Name:    "LUNOS Ventilation",
		Variant: variant,
		State: controller.State{
			Id:          id,
			Name:        "LUNOS Ventilation",
			Preset:      lunos.PresetEco,
			Ventilation: lunos.VentilationNormal,
		},
	}
}

func (m *MockFanController) record(format string, a ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf(format, a...))
	return m.Err
}

// GetCalls returns all recorded operations in order
func (m *MockFanController) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Calls...)
}

// SetState replaces the state and notifies all listeners
func (m *MockFanController) SetState(state controller.State) {
	m.mu.Lock()
	m.State = state
	listeners := append([]func(controller.State){}, m.listeners...)
	m.mu.Unlock()
	for _, listener := range listeners {
		listener(state)
	}
}

func (m *MockFanController) GetId() string {
	return m.ID
}

func (m *MockFanController) GetName() string {
	return m.Name
}

func (m *MockFanController) GetVariant() lunos.ControllerVariant {
	return m.Variant
}

func (m *MockFanController) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *MockFanController) SetPercentage(ctx context.Context, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return lunos.ErrPercentageOutOfRange
	}
	return m.record("percentage %d", percentage)
}

func (m *MockFanController) SetPresetMode(ctx context.Context, name string) error {
	return m.record("preset %s", name)
}

func (m *MockFanController) TurnOn(ctx context.Context, percentage *int, preset *string) error {
	p := "-"
	if percentage != nil {
		p = fmt.Sprint(*percentage)
	}
	name := "-"
	if preset != nil {
		name = *preset
	}
	return m.record("on %s %s", p, name)
}

func (m *MockFanController) TurnOff(ctx context.Context) error {
	return m.record("off")
}

func (m *MockFanController) Refresh(ctx context.Context) error {
	return m.record("refresh")
}

func (m *MockFanController) ClearFilterReminder(ctx context.Context) error {
	return m.record("clear-filter")
}

func (m *MockFanController) EnableSummerVentilation(ctx context.Context) error {
	return m.record("summer on")
}

func (m *MockFanController) DisableSummerVentilation(ctx context.Context) error {
	return m.record("summer off")
}

func (m *MockFanController) OnExternalRelayChange(relayId string) {
	_ = m.record("relay-change %s", relayId)
}

func (m *MockFanController) GetState() controller.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State
}

func (m *MockFanController) GetStatistics() controller.Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stats
}

func (m *MockFanController) AddListener(listener func(controller.State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
