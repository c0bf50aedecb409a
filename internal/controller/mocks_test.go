package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/persistence"
)

// commandLog records relay commands of all relays of a unit in order
type commandLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *commandLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *commandLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.entries...)
}

func (l *commandLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

type MockRelay struct {
	ID  string
	log *commandLog

	mu     sync.Mutex
	state  lunos.RelayState
	getErr error
	// failAfter makes SetState fail after the given number of successful commands, -1 never fails
	failAfter int
	commands  int
	onSet     func()
}

func (relay *MockRelay) GetId() string {
	return relay.ID
}

func (relay *MockRelay) GetConfig() configuration.RelayConfig {
	panic("not implemented")
}

func (relay *MockRelay) GetState(ctx context.Context) (lunos.RelayState, error) {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.getErr != nil {
		return lunos.RelayUnresolved, relay.getErr
	}
	return relay.state, nil
}

func (relay *MockRelay) SetState(ctx context.Context, state lunos.RelayState) error {
	relay.mu.Lock()
	if relay.failAfter >= 0 && relay.commands >= relay.failAfter {
		relay.mu.Unlock()
		return errors.New("relay not reachable")
	}
	relay.commands++
	relay.state = state
	relay.getErr = nil
	onSet := relay.onSet
	relay.mu.Unlock()

	relay.log.add(fmt.Sprintf("%s=%s", relay.ID, state))
	if onSet != nil {
		onSet()
	}
	return nil
}

func (relay *MockRelay) setExternalState(state lunos.RelayState) {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.state = state
	relay.getErr = nil
}

type MockPersistence struct {
	mu     sync.Mutex
	states map[string]persistence.UnitState
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		states: map[string]persistence.UnitState{},
	}
}

func (p *MockPersistence) Init() error {
	return nil
}

func (p *MockPersistence) LoadUnitState(unitId string) (persistence.UnitState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.states[unitId]
	if !ok {
		return persistence.UnitState{}, os.ErrNotExist
	}
	return state, nil
}

func (p *MockPersistence) SaveUnitState(unitId string, state persistence.UnitState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[unitId] = state
	return nil
}

func (p *MockPersistence) DeleteUnitState(unitId string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, unitId)
	return nil
}
