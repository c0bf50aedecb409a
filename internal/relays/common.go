package relays

import (
	"context"
	"errors"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	RelayMap = cmap.New[Relay]()

	ErrRelayUnresolved = errors.New("relay state is unresolved")
)

// Relay is a single binary output wired to the W1 or W2 input of a LUNOS controller
type Relay interface {
	GetId() string

	GetConfig() configuration.RelayConfig

	// GetState returns the last known state of this relay
	GetState(ctx context.Context) (lunos.RelayState, error)
	// SetState commands the relay, returning once the backend acknowledged the command
	SetState(ctx context.Context, state lunos.RelayState) error
}

// Notifier is implemented by relays that report external state changes
type Notifier interface {
	OnChange(listener func(relayId string))
}

// NewRelay creates the relay backend matching the given config,
// client is only used by mqtt relays and may be nil otherwise.
func NewRelay(config configuration.RelayConfig, client mqtt.Client) (Relay, error) {
	if config.File != nil {
		return &FileRelay{
			Config: config,
		}, nil
	}

	if config.Cmd != nil {
		return &CmdRelay{
			Config: config,
		}, nil
	}

	if config.Mqtt != nil {
		if client == nil {
			return nil, fmt.Errorf("relay %s: mqtt client is not available", config.ID)
		}
		return NewMqttRelay(config, client), nil
	}

	return nil, fmt.Errorf("no matching relay type for relay: %s", config.ID)
}

// Toggle inverts the current state of the given relay
func Toggle(ctx context.Context, relay Relay) error {
	state, err := relay.GetState(ctx)
	if err != nil {
		return err
	}
	if !state.IsResolved() {
		return fmt.Errorf("cannot toggle relay %s: %w", relay.GetId(), ErrRelayUnresolved)
	}
	return relay.SetState(ctx, state.Inverted())
}

func stateText(state lunos.RelayState) (string, error) {
	switch state {
	case lunos.RelayOn:
		return "1", nil
	case lunos.RelayOff:
		return "0", nil
	}
	return "", ErrRelayUnresolved
}
