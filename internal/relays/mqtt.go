package relays

import (
	"context"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"strings"
	"sync"
)

// MqttRelay is a relay exposed by another MQTT device, e.g. a Shelly or Tasmota switch.
// Its state is taken from the retained state topic.
type MqttRelay struct {
	Config configuration.RelayConfig `json:"config"`

	client mqtt.Client

	mu        sync.RWMutex
	state     lunos.RelayState
	listeners []func(relayId string)
}

func NewMqttRelay(config configuration.RelayConfig, client mqtt.Client) *MqttRelay {
	return &MqttRelay{
		Config: config,
		client: client,
		state:  lunos.RelayUnresolved,
	}
}

func (relay *MqttRelay) GetId() string {
	return relay.Config.ID
}

func (relay *MqttRelay) GetConfig() configuration.RelayConfig {
	return relay.Config
}

func (relay *MqttRelay) OnChange(listener func(relayId string)) {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.listeners = append(relay.listeners, listener)
}

// Subscribe registers the state topic handler, call it from the OnConnect handler
// so the subscription survives reconnects.
func (relay *MqttRelay) Subscribe(client mqtt.Client) error {
	conf := relay.Config.Mqtt
	token := client.Subscribe(conf.StateTopic, conf.Qos, func(client mqtt.Client, msg mqtt.Message) {
		relay.handleStateMessage(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("relay %s: subscribe to %s failed: %w", relay.Config.ID, conf.StateTopic, token.Error())
	}
	return nil
}

func (relay *MqttRelay) handleStateMessage(payload []byte) {
	state, err := relay.parsePayload(string(payload))
	if err != nil {
		ui.Warning("Relay %s: %v", relay.Config.ID, err)
		return
	}
	relay.updateState(state)
}

func (relay *MqttRelay) parsePayload(payload string) (lunos.RelayState, error) {
	conf := relay.Config.Mqtt
	text := strings.TrimSpace(payload)
	switch {
	case strings.EqualFold(text, conf.GetPayloadOn()):
		return lunos.RelayOn, nil
	case strings.EqualFold(text, conf.GetPayloadOff()):
		return lunos.RelayOff, nil
	}
	return lunos.ParseRelayState(text)
}

func (relay *MqttRelay) updateState(state lunos.RelayState) {
	relay.mu.Lock()
	changed := relay.state != state
	relay.state = state
	listeners := append([]func(string){}, relay.listeners...)
	relay.mu.Unlock()

	if !changed {
		return
	}
	for _, listener := range listeners {
		listener(relay.Config.ID)
	}
}

func (relay *MqttRelay) GetState(ctx context.Context) (lunos.RelayState, error) {
	relay.mu.RLock()
	defer relay.mu.RUnlock()
	if !relay.state.IsResolved() {
		return lunos.RelayUnresolved, fmt.Errorf("relay %s: %w", relay.Config.ID, ErrRelayUnresolved)
	}
	return relay.state, nil
}

func (relay *MqttRelay) SetState(ctx context.Context, state lunos.RelayState) error {
	conf := relay.Config.Mqtt
	var payload string
	switch state {
	case lunos.RelayOn:
		payload = conf.GetPayloadOn()
	case lunos.RelayOff:
		payload = conf.GetPayloadOff()
	default:
		return ErrRelayUnresolved
	}

	token := relay.client.Publish(conf.CommandTopic, conf.Qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if token.Error() != nil {
		return fmt.Errorf("relay %s: publish to %s failed: %w", relay.Config.ID, conf.CommandTopic, token.Error())
	}

	if conf.Optimistic {
		relay.mu.Lock()
		relay.state = state
		relay.mu.Unlock()
	}
	return nil
}
