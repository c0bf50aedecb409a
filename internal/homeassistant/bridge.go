package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/ui"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"strconv"
	"strings"
	"sync"
)

var services = []serviceDefinition{
	{service: controller.ServiceClearFilterReminder, name: "Clear filter reminder", icon: "mdi:air-filter"},
	{service: controller.ServiceSummerVentOn, name: "Turn on summer ventilation", icon: "mdi:weather-sunny"},
	{service: controller.ServiceSummerVentOff, name: "Turn off summer ventilation", icon: "mdi:weather-sunny-off"},
}

// commandQueueSize is the number of commands a unit may have waiting for the relay timing
const commandQueueSize = 16

type command func(ctx context.Context)

// Bridge exposes LUNOS units as Home Assistant fan entities over MQTT
type Bridge struct {
	mqtt   mqtt.Client
	config configuration.MqttConfig
	units  []controller.FanController

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	// one queue per unit, commands of a unit run in the order they arrived
	queues  map[string]chan command
	workers sync.WaitGroup
	// queued and running commands
	pending sync.WaitGroup
}

// NewBridge creates a bridge and starts publishing state changes of all given units
func NewBridge(client mqtt.Client, config configuration.MqttConfig, units []controller.FanController) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		mqtt:   client,
		config: config,
		units:  units,
		ctx:    ctx,
		cancel: cancel,
		queues: map[string]chan command{},
	}
	for _, unit := range units {
		queue := make(chan command, commandQueueSize)
		b.queues[unit.GetId()] = queue
		b.workers.Add(1)
		go b.work(queue)

		unit.AddListener(b.PublishState)
	}
	return b
}

func (b *Bridge) work(queue <-chan command) {
	defer b.workers.Done()
	for cmd := range queue {
		if b.ctx.Err() == nil {
			cmd(b.ctx)
		}
		b.pending.Done()
	}
}

// Connect registers discovery messages and command subscriptions, call it from the OnConnect handler
func (b *Bridge) Connect() error {
	if b.config.Discovery {
		for _, unit := range b.units {
			if err := b.RegisterFan(unit); err != nil {
				return err
			}
			ui.Debug("Registered Home Assistant fan for LUNOS unit '%s'", unit.GetId())
		}
	}

	for _, unit := range b.units {
		if err := b.SubscribeToFanCommands(unit); err != nil {
			return err
		}
		b.PublishState(unit.GetState())
	}
	return nil
}

// Close cancels the running commands, drops the queued ones and waits for all workers to return
func (b *Bridge) Close() {
	b.cancel()

	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for _, queue := range b.queues {
			close(queue)
		}
	}
	b.mu.Unlock()

	b.workers.Wait()
}

func (b *Bridge) RegisterFan(unit controller.FanController) error {
	topics := topicsFor(b.config.TopicPrefix, unit.GetId())
	variant := unit.GetVariant()
	device := deviceConfiguration{
		Identifiers:  []string{"lunos_" + unit.GetId()},
		Name:         unit.GetName(),
		Manufacturer: "LUNOS",
		Model:        variant.Name,
	}

	fan, _ := json.Marshal(fanConfiguration{
		UniqueId:               "lunos_" + unit.GetId(),
		Name:                   unit.GetName(),
		StateTopic:             topics.state,
		CommandTopic:           topics.command,
		PayloadOn:              payloadOn,
		PayloadOff:             payloadOff,
		PercentageStateTopic:   topics.percentageState,
		PercentageCommandTopic: topics.percentageCommand,
		PresetModeStateTopic:   topics.presetState,
		PresetModeCommandTopic: topics.presetCommand,
		PresetModes:            variant.PresetModes(),
		JsonAttributesTopic:    topics.attributes,
		Device:                 device,
	})
	if err := b.publish(fanConfigTopic(b.config.DiscoveryPrefix, unit.GetId()), fan); err != nil {
		return err
	}

	for _, definition := range services {
		button, _ := json.Marshal(buttonConfiguration{
			UniqueId:     fmt.Sprintf("lunos_%v_%v", unit.GetId(), definition.service),
			Name:         definition.name,
			CommandTopic: topics.serviceCommand,
			PayloadPress: definition.service,
			Icon:         definition.icon,
			Device:       device,
		})
		if err := b.publish(buttonConfigTopic(b.config.DiscoveryPrefix, unit.GetId(), definition.service), button); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bridge) SubscribeToFanCommands(unit controller.FanController) error {
	topics := topicsFor(b.config.TopicPrefix, unit.GetId())

	handlers := map[string]func(ctx context.Context, payload string) error{
		topics.command: func(ctx context.Context, payload string) error {
			if strings.EqualFold(payload, payloadOff) {
				return unit.TurnOff(ctx)
			}
			return unit.TurnOn(ctx, nil, nil)
		},
		topics.percentageCommand: func(ctx context.Context, payload string) error {
			percentage, err := strconv.Atoi(payload)
			if err != nil {
				return fmt.Errorf("invalid percentage '%s'", payload)
			}
			return unit.SetPercentage(ctx, percentage)
		},
		topics.presetCommand: func(ctx context.Context, payload string) error {
			return unit.SetPresetMode(ctx, payload)
		},
		topics.serviceCommand: func(ctx context.Context, payload string) error {
			return controller.CallService(ctx, unit, payload)
		},
	}

	for topic, handler := range handlers {
		topic, handler := topic, handler
		t := b.mqtt.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
			b.dispatch(unit, topic, strings.TrimSpace(string(msg.Payload())), handler)
		})
		if t.Wait() && t.Error() != nil {
			return fmt.Errorf("unit %s: subscribe to %s failed: %w", unit.GetId(), topic, t.Error())
		}
	}
	return nil
}

// dispatch queues a command outside of the paho callback, operations may wait for the relay timing
func (b *Bridge) dispatch(unit controller.FanController, topic string, payload string, handler func(ctx context.Context, payload string) error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	cmd := func(ctx context.Context) {
		ui.Debug("MQTT command for LUNOS unit '%s' on %s: %s", unit.GetId(), topic, payload)
		if err := handler(ctx, payload); err != nil {
			ui.Error("MQTT command for LUNOS unit '%s' failed: %v", unit.GetId(), err)
		}
	}

	b.pending.Add(1)
	select {
	case b.queues[unit.GetId()] <- cmd:
	default:
		b.pending.Done()
		ui.Warning("Too many pending commands for LUNOS unit '%s', dropping %s: %s", unit.GetId(), topic, payload)
	}
}

// PublishState publishes the retained state topics of a unit
func (b *Bridge) PublishState(state controller.State) {
	topics := topicsFor(b.config.TopicPrefix, state.Id)

	onOff := payloadOff
	if state.IsOn {
		onOff = payloadOn
	}
	percentage := payloadNone
	if state.Percentage != nil {
		percentage = strconv.Itoa(*state.Percentage)
	}
	attributes, _ := json.Marshal(state.Attributes)

	messages := []struct {
		topic   string
		payload []byte
	}{
		{topics.state, []byte(onOff)},
		{topics.percentageState, []byte(percentage)},
		{topics.presetState, []byte(state.Preset)},
		{topics.attributes, attributes},
	}
	for _, message := range messages {
		if err := b.publish(message.topic, message.payload); err != nil {
			ui.Warning("MQTT publishing failed: %v", err)
			return
		}
	}
}

func (b *Bridge) publish(topic string, payload []byte) error {
	if t := b.mqtt.Publish(topic, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}
