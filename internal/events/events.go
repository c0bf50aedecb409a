package events

import (
	"context"
	"encoding/json"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/segmentio/kafka-go"
	"time"
)

const queueSize = 64

// StateEvent is published for every state change of a unit
type StateEvent struct {
	UnitId      string                `json:"unitId"`
	Speed       lunos.SpeedName       `json:"speed"`
	Percentage  *int                  `json:"percentage"`
	IsOn        bool                  `json:"isOn"`
	Preset      string                `json:"preset"`
	Ventilation lunos.VentilationMode `json:"ventilationMode"`
	Cmh         *float64              `json:"cmh,omitempty"`
	Watts       *float64              `json:"watts,omitempty"`
	Time        time.Time             `json:"time"`
}

func NewStateEvent(state controller.State, now time.Time) StateEvent {
	return StateEvent{
		UnitId:      state.Id,
		Speed:       state.Speed,
		Percentage:  state.Percentage,
		IsOn:        state.IsOn,
		Preset:      state.Preset,
		Ventilation: state.Ventilation,
		Cmh:         state.Attributes.CMH,
		Watts:       state.Attributes.Watts,
		Time:        now,
	}
}

// messageWriter is implemented by kafka.Writer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards state changes of units to a kafka topic.
// Events are queued, so a slow broker never holds up a unit.
type KafkaPublisher struct {
	writer messageWriter
	queue  chan StateEvent
}

func NewKafkaPublisher(config configuration.EventsConfig) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		queue:  make(chan StateEvent, queueSize),
	}
}

// Attach registers the publisher as listener of all given units
func (p *KafkaPublisher) Attach(units []controller.FanController) {
	for _, unit := range units {
		unit.AddListener(p.OnStateChange)
	}
}

func (p *KafkaPublisher) OnStateChange(state controller.State) {
	select {
	case p.queue <- NewStateEvent(state, time.Now()):
	default:
		ui.Warning("Event queue full, dropping state event of LUNOS unit '%s'", state.Id)
	}
}

// Run writes queued events until ctx is done
func (p *KafkaPublisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.writer.Close(); err != nil {
			ui.Warning("Error closing kafka writer: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-p.queue:
			p.write(ctx, event)
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, event StateEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		ui.Error("Cannot encode state event: %v", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UnitId),
		Value: value,
		Time:  event.Time,
	})
	if err != nil && ctx.Err() == nil {
		ui.Warning("Publishing state event of LUNOS unit '%s' failed: %v", event.UnitId, err)
	}
}
