package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/controller/controllertest"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type fakeWriter struct {
	mu       sync.Mutex
	err      error
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func TestNewStateEvent(t *testing.T) {
	// GIVEN
	percentage := 33
	cmh := 30.0
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	state := controller.State{
		Id:          "bath",
		Speed:       lunos.SpeedLow,
		Percentage:  &percentage,
		IsOn:        true,
		Preset:      "low",
		Ventilation: lunos.VentilationSummer,
		Attributes:  controller.Attributes{CMH: &cmh},
	}

	// WHEN
	event := NewStateEvent(state, now)

	// THEN
	assert.Equal(t, "bath", event.UnitId)
	assert.Equal(t, &percentage, event.Percentage)
	assert.Equal(t, &cmh, event.Cmh)
	assert.Nil(t, event.Watts)
	assert.Equal(t, lunos.VentilationSummer, event.Ventilation)
	assert.Equal(t, now, event.Time)
}

func TestKafkaPublisher_PublishesStateChanges(t *testing.T) {
	// GIVEN
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer)
	unit := controllertest.NewMockFanController("bath", lunos.DefaultControllerCoding)
	publisher.Attach([]controller.FanController{unit})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = publisher.Run(ctx)
		close(done)
	}()

	// WHEN
	unit.SetState(controller.State{Id: "bath", Speed: lunos.SpeedHigh, Preset: "high"})

	// THEN
	assert.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	message := writer.messages[0]
	assert.Equal(t, "bath", string(message.Key))
	var event StateEvent
	assert.NoError(t, json.Unmarshal(message.Value, &event))
	assert.Equal(t, lunos.SpeedHigh, event.Speed)
	assert.Equal(t, "high", event.Preset)
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_DropsWhenQueueIsFull(t *testing.T) {
	// GIVEN
	publisher := newKafkaPublisher(&fakeWriter{})

	// WHEN
	for i := 0; i < queueSize+10; i++ {
		publisher.OnStateChange(controller.State{Id: "bath"})
	}

	// THEN
	assert.Len(t, publisher.queue, queueSize)
}

func TestKafkaPublisher_WriteErrorDoesNotStop(t *testing.T) {
	// GIVEN
	writer := &fakeWriter{err: assert.AnError}
	publisher := newKafkaPublisher(writer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = publisher.Run(ctx)
	}()

	// WHEN
	publisher.OnStateChange(controller.State{Id: "a"})
	publisher.OnStateChange(controller.State{Id: "b"})

	// THEN
	assert.Eventually(t, func() bool { return writer.count() == 2 }, time.Second, 10*time.Millisecond)
}
