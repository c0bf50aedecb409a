package testingutils

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// FakeToken is an already completed mqtt.Token
type FakeToken struct {
	Err error
}

func (t *FakeToken) Wait() bool {
	return true
}

func (t *FakeToken) WaitTimeout(time.Duration) bool {
	return true
}

func (t *FakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

func (t *FakeToken) Error() error {
	return t.Err
}

type FakeMessage struct {
	TopicName   string
	PayloadData []byte
	IsRetained  bool
}

func (m *FakeMessage) Duplicate() bool   { return false }
func (m *FakeMessage) Qos() byte         { return 0 }
func (m *FakeMessage) Retained() bool    { return m.IsRetained }
func (m *FakeMessage) Topic() string     { return m.TopicName }
func (m *FakeMessage) MessageID() uint16 { return 0 }
func (m *FakeMessage) Payload() []byte   { return m.PayloadData }
func (m *FakeMessage) Ack()              {}

type Publication struct {
	Topic    string
	Qos      byte
	Retained bool
	Payload  string
}

// FakeMqttClient records publications and subscriptions in memory.
// Deliver passes a message to the handler subscribed to its exact topic.
type FakeMqttClient struct {
	mu            sync.Mutex
	PublishErr    error
	Publications  []Publication
	Subscriptions map[string]mqtt.MessageHandler
}

func NewFakeMqttClient() *FakeMqttClient {
	return &FakeMqttClient{
		Subscriptions: map[string]mqtt.MessageHandler{},
	}
}

func (c *FakeMqttClient) IsConnected() bool      { return true }
func (c *FakeMqttClient) IsConnectionOpen() bool { return true }
func (c *FakeMqttClient) Connect() mqtt.Token    { return &FakeToken{} }
func (c *FakeMqttClient) Disconnect(uint)        {}

func (c *FakeMqttClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	var text string
	switch p := payload.(type) {
	case string:
		text = p
	case []byte:
		text = string(p)
	}
	c.Publications = append(c.Publications, Publication{Topic: topic, Qos: qos, Retained: retained, Payload: text})
	return &FakeToken{Err: c.PublishErr}
}

func (c *FakeMqttClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subscriptions[topic] = callback
	return &FakeToken{}
}

func (c *FakeMqttClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return &FakeToken{}
}

func (c *FakeMqttClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.Subscriptions, topic)
	}
	return &FakeToken{}
}

func (c *FakeMqttClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.Subscribe(topic, 0, callback)
}

func (c *FakeMqttClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Deliver simulates an incoming message, it returns false if nobody subscribed to topic
func (c *FakeMqttClient) Deliver(topic string, payload string) bool {
	c.mu.Lock()
	handler, ok := c.Subscriptions[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	handler(c, &FakeMessage{TopicName: topic, PayloadData: []byte(payload)})
	return true
}

// PublishedTo returns all payloads published to topic, in order
func (c *FakeMqttClient) PublishedTo(topic string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []string
	for _, publication := range c.Publications {
		if publication.Topic == topic {
			result = append(result, publication.Payload)
		}
	}
	return result
}
