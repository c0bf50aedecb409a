package configuration

import (
	"github.com/dMopp/hass-lunos/internal/ui"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"time"
)

type MqttConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientId string `json:"clientId"`
	Username string `json:"username"`
	Password string `json:"password"`

	// TopicPrefix is the root of all topics published and subscribed by lunos2go
	TopicPrefix string `json:"topicPrefix"`
	// Discovery enables Home Assistant MQTT discovery messages
	Discovery       bool   `json:"discovery"`
	DiscoveryPrefix string `json:"discoveryPrefix"`
}

func (m *MqttConfig) ClientOptions() *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(m.Broker).
		SetClientID(m.ClientId).
		SetUsername(m.Username).
		SetPassword(m.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(10 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			ui.Warning("MQTT connection lost: %v", err)
		}).
		SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
			ui.Info("MQTT reconnecting...")
		})
}

type EventsConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}
