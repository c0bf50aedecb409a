package configuration

type RelayConfig struct {
	ID   string           `json:"id"`
	File *FileRelayConfig `json:"file,omitempty"`
	Cmd  *CmdRelayConfig  `json:"cmd,omitempty"`
	Mqtt *MqttRelayConfig `json:"mqtt,omitempty"`
}

type FileRelayConfig struct {
	// Path to a file containing the relay state (0|1, on|off, true|false)
	Path string `json:"path"`
}

type CmdRelayConfig struct {
	// GetState prints the current relay state to stdout
	GetState *ExecConfig `json:"getState"`
	// SetState changes the relay state, "%state%" in args is replaced with "on" or "off"
	SetState *ExecConfig `json:"setState"`
}

type ExecConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}

type MqttRelayConfig struct {
	StateTopic   string `json:"stateTopic"`
	CommandTopic string `json:"commandTopic"`
	PayloadOn    string `json:"payloadOn"`
	PayloadOff   string `json:"payloadOff"`
	Qos          byte   `json:"qos"`
	// Optimistic assumes a command was applied as soon as the broker acknowledged it
	Optimistic bool `json:"optimistic"`
}

func (c MqttRelayConfig) GetPayloadOn() string {
	if len(c.PayloadOn) <= 0 {
		return "ON"
	}
	return c.PayloadOn
}

func (c MqttRelayConfig) GetPayloadOff() string {
	if len(c.PayloadOff) <= 0 {
		return "OFF"
	}
	return c.PayloadOff
}
