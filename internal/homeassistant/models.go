package homeassistant

const (
	payloadOn  = "ON"
	payloadOff = "OFF"
	// resets the percentage of the fan entity to unknown
	payloadNone = "None"
)

type deviceConfiguration struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

type fanConfiguration struct {
	UniqueId               string              `json:"unique_id"`
	Name                   string              `json:"name"`
	StateTopic             string              `json:"state_topic"`
	CommandTopic           string              `json:"command_topic"`
	PayloadOn              string              `json:"payload_on"`
	PayloadOff             string              `json:"payload_off"`
	PercentageStateTopic   string              `json:"percentage_state_topic"`
	PercentageCommandTopic string              `json:"percentage_command_topic"`
	PresetModeStateTopic   string              `json:"preset_mode_state_topic"`
	PresetModeCommandTopic string              `json:"preset_mode_command_topic"`
	PresetModes            []string            `json:"preset_modes"`
	JsonAttributesTopic    string              `json:"json_attributes_topic"`
	Device                 deviceConfiguration `json:"device"`
}

type buttonConfiguration struct {
	UniqueId     string              `json:"unique_id"`
	Name         string              `json:"name"`
	CommandTopic string              `json:"command_topic"`
	PayloadPress string              `json:"payload_press"`
	Icon         string              `json:"icon,omitempty"`
	Device       deviceConfiguration `json:"device"`
}

type serviceDefinition struct {
	service string
	name    string
	icon    string
}
