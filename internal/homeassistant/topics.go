package homeassistant

import (
	"fmt"
)

type unitTopics struct {
	state             string
	command           string
	percentageState   string
	percentageCommand string
	presetState       string
	presetCommand     string
	attributes        string
	serviceCommand    string
}

func topicsFor(prefix string, unitId string) unitTopics {
	base := fmt.Sprintf("%v/%v", prefix, unitId)
	return unitTopics{
		state:             base + "/state",
		command:           base + "/cmd",
		percentageState:   base + "/percentage/state",
		percentageCommand: base + "/percentage/cmd",
		presetState:       base + "/preset/state",
		presetCommand:     base + "/preset/cmd",
		attributes:        base + "/attributes",
		serviceCommand:    base + "/service/cmd",
	}
}

func fanConfigTopic(discoveryPrefix string, unitId string) string {
	return fmt.Sprintf("%v/fan/lunos_%v/config", discoveryPrefix, unitId)
}

func buttonConfigTopic(discoveryPrefix string, unitId string, service string) string {
	return fmt.Sprintf("%v/button/lunos_%v_%v/config", discoveryPrefix, unitId, service)
}
