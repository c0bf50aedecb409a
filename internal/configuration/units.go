package configuration

import (
	"github.com/dMopp/hass-lunos/internal/lunos"
)

type UnitConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// RelayW1 and RelayW2 reference the ids of relay definitions
	RelayW1 string `json:"relayW1"`
	RelayW2 string `json:"relayW2"`

	// DefaultSpeed is the preset applied when the unit is turned on without a preset
	DefaultSpeed lunos.SpeedName `json:"defaultSpeed"`
	// ControllerCoding selects the controller variant, see "lunos2go variant list"
	ControllerCoding string `json:"controllerCoding"`
	// FanCount overrides the number of fans connected to the controller, 0 uses the variant default
	FanCount int `json:"fanCount,omitempty"`
}

func applyUnitDefaults(config *Configuration) {
	for idx := range config.Units {
		unit := &config.Units[idx]
		if len(unit.Name) <= 0 {
			unit.Name = lunos.DefaultName
		}
		if !unit.DefaultSpeed.IsKnown() {
			unit.DefaultSpeed = lunos.DefaultSpeed
		}
		if len(unit.ControllerCoding) <= 0 {
			unit.ControllerCoding = lunos.DefaultControllerCoding
		}
	}
}
