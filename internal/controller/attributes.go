package controller

import (
	"github.com/dMopp/hass-lunos/internal/lunos"
)

// Attributes are derived from the current speed of a unit and never stored as ground truth
type Attributes struct {
	ModelName              string                  `json:"modelName"`
	ControllerCoding       string                  `json:"controllerCoding"`
	FanCount               int                     `json:"fanCount"`
	RelayW1                string                  `json:"relayW1"`
	RelayW2                string                  `json:"relayW2"`
	CycleSeconds           int                     `json:"cycleSeconds,omitempty"`
	SupportsFilterReminder bool                    `json:"supportsFilterReminder"`
	VentilationModes       []lunos.VentilationMode `json:"ventModes"`
	PresetModes            []string                `json:"presetModes"`

	Speed       lunos.SpeedName       `json:"speed"`
	Percentage  *int                  `json:"percentage"`
	CFM         *float64              `json:"cfm"`
	CMH         *float64              `json:"cmh"`
	DB          *float64              `json:"dB"`
	Watts       *float64              `json:"watts"`
	Ventilation lunos.VentilationMode `json:"ventilationMode"`
	Preset      string                `json:"preset"`
}

type attributeInput struct {
	variant     lunos.ControllerVariant
	fanCount    int
	relayW1     string
	relayW2     string
	speed       lunos.SpeedName
	ventilation lunos.VentilationMode
	preset      string
}

// computeAttributes scales the airflow of the variant by the number of connected fans.
// Noise and power figures are per fan and not scaled.
func computeAttributes(in attributeInput) Attributes {
	result := Attributes{
		ModelName:              in.variant.Name,
		ControllerCoding:       in.variant.Key,
		FanCount:               in.fanCount,
		RelayW1:                in.relayW1,
		RelayW2:                in.relayW2,
		CycleSeconds:           in.variant.CycleSeconds,
		SupportsFilterReminder: in.variant.SupportsFilterReminder,
		VentilationModes:       in.variant.VentilationModes(),
		PresetModes:            in.variant.PresetModes(),
		Speed:                  in.speed,
		Ventilation:            in.ventilation,
		Preset:                 in.preset,
	}

	if !in.speed.IsKnown() {
		return result
	}

	if percentage, ok := in.variant.PercentageFor(in.speed); ok {
		result.Percentage = &percentage
	}

	behavior, ok := in.variant.BehaviorFor(in.speed)
	if !ok {
		return result
	}

	multiplier := float64(in.fanCount) / float64(in.variant.DefaultFanCount)
	switch {
	case behavior.CFM != nil:
		cfm := *behavior.CFM * multiplier
		cmh := cfm * lunos.CfmToCmh
		result.CFM = &cfm
		result.CMH = &cmh
	case behavior.CMH != nil:
		cmh := *behavior.CMH * multiplier
		cfm := cmh / lunos.CfmToCmh
		result.CFM = &cfm
		result.CMH = &cmh
	}
	result.DB = behavior.DB
	result.Watts = behavior.Watts

	return result
}
