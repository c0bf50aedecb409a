package lunos

import (
	"strings"
)

const (
	PresetEco         = "eco"
	PresetSummerVent  = "summer" // also known as night mode
	PresetExhaustOnly = "exhaust"
	PresetOff         = string(SpeedOff)
)

// PresetKind is the closed set of preset categories a preset name can resolve to
type PresetKind int

const (
	PresetKindUnknown PresetKind = iota
	PresetKindOff
	PresetKindEco
	PresetKindSummerVent
	PresetKindSpeed
)

func (k PresetKind) String() string {
	switch k {
	case PresetKindOff:
		return "off"
	case PresetKindEco:
		return "eco"
	case PresetKindSummerVent:
		return "summer-vent"
	case PresetKindSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// Preset is a preset mode name, resolved against a controller variant
type Preset struct {
	Kind PresetKind
	Name string
	// Speed is only set for PresetKindSpeed
	Speed SpeedName
	// Percentage is only set for PresetKindSpeed
	Percentage int
}

// ResolvePreset resolves a user facing preset name for this variant.
// "off" always resolves to PresetKindOff, even for variants without an off
// setting (turning those off selects their lowest speed).
func (v ControllerVariant) ResolvePreset(name string) Preset {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case PresetOff:
		return Preset{Kind: PresetKindOff, Name: PresetOff}
	case PresetEco:
		return Preset{Kind: PresetKindEco, Name: PresetEco}
	case PresetSummerVent:
		if v.SupportsSummerVent {
			return Preset{Kind: PresetKindSummerVent, Name: PresetSummerVent}
		}
		return Preset{Kind: PresetKindUnknown, Name: name}
	}

	speed := SpeedName(normalized)
	if percentage, ok := v.PercentageFor(speed); ok {
		return Preset{Kind: PresetKindSpeed, Name: normalized, Speed: speed, Percentage: percentage}
	}

	return Preset{Kind: PresetKindUnknown, Name: name}
}

// PresetModes returns all preset names offered by this variant
func (v ControllerVariant) PresetModes() []string {
	result := []string{PresetEco}
	for _, speed := range v.Speeds() {
		result = append(result, string(speed))
	}
	if v.SupportsSummerVent {
		result = append(result, PresetSummerVent)
	}
	return result
}

// VentilationMode describes how air is circulated through the fan, independent of its speed
type VentilationMode string

const (
	VentilationNormal VentilationMode = "normal"
	// VentilationSummer extends the reversal cycle of the heat exchanger to one hour
	VentilationSummer      VentilationMode = "summer"
	VentilationExhaustOnly VentilationMode = "exhaust-only"
)

// VentilationModes returns the ventilation modes of this variant
func (v ControllerVariant) VentilationModes() []VentilationMode {
	result := []VentilationMode{VentilationNormal}
	if v.SupportsSummerVent {
		result = append(result, VentilationSummer)
	}
	if v.SupportsExhaustOnly {
		result = append(result, VentilationExhaustOnly)
	}
	return result
}
