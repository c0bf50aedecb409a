package lunos

import (
	"fmt"
	"github.com/dMopp/hass-lunos/internal/util"
)

const (
	DefaultName             = "LUNOS Ventilation"
	DefaultControllerCoding = "e2-usa"

	// CfmToCmh converts cubic feet per minute to cubic meters per hour
	CfmToCmh = 1.69901
)

// Behavior describes airflow, noise and power consumption of a variant at a given speed.
// Airflow is specified either in cfm or in cmh, depending on the documentation of the variant.
type Behavior struct {
	CFM   *float64 `json:"cfm,omitempty"`
	CMH   *float64 `json:"cmh,omitempty"`
	DB    *float64 `json:"dB,omitempty"`
	Watts *float64 `json:"watts,omitempty"`
}

// ControllerVariant is a LUNOS controller hardware configuration profile,
// selected by the coding switch of the controller.
type ControllerVariant struct {
	Key                    string                 `json:"key"`
	Name                   string                 `json:"name"`
	SupportsOff            bool                   `json:"supportsOff"`
	DefaultFanCount        int                    `json:"defaultFanCount"`
	SupportsSummerVent     bool                   `json:"supportsSummerVent"`
	SupportsExhaustOnly    bool                   `json:"supportsExhaustOnly"`
	SupportsTurbo          bool                   `json:"supportsTurbo"`
	SupportsFilterReminder bool                   `json:"supportsFilterReminder"`
	CycleSeconds           int                    `json:"cycleSeconds,omitempty"`
	Behavior               map[SpeedName]Behavior `json:"behavior"`
}

// BehaviorFor returns the behavior of this variant at the given speed
func (v ControllerVariant) BehaviorFor(speed SpeedName) (Behavior, bool) {
	behavior, ok := v.Behavior[speed]
	return behavior, ok
}

// Registry is an immutable lookup of controller variants by their coding key
type Registry struct {
	variants map[string]ControllerVariant
}

func NewRegistry(variants ...ControllerVariant) (*Registry, error) {
	r := &Registry{
		variants: map[string]ControllerVariant{},
	}
	for _, variant := range variants {
		if len(variant.Key) <= 0 {
			return nil, fmt.Errorf("controller variant '%s' is missing a key", variant.Name)
		}
		if _, exists := r.variants[variant.Key]; exists {
			return nil, fmt.Errorf("duplicate controller variant key: %s", variant.Key)
		}
		if variant.DefaultFanCount <= 0 {
			return nil, fmt.Errorf("controller variant %s: default fan count must be >= 1", variant.Key)
		}
		if variant.SupportsTurbo && variant.SupportsOff {
			return nil, fmt.Errorf("controller variant %s: turbo is only available without an off setting", variant.Key)
		}
		for speed := range variant.Behavior {
			if !variant.SupportsSpeed(speed) {
				return nil, fmt.Errorf("controller variant %s: behavior for unsupported speed '%s'", variant.Key, speed)
			}
		}
		r.variants[variant.Key] = variant
	}
	return r, nil
}

func MustNewRegistry(variants ...ControllerVariant) *Registry {
	r, err := NewRegistry(variants...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Get(key string) (ControllerVariant, bool) {
	variant, ok := r.variants[key]
	return variant, ok
}

// Keys returns all known coding keys, sorted alphabetically
func (r *Registry) Keys() []string {
	return util.SortedKeys(r.variants)
}

func value(v float64) *float64 {
	return &v
}

// DefaultRegistry contains the controller codings documented by LUNOS
// for the e2 and eGO fans.
var DefaultRegistry = MustNewRegistry(
	ControllerVariant{
		Key:                    "e2-usa",
		Name:                   "LUNOS e2 (USA)",
		SupportsOff:            true,
		DefaultFanCount:        2,
		SupportsSummerVent:     true,
		SupportsFilterReminder: true,
		CycleSeconds:           70,
		Behavior: map[SpeedName]Behavior{
			SpeedOff:    {},
			SpeedLow:    {CFM: value(10), DB: value(16.5), Watts: value(1.4)},
			SpeedMedium: {CFM: value(15), DB: value(19.5), Watts: value(1.9)},
			SpeedHigh:   {CFM: value(20), DB: value(26), Watts: value(2.6)},
		},
	},
	ControllerVariant{
		Key:                    "e2",
		Name:                   "LUNOS e2",
		SupportsOff:            true,
		DefaultFanCount:        2,
		SupportsSummerVent:     true,
		SupportsFilterReminder: true,
		CycleSeconds:           70,
		Behavior: map[SpeedName]Behavior{
			SpeedOff:    {},
			SpeedLow:    {CMH: value(15), DB: value(16.5), Watts: value(1.4)},
			SpeedMedium: {CMH: value(30), DB: value(19.5), Watts: value(2.4)},
			SpeedHigh:   {CMH: value(38), DB: value(26), Watts: value(3.2)},
		},
	},
	ControllerVariant{
		Key:                    "e2-4-speed",
		Name:                   "LUNOS e2 (4-speed)",
		SupportsOff:            false,
		DefaultFanCount:        2,
		SupportsSummerVent:     true,
		SupportsTurbo:          true,
		SupportsFilterReminder: true,
		CycleSeconds:           70,
		Behavior: map[SpeedName]Behavior{
			SpeedLow:    {CMH: value(15), DB: value(16.5), Watts: value(1.4)},
			SpeedMedium: {CMH: value(22), DB: value(18), Watts: value(1.8)},
			SpeedHigh:   {CMH: value(30), DB: value(19.5), Watts: value(2.4)},
			SpeedTurbo:  {CMH: value(38), DB: value(26), Watts: value(3.2)},
		},
	},
	ControllerVariant{
		Key:                    "e2-short",
		Name:                   "LUNOS e2 short",
		SupportsOff:            true,
		DefaultFanCount:        2,
		SupportsSummerVent:     true,
		SupportsFilterReminder: true,
		CycleSeconds:           70,
		Behavior: map[SpeedName]Behavior{
			SpeedOff:    {},
			SpeedLow:    {CMH: value(15), DB: value(19.5), Watts: value(1.4)},
			SpeedMedium: {CMH: value(23), DB: value(23), Watts: value(2.1)},
			SpeedHigh:   {CMH: value(30), DB: value(28), Watts: value(2.8)},
		},
	},
	ControllerVariant{
		Key:                    "e2-60",
		Name:                   "LUNOS e2 60",
		SupportsOff:            true,
		DefaultFanCount:        2,
		SupportsSummerVent:     true,
		SupportsFilterReminder: true,
		CycleSeconds:           55,
		Behavior: map[SpeedName]Behavior{
			SpeedOff:    {},
			SpeedLow:    {CMH: value(17), DB: value(17.5), Watts: value(1.6)},
			SpeedMedium: {CMH: value(40), DB: value(25), Watts: value(3.1)},
			SpeedHigh:   {CMH: value(60), DB: value(33), Watts: value(5.4)},
		},
	},
	ControllerVariant{
		Key:                    "ego",
		Name:                   "LUNOS eGO",
		SupportsOff:            true,
		DefaultFanCount:        1,
		SupportsSummerVent:     true,
		SupportsExhaustOnly:    true,
		SupportsFilterReminder: true,
		CycleSeconds:           50,
		Behavior: map[SpeedName]Behavior{
			SpeedOff:    {},
			SpeedLow:    {CMH: value(5), DB: value(16), Watts: value(1.2)},
			SpeedMedium: {CMH: value(10), DB: value(20), Watts: value(1.6)},
			SpeedHigh:   {CMH: value(20), DB: value(28), Watts: value(2.6)},
		},
	},
	ControllerVariant{
		Key:                    "ego-4-speed",
		Name:                   "LUNOS eGO (4-speed)",
		SupportsOff:            false,
		DefaultFanCount:        1,
		SupportsSummerVent:     true,
		SupportsExhaustOnly:    true,
		SupportsTurbo:          true,
		SupportsFilterReminder: true,
		CycleSeconds:           50,
		Behavior: map[SpeedName]Behavior{
			SpeedLow:    {CMH: value(5), DB: value(16), Watts: value(1.2)},
			SpeedMedium: {CMH: value(10), DB: value(20), Watts: value(1.6)},
			SpeedHigh:   {CMH: value(15), DB: value(24), Watts: value(2.1)},
			SpeedTurbo:  {CMH: value(20), DB: value(28), Watts: value(2.6)},
		},
	},
	ControllerVariant{
		Key:                 "ego-exhaust-4-speed",
		Name:                "LUNOS eGO (exhaust only, 4-speed)",
		SupportsOff:         false,
		DefaultFanCount:     1,
		SupportsExhaustOnly: true,
		SupportsTurbo:       true,
		Behavior: map[SpeedName]Behavior{
			SpeedLow:    {CMH: value(15), DB: value(20), Watts: value(1.6)},
			SpeedMedium: {CMH: value(20), DB: value(24), Watts: value(2.1)},
			SpeedHigh:   {CMH: value(30), DB: value(28), Watts: value(2.9)},
			SpeedTurbo:  {CMH: value(45), DB: value(35), Watts: value(4.6)},
		},
	},
)
