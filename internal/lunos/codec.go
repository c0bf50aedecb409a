package lunos

import (
	"errors"
	"fmt"
)

var ErrPercentageOutOfRange = errors.New("fan percentage must be within 0..100")

type speedLevel struct {
	Speed      SpeedName
	Percentage int
	Relays     RelayPair
}

// speed levels of controllers coded with an OFF setting (three speeds plus off),
// sorted by percentage
var threeSpeedLevels = []speedLevel{
	{Speed: SpeedOff, Percentage: 0, Relays: RelayPair{W1: RelayOff, W2: RelayOff}},
	{Speed: SpeedLow, Percentage: 33, Relays: RelayPair{W1: RelayOn, W2: RelayOff}},
	{Speed: SpeedMedium, Percentage: 66, Relays: RelayPair{W1: RelayOff, W2: RelayOn}},
	{Speed: SpeedHigh, Percentage: 100, Relays: RelayPair{W1: RelayOn, W2: RelayOn}},
}

// speed levels of controllers coded without an OFF setting (four speeds, never off),
// sorted by percentage
var fourSpeedLevels = []speedLevel{
	{Speed: SpeedLow, Percentage: 25, Relays: RelayPair{W1: RelayOff, W2: RelayOff}},
	{Speed: SpeedMedium, Percentage: 50, Relays: RelayPair{W1: RelayOn, W2: RelayOff}},
	{Speed: SpeedHigh, Percentage: 75, Relays: RelayPair{W1: RelayOff, W2: RelayOn}},
	{Speed: SpeedTurbo, Percentage: 100, Relays: RelayPair{W1: RelayOn, W2: RelayOn}},
}

func (v ControllerVariant) levels() []speedLevel {
	if v.SupportsOff {
		return threeSpeedLevels
	}
	return fourSpeedLevels
}

// Speeds returns the speeds supported by this variant, sorted by percentage
func (v ControllerVariant) Speeds() []SpeedName {
	levels := v.levels()
	result := make([]SpeedName, 0, len(levels))
	for _, level := range levels {
		result = append(result, level.Speed)
	}
	return result
}

func (v ControllerVariant) SupportsSpeed(speed SpeedName) bool {
	_, ok := v.level(speed)
	return ok
}

func (v ControllerVariant) level(speed SpeedName) (speedLevel, bool) {
	for _, level := range v.levels() {
		if level.Speed == speed {
			return level, true
		}
	}
	return speedLevel{}, false
}

// RelayPairFor returns the W1/W2 relay states that select the given speed
func (v ControllerVariant) RelayPairFor(speed SpeedName) (RelayPair, bool) {
	level, ok := v.level(speed)
	return level.Relays, ok
}

// SpeedFor returns the speed selected by the given relay states,
// or SpeedUnknown if the pair does not match any speed of this variant.
func (v ControllerVariant) SpeedFor(pair RelayPair) SpeedName {
	if !pair.IsResolved() {
		return SpeedUnknown
	}
	for _, level := range v.levels() {
		if level.Relays == pair {
			return level.Speed
		}
	}
	return SpeedUnknown
}

// PercentageFor returns the percentage bucket of the given speed
func (v ControllerVariant) PercentageFor(speed SpeedName) (int, bool) {
	level, ok := v.level(speed)
	return level.Percentage, ok
}

// SpeedForPercentage returns the speed of the smallest percentage bucket
// that is greater than or equal to the given percentage.
func (v ControllerVariant) SpeedForPercentage(percentage int) (SpeedName, error) {
	if percentage < 0 || percentage > 100 {
		return SpeedUnknown, fmt.Errorf("invalid fan percentage %d: %w", percentage, ErrPercentageOutOfRange)
	}
	for _, level := range v.levels() {
		if percentage <= level.Percentage {
			return level.Speed, nil
		}
	}
	return SpeedUnknown, fmt.Errorf("invalid fan percentage %d: %w", percentage, ErrPercentageOutOfRange)
}

// SpeedPresets returns a map of speed name -> percentage for all speeds of this variant
func (v ControllerVariant) SpeedPresets() map[SpeedName]int {
	result := map[SpeedName]int{}
	for _, level := range v.levels() {
		result[level.Speed] = level.Percentage
	}
	return result
}
