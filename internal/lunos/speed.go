package lunos

import (
	"fmt"
	"strings"
)

// SpeedName is a named operating level of a LUNOS fan
type SpeedName string

const (
	SpeedUnknown SpeedName = ""
	SpeedOff     SpeedName = "off"
	SpeedLow     SpeedName = "low"
	SpeedMedium  SpeedName = "medium"
	SpeedHigh    SpeedName = "high"
	SpeedTurbo   SpeedName = "turbo"

	DefaultSpeed = SpeedMedium
)

// SpeedList contains all speeds that can be configured as a default speed
var SpeedList = []SpeedName{SpeedOff, SpeedLow, SpeedMedium, SpeedHigh}

func (s SpeedName) IsKnown() bool {
	return s != SpeedUnknown
}

func (s SpeedName) String() string {
	if s == SpeedUnknown {
		return "unknown"
	}
	return string(s)
}

// RelayState is the observed or commanded state of a single W1/W2 relay
type RelayState int

const (
	// RelayUnresolved means the state of the relay is not (yet) known
	RelayUnresolved RelayState = iota
	RelayOff
	RelayOn
)

func (s RelayState) String() string {
	switch s {
	case RelayOff:
		return "off"
	case RelayOn:
		return "on"
	default:
		return "unresolved"
	}
}

func (s RelayState) IsResolved() bool {
	return s == RelayOn || s == RelayOff
}

// Inverted returns the opposite state, an unresolved state stays unresolved
func (s RelayState) Inverted() RelayState {
	switch s {
	case RelayOff:
		return RelayOn
	case RelayOn:
		return RelayOff
	default:
		return RelayUnresolved
	}
}

// ParseRelayState parses the textual representation of a relay state
// as written by relay backends (files, commands, mqtt payloads).
func ParseRelayState(text string) (RelayState, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "1", "on", "true":
		return RelayOn, nil
	case "0", "off", "false":
		return RelayOff, nil
	}
	return RelayUnresolved, fmt.Errorf("unknown relay state: '%s'", text)
}

// RelayPair is the combined state of the W1 and W2 relays
type RelayPair struct {
	W1 RelayState `json:"w1"`
	W2 RelayState `json:"w2"`
}

func (p RelayPair) IsResolved() bool {
	return p.W1.IsResolved() && p.W2.IsResolved()
}

func (p RelayPair) String() string {
	return fmt.Sprintf("W1=%s W2=%s", p.W1, p.W2)
}
