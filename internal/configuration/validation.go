package configuration

import (
	"errors"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/dMopp/hass-lunos/internal/util"
	"golang.org/x/exp/slices"
	"strings"
)

const maxFanCount = 4

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	err := validateRelays(config)
	if err != nil {
		return err
	}
	err = validateUnits(config)
	if err != nil {
		return err
	}

	if containsCmdRelays(config) {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return errors.New(fmt.Sprintf("Config file '%s' has invalid permissions: %s", path, err))
		}
	}

	return nil
}

func containsCmdRelays(config *Configuration) bool {
	for _, relayConfig := range config.Relays {
		if relayConfig.Cmd != nil {
			return true
		}
	}

	return false
}

func validateRelays(config *Configuration) error {
	var relayIds []string

	for _, relayConfig := range config.Relays {
		if len(relayConfig.ID) <= 0 {
			return errors.New("relay: missing id")
		}
		if slices.Contains(relayIds, relayConfig.ID) {
			return fmt.Errorf("duplicate relay id detected: %s", relayConfig.ID)
		}
		relayIds = append(relayIds, relayConfig.ID)

		subConfigs := 0
		if relayConfig.File != nil {
			subConfigs++
		}
		if relayConfig.Cmd != nil {
			subConfigs++
		}
		if relayConfig.Mqtt != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("relay %s: only one relay type can be used per relay definition block", relayConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("relay %s: sub-configuration for relay is missing, use one of: file | cmd | mqtt", relayConfig.ID)
		}

		if !isRelayConfigInUse(relayConfig, config.Units) {
			ui.Warning("Unused relay configuration: %s", relayConfig.ID)
		}

		if relayConfig.File != nil && len(relayConfig.File.Path) <= 0 {
			return fmt.Errorf("relay %s: missing file path", relayConfig.ID)
		}

		if relayConfig.Cmd != nil {
			if relayConfig.Cmd.GetState == nil || len(relayConfig.Cmd.GetState.Exec) <= 0 {
				return fmt.Errorf("relay %s: missing cmd.getState.exec", relayConfig.ID)
			}
			if relayConfig.Cmd.SetState == nil || len(relayConfig.Cmd.SetState.Exec) <= 0 {
				return fmt.Errorf("relay %s: missing cmd.setState.exec", relayConfig.ID)
			}
		}

		if relayConfig.Mqtt != nil {
			if !config.Mqtt.Enabled {
				return fmt.Errorf("relay %s: mqtt relays require the mqtt connection to be enabled", relayConfig.ID)
			}
			if len(relayConfig.Mqtt.StateTopic) <= 0 || len(relayConfig.Mqtt.CommandTopic) <= 0 {
				return fmt.Errorf("relay %s: mqtt relays require a stateTopic and a commandTopic", relayConfig.ID)
			}
			if relayConfig.Mqtt.Qos > 2 {
				return fmt.Errorf("relay %s: invalid qos %d, must be one of: 0 | 1 | 2", relayConfig.ID, relayConfig.Mqtt.Qos)
			}
		}
	}

	return nil
}

func isRelayConfigInUse(config RelayConfig, units []UnitConfig) bool {
	for _, unitConfig := range units {
		if unitConfig.RelayW1 == config.ID || unitConfig.RelayW2 == config.ID {
			return true
		}
	}

	return false
}

func validateUnits(config *Configuration) error {
	var unitIds []string
	usedRelays := map[string]string{}

	for _, unitConfig := range config.Units {
		if len(unitConfig.ID) <= 0 {
			return errors.New("unit: missing id")
		}
		if slices.Contains(unitIds, unitConfig.ID) {
			return fmt.Errorf("duplicate unit id detected: %s", unitConfig.ID)
		}
		unitIds = append(unitIds, unitConfig.ID)

		if len(unitConfig.RelayW1) <= 0 || len(unitConfig.RelayW2) <= 0 {
			return fmt.Errorf("unit %s: both relayW1 and relayW2 are required", unitConfig.ID)
		}
		if unitConfig.RelayW1 == unitConfig.RelayW2 {
			return fmt.Errorf("unit %s: relayW1 and relayW2 must reference different relays", unitConfig.ID)
		}

		for _, relayId := range []string{unitConfig.RelayW1, unitConfig.RelayW2} {
			if !relayIdExists(relayId, config) {
				return fmt.Errorf("unit %s: no relay definition with id '%s' found", unitConfig.ID, relayId)
			}
			if owner, used := usedRelays[relayId]; used {
				return fmt.Errorf("unit %s: relay '%s' is already used by unit '%s'", unitConfig.ID, relayId, owner)
			}
			usedRelays[relayId] = unitConfig.ID
		}

		if len(unitConfig.ControllerCoding) > 0 {
			if _, ok := lunos.DefaultRegistry.Get(unitConfig.ControllerCoding); !ok {
				return fmt.Errorf("unit %s: unsupported controllerCoding '%s', use one of: %s", unitConfig.ID, unitConfig.ControllerCoding, strings.Join(lunos.DefaultRegistry.Keys(), " | "))
			}
		}

		if unitConfig.FanCount < 0 || unitConfig.FanCount > maxFanCount {
			return fmt.Errorf("unit %s: invalid fanCount %d, must be within 1..%d", unitConfig.ID, unitConfig.FanCount, maxFanCount)
		}

		if len(unitConfig.DefaultSpeed) > 0 && !slices.Contains(lunos.SpeedList, unitConfig.DefaultSpeed) {
			return fmt.Errorf("unit %s: unsupported defaultSpeed '%s'", unitConfig.ID, unitConfig.DefaultSpeed)
		}
	}

	return nil
}

func relayIdExists(id string, config *Configuration) bool {
	for _, relay := range config.Relays {
		if relay.ID == id {
			return true
		}
	}

	return false
}
