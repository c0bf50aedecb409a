package relays

import (
	"context"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/dMopp/hass-lunos/internal/util"
)

// FileRelay stores its state in a file, e.g. a sysfs gpio value
type FileRelay struct {
	Config configuration.RelayConfig `json:"config"`
}

func (relay *FileRelay) GetId() string {
	return relay.Config.ID
}

func (relay *FileRelay) GetConfig() configuration.RelayConfig {
	return relay.Config
}

func (relay *FileRelay) GetState(ctx context.Context) (lunos.RelayState, error) {
	text, err := util.ReadStringFromFile(relay.Config.File.Path)
	if err != nil {
		return lunos.RelayUnresolved, err
	}
	return lunos.ParseRelayState(text)
}

func (relay *FileRelay) SetState(ctx context.Context, state lunos.RelayState) error {
	text, err := stateText(state)
	if err != nil {
		return err
	}
	err = util.WriteStringToFileAtomic(text, relay.Config.File.Path)
	if err != nil {
		ui.Error("Unable to write to file: %v", relay.Config.File.Path)
	}
	return err
}
