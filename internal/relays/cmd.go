package relays

import (
	"context"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/dMopp/hass-lunos/internal/util"
	"strings"
	"time"
)

const cmdTimeout = 2 * time.Second

// CmdRelay reads and writes its state using external commands
type CmdRelay struct {
	Config configuration.RelayConfig `json:"config"`
}

func (relay *CmdRelay) GetId() string {
	return relay.Config.ID
}

func (relay *CmdRelay) GetConfig() configuration.RelayConfig {
	return relay.Config
}

func (relay *CmdRelay) GetState(ctx context.Context) (lunos.RelayState, error) {
	conf := relay.Config.Cmd.GetState

	output, err := util.SafeCmdExecution(ctx, conf.Exec, conf.Args, cmdTimeout)
	if err != nil {
		return lunos.RelayUnresolved, err
	}

	state, err := lunos.ParseRelayState(output)
	if err != nil {
		ui.Warning("Unable to read relay state from command output: %s", conf.Exec)
		return lunos.RelayUnresolved, err
	}
	return state, nil
}

func (relay *CmdRelay) SetState(ctx context.Context, state lunos.RelayState) error {
	if !state.IsResolved() {
		return ErrRelayUnresolved
	}
	conf := relay.Config.Cmd.SetState

	var args []string
	for _, arg := range conf.Args {
		replaced := strings.ReplaceAll(arg, "%state%", state.String())
		args = append(args, replaced)
	}

	_, err := util.SafeCmdExecution(ctx, conf.Exec, args, cmdTimeout)
	if err != nil {
		return fmt.Errorf("relay %s: %w", relay.Config.ID, err)
	}
	return nil
}
