package unit

import (
	"errors"
	"fmt"
	"github.com/dMopp/hass-lunos/cmd/global"
	"github.com/dMopp/hass-lunos/internal/api"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/spf13/cobra"
	"strconv"
	"time"
)

var unitId string

var Command = &cobra.Command{
	Use:              "unit",
	Short:            "LUNOS unit related commands, executed by the running daemon",
	Long:             `Unit commands are sent to the REST api of the running daemon, so they respect the relay timing of the unit.`,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&unitId,
		"id", "i",
		"",
		"Unit ID as specified in the config",
	)
}

func requireUnitId() error {
	if len(unitId) <= 0 {
		return errors.New("missing unit id, use -i <id>")
	}
	return nil
}

// getClient creates the REST client used by all unit commands
var getClient = configuredClient

// configuredClient creates a REST client for the daemon configured in the current config file
func configuredClient() (*api.Client, error) {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Debug("Using configuration file at: %s", configPath)
	configuration.LoadConfig()

	apiConfig := configuration.CurrentConfig.Api
	if !apiConfig.Enabled {
		return nil, errors.New("the REST api is disabled, set 'api.enabled: true' to control units from the command line")
	}
	return api.NewClient(apiConfig.Host, apiConfig.Port), nil
}

func printStates(states []controller.State) error {
	var rows [][]string
	for _, state := range states {
		rows = append(rows, []string{
			state.Id,
			state.Name,
			string(state.Speed),
			percentageText(state.Percentage),
			strconv.FormatBool(state.IsOn),
			state.Preset,
			string(state.Ventilation),
		})
	}
	return global.PrintTable(
		[]string{"ID", "Name", "Speed", "Percentage", "On", "Preset", "Ventilation"},
		rows,
	)
}

func printState(state controller.State) error {
	attributes := state.Attributes
	lastTransition := "never"
	if !state.LastTransition.IsZero() {
		lastTransition = state.LastTransition.Format(time.RFC3339)
	}
	rows := [][]string{
		{"ID", state.Id},
		{"Name", state.Name},
		{"Model", attributes.ModelName},
		{"Controller Coding", attributes.ControllerCoding},
		{"Fans", strconv.Itoa(attributes.FanCount)},
		{"Relays", fmt.Sprintf("W1=%s, W2=%s", attributes.RelayW1, attributes.RelayW2)},
		{"Speed", string(state.Speed)},
		{"Percentage", percentageText(state.Percentage)},
		{"On", strconv.FormatBool(state.IsOn)},
		{"Preset", state.Preset},
		{"Ventilation", string(state.Ventilation)},
		{"Airflow", airflowText(attributes.CMH, attributes.CFM)},
		{"Noise", valueText(attributes.DB, "dB")},
		{"Power", valueText(attributes.Watts, "W")},
		{"Last Transition", lastTransition},
	}
	return global.PrintTable([]string{"", ""}, rows)
}

func percentageText(percentage *int) string {
	if percentage == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", *percentage)
}

func valueText(value *float64, unit string) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f %s", *value, unit)
}

func airflowText(cmh *float64, cfm *float64) string {
	if cmh == nil || cfm == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f m³/h (%.1f cfm)", *cmh, *cfm)
}
