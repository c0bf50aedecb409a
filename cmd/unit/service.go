package unit

import (
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/spf13/cobra"
)

func serviceCommand(use string, short string, service string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUnitId(); err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			ui.Info("Running %s on LUNOS unit '%s', this takes a few seconds...", service, unitId)
			state, err := client.CallService(cmd.Context(), unitId, service)
			if err != nil {
				return err
			}
			return printState(state)
		},
	}
}

var summerCmd = &cobra.Command{
	Use:   "summer",
	Short: "Summer ventilation (heat exchanger bypass) related commands",
}

func init() {
	summerCmd.AddCommand(serviceCommand("on", "Turn on summer ventilation", controller.ServiceSummerVentOn))
	summerCmd.AddCommand(serviceCommand("off", "Turn off summer ventilation", controller.ServiceSummerVentOff))

	Command.AddCommand(serviceCommand("clear-filter", "Clear the filter change reminder light", controller.ServiceClearFilterReminder))
	Command.AddCommand(summerCmd)
}
