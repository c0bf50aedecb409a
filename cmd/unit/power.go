package unit

import (
	"github.com/spf13/cobra"
)

var (
	onPercentage int
	onPreset     string
)

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Turn a unit on, using its default speed unless a preset or percentage is given",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnitId(); err != nil {
			return err
		}

		var percentage *int
		if cmd.Flags().Changed("percentage") {
			percentage = &onPercentage
		}
		var preset *string
		if cmd.Flags().Changed("preset") {
			preset = &onPreset
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		state, err := client.TurnOn(cmd.Context(), unitId, percentage, preset)
		if err != nil {
			return err
		}
		return printState(state)
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn a unit off (units without an off setting run at their lowest speed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnitId(); err != nil {
			return err
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		state, err := client.TurnOff(cmd.Context(), unitId)
		if err != nil {
			return err
		}
		return printState(state)
	},
}

func init() {
	onCmd.Flags().IntVarP(&onPercentage, "percentage", "p", 0, "Percentage to apply after turning on")
	onCmd.Flags().StringVarP(&onPreset, "preset", "m", "", "Preset mode to turn on with")

	Command.AddCommand(onCmd)
	Command.AddCommand(offCmd)
}
