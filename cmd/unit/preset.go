package unit

import (
	"github.com/spf13/cobra"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Apply a preset mode to a unit (e.g. eco, off, low, medium, high, turbo, summer)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnitId(); err != nil {
			return err
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		state, err := client.SetPreset(cmd.Context(), unitId, args[0])
		if err != nil {
			return err
		}
		return printState(state)
	},
}

func init() {
	Command.AddCommand(presetCmd)
}
