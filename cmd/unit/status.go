package unit

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of all units, or of the unit given with -i",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		if len(unitId) <= 0 {
			states, err := client.GetUnits(cmd.Context())
			if err != nil {
				return err
			}
			return printStates(states)
		}

		state, err := client.GetUnit(cmd.Context(), unitId)
		if err != nil {
			return err
		}
		return printState(state)
	},
}

func init() {
	Command.AddCommand(statusCmd)
}
