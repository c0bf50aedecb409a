package unit

import (
	"fmt"
	"github.com/spf13/cobra"
	"strconv"
)

var percentageCmd = &cobra.Command{
	Use:   "percentage",
	Short: "Set the speed of a unit as a percentage ([0..100])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnitId(); err != nil {
			return err
		}
		percentage, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid percentage: %s", args[0])
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		state, err := client.SetPercentage(cmd.Context(), unitId, percentage)
		if err != nil {
			return err
		}
		return printState(state)
	},
}

func init() {
	Command.AddCommand(percentageCmd)
}
