package variant

import (
	"github.com/dMopp/hass-lunos/cmd/global"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/spf13/cobra"
	"strconv"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all supported controller codings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows [][]string
		for _, key := range lunos.DefaultRegistry.Keys() {
			variant, _ := lunos.DefaultRegistry.Get(key)
			rows = append(rows, []string{
				variant.Key,
				variant.Name,
				strconv.Itoa(variant.DefaultFanCount),
				yesNo(variant.SupportsOff),
				yesNo(variant.SupportsTurbo),
				yesNo(variant.SupportsSummerVent),
				yesNo(variant.SupportsExhaustOnly),
				yesNo(variant.SupportsFilterReminder),
			})
		}
		return global.PrintTable(
			[]string{"Key", "Name", "Fans", "Off", "Turbo", "Summer", "Exhaust Only", "Filter Reminder"},
			rows,
		)
	},
}

func init() {
	Command.AddCommand(listCmd)
}
