package variant

import (
	"fmt"
	"github.com/dMopp/hass-lunos/cmd/global"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"strconv"
)

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the speed table and airflow curve of a controller coding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, err := getVariant(args[0])
		if err != nil {
			return err
		}

		ui.Printfln("%s (%s), %d fan(s) by default", variant.Name, variant.Key, variant.DefaultFanCount)

		var rows [][]string
		for _, speed := range variant.Speeds() {
			percentage, _ := variant.PercentageFor(speed)
			pair, _ := variant.RelayPairFor(speed)
			behavior, _ := variant.BehaviorFor(speed)
			rows = append(rows, []string{
				string(speed),
				strconv.Itoa(percentage) + "%",
				pair.W1.String(),
				pair.W2.String(),
				formatValue(airflowCmh(behavior)),
				formatValue(behavior.DB),
				formatValue(behavior.Watts),
			})
		}
		err = global.PrintTable([]string{"Speed", "Percentage", "W1", "W2", "m³/h", "dB", "W"}, rows)
		if err != nil {
			return err
		}

		values := airflowCurve(variant)
		if values == nil {
			return nil
		}
		caption := "m³/h / %"
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(101), asciigraph.Caption(caption))
		ui.Printfln(graph)
		return nil
	},
}

func init() {
	Command.AddCommand(showCmd)
}

func airflowCmh(behavior lunos.Behavior) *float64 {
	switch {
	case behavior.CMH != nil:
		return behavior.CMH
	case behavior.CFM != nil:
		cmh := *behavior.CFM * lunos.CfmToCmh
		return &cmh
	}
	return nil
}

// airflowCurve returns the airflow of the default fan count for every percentage 0..100
func airflowCurve(variant lunos.ControllerVariant) []float64 {
	values := make([]float64, 0, 101)
	known := false
	for p := 0; p <= 100; p++ {
		speed, err := variant.SpeedForPercentage(p)
		if err != nil {
			return nil
		}
		behavior, _ := variant.BehaviorFor(speed)
		value := 0.0
		if cmh := airflowCmh(behavior); cmh != nil {
			value = *cmh
			known = true
		}
		values = append(values, value)
	}
	if !known {
		return nil
	}
	return values
}

func formatValue(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *value)
}
