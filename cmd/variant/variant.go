package variant

import (
	"fmt"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/spf13/cobra"
	"strings"
)

var Command = &cobra.Command{
	Use:   "variant",
	Short: "LUNOS controller coding related commands",
	Long:  ``,
}

func getVariant(key string) (lunos.ControllerVariant, error) {
	variant, ok := lunos.DefaultRegistry.Get(key)
	if !ok {
		return variant, fmt.Errorf("no controller variant with key found: %s, options: %s", key, strings.Join(lunos.DefaultRegistry.Keys(), ", "))
	}
	return variant, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
