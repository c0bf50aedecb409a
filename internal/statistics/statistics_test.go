package statistics

import (
	"strings"
	"testing"
	"time"

	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/controller/controllertest"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func createUnit() *controllertest.MockFanController {
	unit := controllertest.NewMockFanController("bathroom", "e2-usa")
	percentage := 66
	cmh := 25.5
	watts := 1.9
	unit.State = controller.State{
		Id:          "bathroom",
		Speed:       lunos.SpeedMedium,
		Percentage:  &percentage,
		IsOn:        true,
		Ventilation: lunos.VentilationSummer,
		Attributes: controller.Attributes{
			CMH:   &cmh,
			Watts: &watts,
		},
	}
	unit.Stats = controller.Statistics{
		RelayCommands:        8,
		RelayCommandFailures: 1,
		ThrottleCount:        2,
		ThrottleTime:         1500 * time.Millisecond,
		Refreshes:            3,
	}
	return unit
}

func TestUnitCollector(t *testing.T) {
	// GIVEN
	collector := NewUnitCollector([]controller.FanController{createUnit()})
	expected := `
# HELP lunos2go_unit_percentage Current speed of the unit in percent
# TYPE lunos2go_unit_percentage gauge
lunos2go_unit_percentage{id="bathroom",speed="medium"} 66
# HELP lunos2go_unit_on Whether the unit is currently running (1) or off (0)
# TYPE lunos2go_unit_on gauge
lunos2go_unit_on{id="bathroom"} 1
# HELP lunos2go_unit_ventilation_mode Active ventilation mode of the unit
# TYPE lunos2go_unit_ventilation_mode gauge
lunos2go_unit_ventilation_mode{id="bathroom",mode="summer"} 1
`

	// WHEN
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"lunos2go_unit_percentage", "lunos2go_unit_on", "lunos2go_unit_ventilation_mode")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 5, testutil.CollectAndCount(collector))
}

func TestUnitCollector_UnknownSpeed(t *testing.T) {
	// GIVEN
	unit := controllertest.NewMockFanController("bathroom", "e2-usa")
	collector := NewUnitCollector([]controller.FanController{unit})

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	assert.Equal(t, 2, count)
}

func TestControllerCollector(t *testing.T) {
	// GIVEN
	collector := NewControllerCollector([]controller.FanController{createUnit()})
	expected := `
# HELP lunos2go_controller_relay_commands_total Counter for relay commands issued by this controller
# TYPE lunos2go_controller_relay_commands_total counter
lunos2go_controller_relay_commands_total{id="bathroom"} 8
# HELP lunos2go_controller_throttle_seconds_total Total time relay changes were delayed
# TYPE lunos2go_controller_throttle_seconds_total counter
lunos2go_controller_throttle_seconds_total{id="bathroom"} 1.5
`

	// WHEN
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"lunos2go_controller_relay_commands_total", "lunos2go_controller_throttle_seconds_total")

	// THEN
	assert.NoError(t, err)
}
