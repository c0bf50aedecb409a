package controller

import (
	"context"
	"errors"
	"fmt"
)

// Home Assistant service names of the special relay sequences
const (
	ServiceClearFilterReminder = "lunos_clear_filter_reminder"
	ServiceSummerVentOn        = "lunos_turn_on_summer_ventilation"
	ServiceSummerVentOff       = "lunos_turn_off_summer_ventilation"
)

var Services = []string{ServiceClearFilterReminder, ServiceSummerVentOn, ServiceSummerVentOff}

var ErrUnknownService = errors.New("unknown service")

// CallService runs the operation behind a service name on unit
func CallService(ctx context.Context, unit FanController, service string) error {
	switch service {
	case ServiceClearFilterReminder:
		return unit.ClearFilterReminder(ctx)
	case ServiceSummerVentOn:
		return unit.EnableSummerVentilation(ctx)
	case ServiceSummerVentOff:
		return unit.DisableSummerVentilation(ctx)
	}
	return fmt.Errorf("%w '%s'", ErrUnknownService, service)
}
