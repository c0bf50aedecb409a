package statistics

import (
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const unitSubsystem = "unit"

type UnitCollector struct {
	units []controller.FanController

	percentage  *prometheus.Desc
	isOn        *prometheus.Desc
	airflow     *prometheus.Desc
	watts       *prometheus.Desc
	ventilation *prometheus.Desc
}

func NewUnitCollector(units []controller.FanController) *UnitCollector {
	return &UnitCollector{
		units: units,
		percentage: prometheus.NewDesc(prometheus.BuildFQName(namespace, unitSubsystem, "percentage"),
			"Current speed of the unit in percent",
			[]string{"id", "speed"}, nil,
		),
		isOn: prometheus.NewDesc(prometheus.BuildFQName(namespace, unitSubsystem, "on"),
			"Whether the unit is currently running (1) or off (0)",
			[]string{"id"}, nil,
		),
		airflow: prometheus.NewDesc(prometheus.BuildFQName(namespace, unitSubsystem, "airflow_cmh"),
			"Estimated airflow of all fans of the unit in cubic meters per hour",
			[]string{"id"}, nil,
		),
		watts: prometheus.NewDesc(prometheus.BuildFQName(namespace, unitSubsystem, "watts"),
			"Power consumption of a single fan at the current speed",
			[]string{"id"}, nil,
		),
		ventilation: prometheus.NewDesc(prometheus.BuildFQName(namespace, unitSubsystem, "ventilation_mode"),
			"Active ventilation mode of the unit",
			[]string{"id", "mode"}, nil,
		),
	}
}

func (collector *UnitCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.percentage
	ch <- collector.isOn
	ch <- collector.airflow
	ch <- collector.watts
	ch <- collector.ventilation
}

// Collect implements required collect function for all prometheus collectors
func (collector *UnitCollector) Collect(ch chan<- prometheus.Metric) {
	for _, unit := range collector.units {
		state := unit.GetState()
		unitId := unit.GetId()

		if state.Percentage != nil {
			ch <- prometheus.MustNewConstMetric(collector.percentage, prometheus.GaugeValue, float64(*state.Percentage), unitId, string(state.Speed))
		}
		ch <- prometheus.MustNewConstMetric(collector.isOn, prometheus.GaugeValue, boolToFloat(state.IsOn), unitId)
		if state.Attributes.CMH != nil {
			ch <- prometheus.MustNewConstMetric(collector.airflow, prometheus.GaugeValue, *state.Attributes.CMH, unitId)
		}
		if state.Attributes.Watts != nil {
			ch <- prometheus.MustNewConstMetric(collector.watts, prometheus.GaugeValue, *state.Attributes.Watts, unitId)
		}
		ch <- prometheus.MustNewConstMetric(collector.ventilation, prometheus.GaugeValue, 1, unitId, string(state.Ventilation))
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
