package statistics

import (
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	units []controller.FanController

	relayCommands        *prometheus.Desc
	relayCommandFailures *prometheus.Desc
	throttleCount        *prometheus.Desc
	throttleSeconds      *prometheus.Desc
	refreshes            *prometheus.Desc
	relayLatency         *prometheus.Desc
	relayLatencyMax      *prometheus.Desc
}

func NewControllerCollector(units []controller.FanController) *ControllerCollector {
	return &ControllerCollector{
		units: units,
		relayCommands: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "relay_commands_total"),
			"Counter for relay commands issued by this controller",
			[]string{"id"}, nil,
		),
		relayCommandFailures: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "relay_command_failures_total"),
			"Counter for failed relay commands of this controller",
			[]string{"id"}, nil,
		),
		throttleCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "throttle_total"),
			"Counter for relay changes that were delayed to avoid triggering a LUNOS controller function",
			[]string{"id"}, nil,
		),
		throttleSeconds: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "throttle_seconds_total"),
			"Total time relay changes were delayed",
			[]string{"id"}, nil,
		),
		refreshes: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "refreshes_total"),
			"Counter for relay state readbacks",
			[]string{"id"}, nil,
		),
		relayLatency: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "relay_latency_seconds"),
			"Average time until a relay acknowledged a command, over the last commands",
			[]string{"id"}, nil,
		),
		relayLatencyMax: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "relay_latency_max_seconds"),
			"Maximum time until a relay acknowledged a command, over the last commands",
			[]string{"id"}, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.relayCommands
	ch <- collector.relayCommandFailures
	ch <- collector.throttleCount
	ch <- collector.throttleSeconds
	ch <- collector.refreshes
	ch <- collector.relayLatency
	ch <- collector.relayLatencyMax
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, unit := range collector.units {
		unitId := unit.GetId()
		statistics := unit.GetStatistics()
		ch <- prometheus.MustNewConstMetric(collector.relayCommands, prometheus.CounterValue, float64(statistics.RelayCommands), unitId)
		ch <- prometheus.MustNewConstMetric(collector.relayCommandFailures, prometheus.CounterValue, float64(statistics.RelayCommandFailures), unitId)
		ch <- prometheus.MustNewConstMetric(collector.throttleCount, prometheus.CounterValue, float64(statistics.ThrottleCount), unitId)
		ch <- prometheus.MustNewConstMetric(collector.throttleSeconds, prometheus.CounterValue, statistics.ThrottleTime.Seconds(), unitId)
		ch <- prometheus.MustNewConstMetric(collector.refreshes, prometheus.CounterValue, float64(statistics.Refreshes), unitId)
		ch <- prometheus.MustNewConstMetric(collector.relayLatency, prometheus.GaugeValue, statistics.AvgRelayLatency.Seconds(), unitId)
		ch <- prometheus.MustNewConstMetric(collector.relayLatencyMax, prometheus.GaugeValue, statistics.MaxRelayLatency.Seconds(), unitId)
	}
}
