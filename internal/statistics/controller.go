package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	providers []StatusProvider

	appliedWriteCount     *prometheus.Desc
	failedWriteCount      *prometheus.Desc
	skippedCycleCount     *prometheus.Desc
	handshakeTimeoutCount *prometheus.Desc
	lastAppliedDuty       *prometheus.Desc
	autoEnabled           *prometheus.Desc
}

func NewControllerCollector(providers []StatusProvider) *ControllerCollector {
	return &ControllerCollector{
		providers: providers,
		appliedWriteCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "applied_write_count"),
			"Counter for duty values written to the EC",
			[]string{"id"}, nil,
		),
		failedWriteCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "failed_write_count"),
			"Counter for duty writes that did not complete",
			[]string{"id"}, nil,
		),
		skippedCycleCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "skipped_cycle_count"),
			"Counter for control cycles skipped due to unusable telemetry",
			[]string{"id"}, nil,
		),
		handshakeTimeoutCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "handshake_timeout_count"),
			"Counter for EC transactions aborted because a status flag never reached the expected state",
			[]string{"id"}, nil,
		),
		lastAppliedDuty: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "last_applied_duty_percent"),
			"Duty most recently written by the controller",
			[]string{"id"}, nil,
		),
		autoEnabled: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "auto_enabled"),
			"1 if the duty is controlled automatically, 0 while it is overridden",
			[]string{"id"}, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.appliedWriteCount
	ch <- collector.failedWriteCount
	ch <- collector.skippedCycleCount
	ch <- collector.handshakeTimeoutCount
	ch <- collector.lastAppliedDuty
	ch <- collector.autoEnabled
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, provider := range collector.providers {
		id := provider.GetId()
		status := provider.GetStatus()
		stats := status.Statistics

		ch <- prometheus.MustNewConstMetric(collector.appliedWriteCount, prometheus.CounterValue, float64(stats.AppliedWriteCount), id)
		ch <- prometheus.MustNewConstMetric(collector.failedWriteCount, prometheus.CounterValue, float64(stats.FailedWriteCount), id)
		ch <- prometheus.MustNewConstMetric(collector.skippedCycleCount, prometheus.CounterValue, float64(stats.SkippedCycleCount), id)
		ch <- prometheus.MustNewConstMetric(collector.handshakeTimeoutCount, prometheus.CounterValue, float64(stats.HandshakeTimeoutCount), id)
		if status.LastAppliedDuty >= 0 {
			ch <- prometheus.MustNewConstMetric(collector.lastAppliedDuty, prometheus.GaugeValue, float64(status.LastAppliedDuty), id)
		}

		autoEnabled := 0.0
		if status.AutoEnabled {
			autoEnabled = 1
		}
		ch <- prometheus.MustNewConstMetric(collector.autoEnabled, prometheus.GaugeValue, autoEnabled, id)
	}
}
