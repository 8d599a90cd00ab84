package statistics

import (
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/prometheus/client_golang/prometheus"
)

const telemetrySubsystem = "ec"

type TelemetryCollector struct {
	providers []StatusProvider

	cpuTemp            *prometheus.Desc
	gpuTemp            *prometheus.Desc
	controlTemperature *prometheus.Desc
	duty               *prometheus.Desc
	rpm                *prometheus.Desc
}

func NewTelemetryCollector(providers []StatusProvider) *TelemetryCollector {
	return &TelemetryCollector{
		providers: providers,
		cpuTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "cpu_temperature_celsius"),
			"Last CPU temperature reported by the EC",
			[]string{"id"}, nil,
		),
		gpuTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "gpu_temperature_celsius"),
			"Last GPU temperature reported by the EC",
			[]string{"id"}, nil,
		),
		controlTemperature: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "control_temperature_celsius"),
			"Averaged temperature the fan duty is derived from",
			[]string{"id"}, nil,
		),
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "fan_duty_percent"),
			"Last fan duty reported by the EC",
			[]string{"id"}, nil,
		),
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "fan_rpm"),
			"Last fan speed reported by the EC",
			[]string{"id"}, nil,
		),
	}
}

func (collector *TelemetryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.cpuTemp
	ch <- collector.gpuTemp
	ch <- collector.controlTemperature
	ch <- collector.duty
	ch <- collector.rpm
}

// Collect implements required collect function for all prometheus collectors.
// Fields that could not be read in the last cycle are left out.
func (collector *TelemetryCollector) Collect(ch chan<- prometheus.Metric) {
	for _, provider := range collector.providers {
		id := provider.GetId()
		status := provider.GetStatus()
		if status.SnapshotTime.IsZero() {
			// nothing read yet
			continue
		}
		snapshot := status.Snapshot

		if snapshot.IsValid(ec.FieldCpuTemp) {
			ch <- prometheus.MustNewConstMetric(collector.cpuTemp, prometheus.GaugeValue, float64(snapshot.CpuTemp), id)
		}
		if snapshot.IsValid(ec.FieldGpuTemp) {
			ch <- prometheus.MustNewConstMetric(collector.gpuTemp, prometheus.GaugeValue, float64(snapshot.GpuTemp), id)
		}
		if _, ok := snapshot.ControlTemperature(); ok {
			ch <- prometheus.MustNewConstMetric(collector.controlTemperature, prometheus.GaugeValue, float64(status.ControlTemperature), id)
		}
		if snapshot.IsValid(ec.FieldFanDuty) {
			ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, float64(snapshot.FanDuty), id)
		}
		if snapshot.IsValid(ec.FieldFanRpm) {
			ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, float64(snapshot.FanRpm), id)
		}
	}
}
