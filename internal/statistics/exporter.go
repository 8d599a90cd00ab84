package statistics

import (
	"github.com/ecfan/ecfan/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ecfan"
)

// StatusProvider is the part of a controller.FanController the collectors read from.
type StatusProvider interface {
	GetId() string
	GetStatus() controller.Status
}

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
