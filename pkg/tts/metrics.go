package tts

import (
	appmetrics "app/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SynthSeconds  prometheus.Histogram
	SynthErrors   *prometheus.CounterVec
	InFlight      prometheus.Gauge
	FreshHandles  prometheus.Counter
	PoolExhausted prometheus.Counter
}

var metrics = &Metrics{
	SynthSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: "tts",
		Name:      "synthesis_seconds",
		Buckets:   appmetrics.RequestSecondsBuckets,
	}),
	SynthErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "tts",
		Name:      "synthesis_errors_total",
	}, []string{"reason"}),
	InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: "tts",
		Name:      "in_flight_synthesis_calls",
	}),
	FreshHandles: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "tts",
		Name:      "fresh_handles_total",
	}),
	PoolExhausted: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "tts",
		Name:      "pool_exhausted_total",
	}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.SynthSeconds)
	reg.MustRegister(metrics.SynthErrors)
	reg.MustRegister(metrics.InFlight)
	reg.MustRegister(metrics.FreshHandles)
	reg.MustRegister(metrics.PoolExhausted)
}
