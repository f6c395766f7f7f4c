package processor

import (
	appmetrics "app/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	SentencesFailed prometheus.Counter
	ChunksWritten   prometheus.Counter
	AudioSeconds    prometheus.Counter
	StreamSeconds   prometheus.Histogram
}

var metrics = &Metrics{
	CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "synth",
		Name:      "cache_hits_total",
	}),
	CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "synth",
		Name:      "cache_misses_total",
	}),
	SentencesFailed: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "synth",
		Name:      "sentences_failed_total",
	}),
	ChunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "synth",
		Name:      "chunks_written_total",
	}),
	AudioSeconds: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "synth",
		Name:      "audio_seconds_total",
	}),
	StreamSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: "synth",
		Name:      "stream_seconds",
		Buckets:   appmetrics.RequestSecondsBuckets,
	}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.CacheHits)
	reg.MustRegister(metrics.CacheMisses)
	reg.MustRegister(metrics.SentencesFailed)
	reg.MustRegister(metrics.ChunksWritten)
	reg.MustRegister(metrics.AudioSeconds)
	reg.MustRegister(metrics.StreamSeconds)
}
