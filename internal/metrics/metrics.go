package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	Runs                 *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	SummarizeDuration    prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_runs_total",
			Help: "Pipeline runs by outcome status",
		}, []string{"status"}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "radar_notification_failures_total",
			Help: "Notifications that could not be delivered",
		}),
		SummarizeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "radar_summarize_duration_seconds",
			Help:    "Time spent waiting for the summarization service",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
