package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the Prometheus collectors exported on /metrics.
type Manager struct {
	// counters
	CounterRequests     *prometheus.CounterVec
	CounterCompiles     *prometheus.CounterVec
	CounterLibrarySaves *prometheus.CounterVec
	CounterExports      *prometheus.CounterVec

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistWorkoutTSS      prometheus.Histogram
}

// NewTestManagerAndRegistry returns a Manager on a private registry.
func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("traininglab", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterCompiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "compiles_total",
			Help:      "Workout descriptions compiled, by workout type and whether the cache answered",
		}, []string{"type", "cached"}),
		CounterLibrarySaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "library_saves_total",
			Help:      "Workouts saved to the library, by source",
		}, []string{"source"}),
		CounterExports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "exports_total",
			Help:      "Workout files exported, by format",
		}, []string{"format"}),

		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),

		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		HistWorkoutTSS: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workout_tss",
			Help:      "Training Stress Score of compiled and saved workouts",
			Buckets:   []float64{20, 40, 60, 80, 100, 150, 200, 300},
		}),
	}
}
