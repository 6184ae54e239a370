package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed operations.
	OutcomeSuccess = "success"
	// OutcomeSkipped labels aggregations that found too few shifts.
	OutcomeSkipped = "skipped"
	// OutcomeError labels failed operations (store or rendering issues).
	OutcomeError = "error"
)

// Aggregation triggers.
const (
	TriggerAuto     = "auto"
	TriggerOnDemand = "on_demand"
)

var (
	snapshotsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mirador_shiftreport",
			Name:      "snapshots_ingested_total",
			Help:      "Total number of shift snapshots stored.",
		},
	)

	aggregationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_shiftreport",
			Name:      "aggregations_total",
			Help:      "Daily aggregations attempted, partitioned by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_shiftreport",
			Name:      "reports_total",
			Help:      "Reports exported, partitioned by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	reportRenderSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mirador_shiftreport",
			Name:      "report_render_seconds",
			Help:      "Report build and render latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"kind"},
	)
)

// Register attaches shift report collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		snapshotsIngestedTotal,
		aggregationsTotal,
		reportsTotal,
		reportRenderSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveIngest counts a stored snapshot.
func ObserveIngest() {
	snapshotsIngestedTotal.Inc()
}

// ObserveAggregation records an aggregation attempt.
func ObserveAggregation(trigger, outcome string) {
	aggregationsTotal.WithLabelValues(trigger, normaliseOutcome(outcome)).Inc()
}

// ObserveReport records a report export duration and outcome label.
func ObserveReport(kind string, duration time.Duration, outcome string) {
	reportsTotal.WithLabelValues(kind, normaliseOutcome(outcome)).Inc()
	if duration < 0 {
		duration = 0
	}
	reportRenderSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

func normaliseOutcome(outcome string) string {
	switch outcome {
	case OutcomeError, OutcomeSkipped:
		return outcome
	default:
		return OutcomeSuccess
	}
}
