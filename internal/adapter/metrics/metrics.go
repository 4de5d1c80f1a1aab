package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds all Prometheus metrics for the nudge engine.
type EngineMetrics struct {
	NudgesSent        *prometheus.CounterVec
	NudgeSendFailures prometheus.Counter
	EventsIngested    *prometheus.CounterVec
	SweepRuns         prometheus.Counter
	SweepDuration     prometheus.Gauge
}

// NewEngineMetrics initializes and registers the Prometheus metrics.
func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		NudgesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboardflow",
			Subsystem: "nudge",
			Name:      "emails_sent_total",
			Help:      "Total number of nudge emails sent, by tag and mode.",
		}, []string{"tag", "mode"}), // mode: sweep, manual
		NudgeSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "onboardflow",
			Subsystem: "nudge",
			Name:      "send_failures_total",
			Help:      "Total number of per-user send failures.",
		}),
		EventsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboardflow",
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Total number of ingested events, by type.",
		}, []string{"type"}), // type: identify, track
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "onboardflow",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweep invocations.",
		}),
		SweepDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "onboardflow",
			Subsystem: "sweep",
			Name:      "last_duration_seconds",
			Help:      "Wall-clock duration of the most recent sweep run.",
		}),
	}
}
