package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
// Tracks submission outcomes, per-stage failures and critical path
// durations.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	StageFailures      *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram
	MRZDecodeFailures  prometheus.Counter
	StaleResponsesSeen prometheus.Counter
}

// New creates a new Metrics instance with all verification metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pkdconsole_verifications_total",
			Help: "Total verification submissions by terminal outcome",
		}, []string{"outcome"}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pkdconsole_verification_stage_failures_total",
			Help: "Stages resolved to error or warning, by stage name and status",
		}, []string{"stage", "status"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pkdconsole_verification_submit_duration_seconds",
			Help:    "Duration of a full verifier submission round trip",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MRZDecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pkdconsole_mrz_decode_failures_total",
			Help: "MRZ uploads that could not be decoded",
		}),
		StaleResponsesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pkdconsole_stale_verifier_responses_total",
			Help: "Verifier responses discarded because their submission was superseded",
		}),
	}
}

// IncrementSubmission records a terminal submission outcome
// (completed, failed).
func (m *Metrics) IncrementSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

// IncrementStageFailure records a stage that resolved to error or warning.
func (m *Metrics) IncrementStageFailure(stage, status string) {
	m.StageFailures.WithLabelValues(stage, status).Inc()
}

// ObserveSubmit records the duration of a submission round trip.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
