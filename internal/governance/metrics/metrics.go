package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	ProposalsCreated *prometheus.CounterVec
	VotesCast        *prometheus.CounterVec
	// Resolutions by outcome (passed, rejected) and path (sweep, fast_track)
	Resolutions *prometheus.CounterVec
	// Dispatch results by law kind and result (succeeded, failed)
	Executions *prometheus.CounterVec
	// Domain rejections by error code
	Rejections       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	SweepDuration    prometheus.Histogram
	SweepErrors      prometheus.Counter
	LostTransitions  prometheus.Counter
}

// New registers the governance metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the governance metrics with reg. Tests pass a
// fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProposalsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_governance_proposals_created_total",
			Help: "Proposals created by law kind",
		}, []string{"law_kind"}),

		VotesCast: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_governance_votes_cast_total",
			Help: "Votes cast by choice",
		}, []string{"choice"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_governance_resolutions_total",
			Help: "Terminal transitions by outcome and path",
		}, []string{"outcome", "path"}),

		Executions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_governance_executions_total",
			Help: "Law executions by law kind and result",
		}, []string{"law_kind", "result"}),

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_governance_rejections_total",
			Help: "Requests refused with a domain error, by code",
		}, []string{"code"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civitas_governance_operation_duration_seconds",
			Help:    "Duration of governance operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "civitas_governance_sweep_duration_seconds",
			Help:    "Duration of one resolve-expired pass",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "civitas_governance_sweep_errors_total",
			Help: "Per-proposal failures during sweeps and redispatch passes",
		}),

		LostTransitions: f.NewCounter(prometheus.CounterOpts{
			Name: "civitas_governance_lost_transitions_total",
			Help: "Terminal transitions skipped because another resolver won",
		}),
	}
}

func (m *Metrics) IncrementProposalsCreated(lawKind string) {
	if m != nil {
		m.ProposalsCreated.WithLabelValues(lawKind).Inc()
	}
}

func (m *Metrics) IncrementVotesCast(choice string) {
	if m != nil {
		m.VotesCast.WithLabelValues(choice).Inc()
	}
}

func (m *Metrics) IncrementResolution(outcome, path string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome, path).Inc()
	}
}

func (m *Metrics) IncrementExecution(lawKind, result string) {
	if m != nil {
		m.Executions.WithLabelValues(lawKind, result).Inc()
	}
}

func (m *Metrics) IncrementRejection(code string) {
	if m != nil {
		m.Rejections.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSweepErrors() {
	if m != nil {
		m.SweepErrors.Inc()
	}
}

func (m *Metrics) IncrementLostTransitions() {
	if m != nil {
		m.LostTransitions.Inc()
	}
}
