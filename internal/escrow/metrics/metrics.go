package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the escrow engine. All methods are
// safe on a nil receiver so the engine can run without metrics.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Votes             *prometheus.CounterVec
	Deposited         prometheus.Counter
	Disbursements     *prometheus.CounterVec
	DisbursedAmount   *prometheus.CounterVec
	ForcedDeadlines   prometheus.Counter
	IntegrityFaults   prometheus.Counter
	OutboxPublished   prometheus.Counter
	OutboxFailures    prometheus.Counter
	OutboxBreakerOpen prometheus.Gauge
}

// New registers the escrow metrics with reg. A nil reg creates unregistered
// collectors, which keeps tests free of duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impactx_escrow_operations_total",
			Help: "Escrow operations by kind and outcome code",
		}, []string{"op", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "impactx_escrow_operation_duration_seconds",
			Help:    "Duration of escrow operations including the campaign transaction",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		Votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impactx_escrow_votes_total",
			Help: "Accepted oracle votes by verdict",
		}, []string{"verdict"}),
		Deposited: f.NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_deposited_minor_units_total",
			Help: "Sum of accepted donations in minor currency units",
		}),
		Disbursements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impactx_escrow_disbursements_total",
			Help: "Disbursement instructions issued by kind and reason",
		}, []string{"kind", "reason"}),
		DisbursedAmount: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impactx_escrow_disbursed_minor_units_total",
			Help: "Sum of disbursed funds in minor currency units by kind",
		}, []string{"kind"}),
		ForcedDeadlines: f.NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_forced_deadlines_total",
			Help: "Refunds forced by an elapsed deadline",
		}),
		IntegrityFaults: f.NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_integrity_faults_total",
			Help: "Campaigns halted after an escrow integrity check failed",
		}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_outbox_published_total",
			Help: "Outbox entries acknowledged by the settlement sink",
		}),
		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_outbox_publish_failures_total",
			Help: "Outbox relay batches that failed to publish",
		}),
		OutboxBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "impactx_escrow_outbox_breaker_open",
			Help: "1 while the outbox relay circuit breaker is open",
		}),
	}
}

// ObserveOperation records one operation's outcome and latency.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementVote(yes bool) {
	if m == nil {
		return
	}
	verdict := "no"
	if yes {
		verdict = "yes"
	}
	m.Votes.WithLabelValues(verdict).Inc()
}

func (m *Metrics) AddDeposit(amount int64) {
	if m == nil {
		return
	}
	m.Deposited.Add(float64(amount))
}

func (m *Metrics) RecordDisbursement(kind, reason string, amount int64) {
	if m == nil {
		return
	}
	m.Disbursements.WithLabelValues(kind, reason).Inc()
	m.DisbursedAmount.WithLabelValues(kind).Add(float64(amount))
}

func (m *Metrics) IncrementForcedDeadline() {
	if m == nil {
		return
	}
	m.ForcedDeadlines.Inc()
}

func (m *Metrics) IncrementIntegrityFault() {
	if m == nil {
		return
	}
	m.IntegrityFaults.Inc()
}

func (m *Metrics) AddOutboxPublished(n int) {
	if m == nil {
		return
	}
	m.OutboxPublished.Add(float64(n))
}

func (m *Metrics) IncrementOutboxFailure() {
	if m == nil {
		return
	}
	m.OutboxFailures.Inc()
}

func (m *Metrics) SetOutboxBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.OutboxBreakerOpen.Set(1)
		return
	}
	m.OutboxBreakerOpen.Set(0)
}
