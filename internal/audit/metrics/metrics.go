package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the quality audit module.
// Tracks recorded and replaced evaluations, lock transitions, rejected
// commands and projected lock events.
type Metrics struct {
	EvaluationsRecorded *prometheus.CounterVec
	EvaluationsReplaced prometheus.Counter
	LockTransitions     *prometheus.CounterVec
	CommandsRejected    *prometheus.CounterVec
	ProjectedEvents     *prometheus.CounterVec
	OutboxRelayed       prometheus.Counter
	OutboxFailures      prometheus.Counter
}

// New creates the module metrics on reg. Passing a fresh registry per test
// avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualityaudit_evaluations_recorded_total",
			Help: "Total number of evaluations recorded, by rating",
		}, []string{"rating"}),
		EvaluationsReplaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "qualityaudit_evaluations_replaced_total",
			Help: "Total number of positive evaluations superseded by a newer positive evaluation",
		}),
		LockTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualityaudit_lock_transitions_total",
			Help: "Total number of lock transitions applied, by action",
		}, []string{"action"}),
		CommandsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualityaudit_commands_rejected_total",
			Help: "Total number of commands rejected by a domain rule, by command",
		}, []string{"command"}),
		ProjectedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualityaudit_projected_events_total",
			Help: "Total number of lock events written to the lock history, by action",
		}, []string{"action"}),
		OutboxRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "qualityaudit_outbox_relayed_total",
			Help: "Total number of outbox lock events handed to the event sink",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "qualityaudit_outbox_failures_total",
			Help: "Total number of outbox flushes that left events undelivered",
		}),
	}
}

// IncrementRecorded records a successful evaluation for rating.
func (m *Metrics) IncrementRecorded(rating string) {
	m.EvaluationsRecorded.WithLabelValues(rating).Inc()
}

func (m *Metrics) IncrementReplaced() {
	m.EvaluationsReplaced.Inc()
}

func (m *Metrics) IncrementLockTransition(action string) {
	m.LockTransitions.WithLabelValues(action).Inc()
}

// IncrementRejected records a command refused by a rule, not an infrastructure failure.
func (m *Metrics) IncrementRejected(command string) {
	m.CommandsRejected.WithLabelValues(command).Inc()
}

func (m *Metrics) IncrementProjected(action string) {
	m.ProjectedEvents.WithLabelValues(action).Inc()
}

func (m *Metrics) AddRelayed(n int) {
	m.OutboxRelayed.Add(float64(n))
}

func (m *Metrics) IncrementOutboxFailure() {
	m.OutboxFailures.Inc()
}
