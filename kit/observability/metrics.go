package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the process counters on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	PaymentsInitiated    *prometheus.CounterVec
	PaymentStatusChanges *prometheus.CounterVec
	PaymentChecks        *prometheus.CounterVec
	Withdrawals          *prometheus.CounterVec
	ReferralRewards      prometheus.Counter
	BalanceRefunds       prometheus.Counter
	Events               *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		PaymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payments initiated against the gateway, by type.",
		}, []string{"type"}),
		PaymentStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_status_changes_total",
			Help: "Payment status transitions applied, by resulting status.",
		}, []string{"status"}),
		PaymentChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_checks_total",
			Help: "Reconciliation checks, by outcome.",
		}, []string{"outcome"}),
		Withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "withdrawals_total",
			Help: "Withdrawal state changes, by status.",
		}, []string{"status"}),
		ReferralRewards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_rewards_total",
			Help: "Referral rewards credited to inviters.",
		}),
		BalanceRefunds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "balance_refunds_total",
			Help: "Withdrawal amounts returned to client balances.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Domain events seen on the bus, by name.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		m.PaymentsInitiated,
		m.PaymentStatusChanges,
		m.PaymentChecks,
		m.Withdrawals,
		m.ReferralRewards,
		m.BalanceRefunds,
		m.Events,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) PaymentInitiatedAdd(paymentType string) {
	if m == nil {
		return
	}
	m.PaymentsInitiated.WithLabelValues(paymentType).Inc()
}

func (m *Metrics) PaymentStatusChangedAdd(status string) {
	if m == nil {
		return
	}
	m.PaymentStatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) PaymentCheckAdd(outcome string) {
	if m == nil {
		return
	}
	m.PaymentChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WithdrawalAdd(status string) {
	if m == nil {
		return
	}
	m.Withdrawals.WithLabelValues(status).Inc()
}

func (m *Metrics) ReferralRewardAdd() {
	if m == nil {
		return
	}
	m.ReferralRewards.Inc()
}

func (m *Metrics) BalanceRefundAdd() {
	if m == nil {
		return
	}
	m.BalanceRefunds.Inc()
}

func (m *Metrics) EventAdd(name string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(name).Inc()
}
