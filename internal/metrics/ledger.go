package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LedgerMetrics records bet flow and money movement. A nil *LedgerMetrics
// is valid and records nothing.
type LedgerMetrics struct {
	betsPlaced   prometheus.Counter
	stakeTotal   prometheus.Counter
	betsSettled  *prometheus.CounterVec
	payoutTotal  prometheus.Counter
	adjustments  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	unitDuration *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		betsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_bets_placed_total",
			Help: "Bets accepted and debited.",
		}),
		stakeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_stake_amount_total",
			Help: "Sum of accepted stakes.",
		}),
		betsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_bets_settled_total",
			Help: "Bets moved to a terminal outcome.",
		}, []string{"outcome"}),
		payoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_payout_amount_total",
			Help: "Sum of credited winnings.",
		}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_balance_adjustments_total",
			Help: "Administrative balance movements.",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operation_failures_total",
			Help: "Failed ledger operations by error kind.",
		}, []string{"operation", "kind"}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger units of work in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.betsPlaced, m.stakeTotal, m.betsSettled, m.payoutTotal, m.adjustments, m.failures, m.unitDuration)
	return m
}

func (m *LedgerMetrics) BetPlaced(stake decimal.Decimal) {
	if m == nil || m.betsPlaced == nil {
		return
	}
	m.betsPlaced.Inc()
	m.stakeTotal.Add(stake.InexactFloat64())
}

func (m *LedgerMetrics) BetSettled(outcome string, payout decimal.Decimal) {
	if m == nil || m.betsSettled == nil {
		return
	}
	m.betsSettled.WithLabelValues(normalizeLabel(outcome)).Inc()
	if payout.IsPositive() {
		m.payoutTotal.Add(payout.InexactFloat64())
	}
}

func (m *LedgerMetrics) BalanceAdjusted(kind string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure counts a failed operation under its error kind.
func (m *LedgerMetrics) IncFailure(operation, kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

// ObserveDuration records how long the named operation took.
func (m *LedgerMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.unitDuration == nil {
		return
	}
	m.unitDuration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
