package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records money movement through the ledger.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	amounts      *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Balanced ledger transactions recorded.",
	}, []string{"state"})
	amounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_transaction_amount_cents",
		Help:    "Absolute amount moved per transaction, in cents.",
		Buckets: prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"state"})
	reg.MustRegister(transactions, amounts)
	return &LedgerMetrics{
		transactions: transactions,
		amounts:      amounts,
	}
}

// ObserveTransaction records one balanced transaction in the given money state.
func (l *LedgerMetrics) ObserveTransaction(state string, amountCents int64) {
	if l == nil || l.transactions == nil {
		return
	}
	if amountCents < 0 {
		amountCents = -amountCents
	}
	l.transactions.WithLabelValues(normalizeLabel(state)).Inc()
	l.amounts.WithLabelValues(normalizeLabel(state)).Observe(float64(amountCents))
}
