// ./internal/metrics/metrics.go
//
// Package metrics exposes the fee engine's operational metrics:
//   - afe_bid_fee_bps{pool}       - Current bid-side fee quote (gauge)
//   - afe_ask_fee_bps{pool}       - Current ask-side fee quote (gauge)
//   - afe_stress_score{pool}      - Aggregate stress score in [0,1] (gauge)
//   - afe_confidence_score{pool}  - Aggregate confidence score (gauge)
//   - afe_trades_total{pool,side} - Processed trades by side (buy|sell)
//   - afe_step_rolls_total{pool}  - Step clock advances
//   - afe_trade_errors_total{pool} - Rejected observations
//
// Registered in init() and served by the web server at /metrics in the
// Prometheus text exposition format.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openamm/afe/internal/types"
)

var (
	bidFeeBps = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afe_bid_fee_bps",
			Help: "Current bid-side fee quote in basis points",
		},
		[]string{"pool"},
	)

	askFeeBps = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afe_ask_fee_bps",
			Help: "Current ask-side fee quote in basis points",
		},
		[]string{"pool"},
	)

	stressScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afe_stress_score",
			Help: "Aggregate market stress score in [0,1]",
		},
		[]string{"pool"},
	)

	confidenceScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afe_confidence_score",
			Help: "Aggregate signal confidence score",
		},
		[]string{"pool"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afe_trades_total",
			Help: "Processed trade observations by side",
		},
		[]string{"pool", "side"}, // side: buy|sell
	)

	stepRollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afe_step_rolls_total",
			Help: "Number of step clock advances",
		},
		[]string{"pool"},
	)

	tradeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afe_trade_errors_total",
			Help: "Trade observations rejected by validation",
		},
		[]string{"pool"},
	)
)

func init() {
	prometheus.MustRegister(bidFeeBps, askFeeBps)
	prometheus.MustRegister(stressScore, confidenceScore)
	prometheus.MustRegister(tradesTotal, stepRollsTotal, tradeErrorsTotal)
}

func poolLabel(id types.PoolID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// SetQuote publishes the current fee pair for a pool.
func SetQuote(id types.PoolID, bidBps, askBps float64) {
	bidFeeBps.WithLabelValues(poolLabel(id)).Set(bidBps)
	askFeeBps.WithLabelValues(poolLabel(id)).Set(askBps)
}

// SetScores publishes the aggregate risk scores for a pool.
func SetScores(id types.PoolID, stress, confidence float64) {
	stressScore.WithLabelValues(poolLabel(id)).Set(stress)
	confidenceScore.WithLabelValues(poolLabel(id)).Set(confidence)
}

// IncTrade records one processed observation.
func IncTrade(id types.PoolID, isBuy bool) {
	side := "sell"
	if isBuy {
		side = "buy"
	}
	tradesTotal.WithLabelValues(poolLabel(id), side).Inc()
}

// IncStepRoll records one step clock advance.
func IncStepRoll(id types.PoolID) {
	stepRollsTotal.WithLabelValues(poolLabel(id)).Inc()
}

// IncTradeError records one rejected observation.
func IncTradeError(id types.PoolID) {
	tradeErrorsTotal.WithLabelValues(poolLabel(id)).Inc()
}
