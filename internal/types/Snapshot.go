/*

This file contains the per-trade snapshot record persisted for analytics and
the dashboard. Snapshots are observability data only; the exact engine state
lives in the engine_state table and is never reconstructed from snapshots.

*/

package types

import (
	"time"
)

// SignalSnapshot captures the engine's signal bank after a trade, converted
// to display floats (fees in basis points, ratios as fractions).
type SignalSnapshot struct {
	Volatility float64 `json:"volatility"`
	Toxicity   float64 `json:"toxicity"`
	FlowRate   float64 `json:"flow_rate"`
	FlowSize   float64 `json:"flow_size"`
	Direction  float64 `json:"direction"`
	Stress     float64 `json:"stress"`
	Confidence float64 `json:"confidence"`
}

// TradeSnapshot is one processed trade: the observation that triggered the
// recomputation and the fee pair the engine quoted for the next trade.
type TradeSnapshot struct {
	SnapshotID int64     `json:"snapshot_id,omitempty"`
	RunID      string    `json:"run_id"`
	PoolID     PoolID    `json:"pool_id"`
	Sequence   int64     `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`

	TradeTimestamp int64   `json:"trade_timestamp"`
	IsBuy          bool    `json:"is_buy"`
	TradedAmount   string  `json:"traded_amount"`
	SpotPrice      float64 `json:"spot_price"`

	BidFeeBps float64 `json:"bid_fee_bps"`
	AskFeeBps float64 `json:"ask_fee_bps"`

	Signals SignalSnapshot `json:"signals"`
}
