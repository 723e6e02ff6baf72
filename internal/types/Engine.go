/*

This file contains the core data types exchanged between the host and the
fee-pricing engine: the persisted engine state, the per-trade observation,
and the resulting fee quote.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// PoolID identifies a liquidity pool managed by the engine.
type PoolID uint64

// EngineState is the full persisted state of the fee engine for one pool.
// It is read in full at call entry and written in full at call exit; the
// host's transactional boundary makes each mutation all-or-nothing.
//
// All fixed-point fields are WAD-scaled (10^18 == 1.0). Every estimator is
// capped at the point of update, so no field can grow without bound.
type EngineState struct {
	// Fees returned on the previous call, bounded to [MinSideFee, MaxFee].
	// AskFee is charged when a trader buys base from the pool, BidFee when a
	// trader sells base to the pool.
	BidFee sdkmath.Int `json:"bid_fee"`
	AskFee sdkmath.Int `json:"ask_fee"`

	// LastStepTimestamp is the unix second at which the step clock last
	// advanced; trades at or before it are same-step follow-on trades.
	LastStepTimestamp int64 `json:"last_step_timestamp"`

	// PriceReference is the fast fair-price anchor (quote per base, WAD).
	// Strictly positive once seeded.
	PriceReference sdkmath.Int `json:"price_reference"`
	// PriceReferenceSlow is the slow anchor; zero when the active profile
	// runs a single anchor.
	PriceReferenceSlow sdkmath.Int `json:"price_reference_slow"`

	// Non-negative EMAs, each explicitly capped by the active parameters.
	VolatilityEstimate sdkmath.Int `json:"volatility_estimate"`
	ToxicityEstimate   sdkmath.Int `json:"toxicity_estimate"`
	FlowRateEstimate   sdkmath.Int `json:"flow_rate_estimate"`
	FlowSizeEstimate   sdkmath.Int `json:"flow_size_estimate"`

	// DirectionState is centered at Wad (neutral) and saturates in
	// [0, 2*Wad]; above Wad means sustained buy pressure.
	DirectionState sdkmath.Int `json:"direction_state"`

	// Aggregate scores in [0, Wad]; confidence is floored above zero.
	StressScore     sdkmath.Int `json:"stress_score"`
	ConfidenceScore sdkmath.Int `json:"confidence_score"`

	// StepTradeCount counts trades observed in the current step, capped.
	StepTradeCount int64 `json:"step_trade_count"`
}

// TradeObservation is the transient per-trade input supplied by the host.
// Reserves are post-trade; the engine never persists the observation.
type TradeObservation struct {
	// Timestamp is the unix second of the trade.
	Timestamp int64 `json:"timestamp"`
	// IsBuy is true when the trader bought base (reserve B) from the pool.
	IsBuy bool `json:"is_buy"`
	// TradedAmount is the base-denominated trade size.
	TradedAmount sdkmath.Int `json:"traded_amount"`
	// PostTradeReserveA is the quote reserve after settlement.
	PostTradeReserveA sdkmath.Int `json:"post_trade_reserve_a"`
	// PostTradeReserveB is the base reserve after settlement.
	PostTradeReserveB sdkmath.Int `json:"post_trade_reserve_b"`
}

// FeeQuote is the forward-looking fee pair applied to the next trade.
type FeeQuote struct {
	BidFee sdkmath.Int `json:"bid_fee"`
	AskFee sdkmath.Int `json:"ask_fee"`
}
