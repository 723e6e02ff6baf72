/*

This file contains the tunable parameter set for the fee engine.

The original fee controllers ran as a family of near-duplicate variants, each
hard-wiring a different mix of signals and coefficients. Here the whole family
is one engine parameterized by FeeParameters; a named, versioned set of these
values fully determines an engine variant.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// FeeParameters holds every weight, coefficient, threshold, cap, and bound
// used by the fee engine. All sdkmath.Int fields are WAD-scaled (10^18 == 1.0)
// unless noted otherwise. Different sets can exist for different pools or
// market regimes and are persisted versioned in the database.
type FeeParameters struct {
	// --- Fee bounds ---
	BaseFee       sdkmath.Int `json:"base_fee"`        // Symmetric starting fee and the floor for the mid fee.
	MinSideFee    sdkmath.Int `json:"min_side_fee"`    // Hard per-side fee floor, applied as the very last clamp.
	MaxFee        sdkmath.Int `json:"max_fee"`         // Hard per-side fee ceiling, applied as the very last clamp.
	MaxSideDiff   sdkmath.Int `json:"max_side_diff"`   // Maximum allowed bid/ask divergence.
	FallbackPrice sdkmath.Int `json:"fallback_price"`  // Price reference seed when an initial reserve is zero.

	// --- Step clock / decay ---
	DecayPerSecond    sdkmath.Int `json:"decay_per_second"`     // Per-second multiplicative decay factor for all EMAs.
	ElapsedCapSeconds int64       `json:"elapsed_cap_seconds"`  // Cap on elapsed seconds used for decay, against sparse activity.
	StepTradeCountCap int64       `json:"step_trade_count_cap"` // Cap on the per-step trade counter.
	FlowRateAlpha     sdkmath.Int `json:"flow_rate_alpha"`      // Blend weight for the instantaneous trade-rate estimate.
	FlowRateCap       sdkmath.Int `json:"flow_rate_cap"`        // Cap on the flow-rate EMA (WAD trades per second).

	// --- Price belief tracker ---
	PriceAlphaArb    sdkmath.Int `json:"price_alpha_arb"`    // Reference blend weight for suspected-arbitrage trades (fast convergence).
	PriceAlphaRetail sdkmath.Int `json:"price_alpha_retail"` // Reference blend weight for retail trades (manipulation resistance).
	ArbSizeThreshold sdkmath.Int `json:"arb_size_threshold"` // Relative trade size below which a first-of-step trade is classified arbitrage.
	ShockGate        sdkmath.Int `json:"shock_gate"`         // Price deviation above which the blend weight is damped.
	ShockDampFactor  sdkmath.Int `json:"shock_damp_factor"`  // Multiplier applied to the blend weight past the shock gate.
	DeviationCap     sdkmath.Int `json:"deviation_cap"`      // Cap on the per-trade price deviation input.
	VolAlphaFirst    sdkmath.Int `json:"vol_alpha_first"`    // Volatility blend weight on the first trade of a step.
	VolAlphaFollow   sdkmath.Int `json:"vol_alpha_follow"`   // Volatility blend weight on follow-on trades.
	VolCap           sdkmath.Int `json:"vol_cap"`            // Cap on the volatility EMA.
	UseDualAnchor    bool        `json:"use_dual_anchor"`    // Maintain a second, slow price anchor for toxicity measurement.
	SlowAnchorAlpha  sdkmath.Int `json:"slow_anchor_alpha"`  // Blend weight for the slow anchor when dual anchors are enabled.

	// --- Signal estimator bank ---
	ToxAlphaFirst       sdkmath.Int `json:"tox_alpha_first"`       // Toxicity blend weight on the first trade of a step.
	ToxAlphaFollow      sdkmath.Int `json:"tox_alpha_follow"`      // Toxicity blend weight on follow-on trades.
	ToxCap              sdkmath.Int `json:"tox_cap"`               // Cap on the toxicity EMA.
	FlowSignalThreshold sdkmath.Int `json:"flow_signal_threshold"` // Relative trade size below which flow signals are not updated.
	FlowSizeAlpha       sdkmath.Int `json:"flow_size_alpha"`       // Blend weight for the flow-size EMA.
	DirectionPushCoef   sdkmath.Int `json:"direction_push_coef"`   // Multiplier from relative trade size to direction push.
	DirectionPushCap    sdkmath.Int `json:"direction_push_cap"`    // Cap on a single trade's direction push.

	// --- Risk aggregator ---
	VolSpan       sdkmath.Int `json:"vol_span"`       // Normalization span for volatility (norm saturates at Wad).
	ToxSpan       sdkmath.Int `json:"tox_span"`       // Normalization span for toxicity.
	FlowRateSpan  sdkmath.Int `json:"flow_rate_span"` // Normalization span for the flow rate.
	ImbalanceSpan sdkmath.Int `json:"imbalance_span"` // Normalization span for |direction - Wad|.

	StressVolWeight       sdkmath.Int `json:"stress_vol_weight"`       // Volatility weight in the stress score.
	StressToxWeight       sdkmath.Int `json:"stress_tox_weight"`       // Toxicity weight in the stress score.
	StressFlowWeight      sdkmath.Int `json:"stress_flow_weight"`      // Flow-rate weight in the stress score.
	StressImbalanceWeight sdkmath.Int `json:"stress_imbalance_weight"` // Imbalance weight in the stress score.

	ConfVolWeight  sdkmath.Int `json:"conf_vol_weight"`  // Volatility penalty weight in the confidence score.
	ConfToxWeight  sdkmath.Int `json:"conf_tox_weight"`  // Toxicity penalty weight in the confidence score.
	ConfFlowWeight sdkmath.Int `json:"conf_flow_weight"` // Flow-rate penalty weight in the confidence score.
	ConfMin        sdkmath.Int `json:"conf_min"`         // Confidence floor; the engine never reports zero confidence.
	ConfMax        sdkmath.Int `json:"conf_max"`         // Confidence ceiling and decay-to-neutral target.

	UseAgreementGate    bool        `json:"use_agreement_gate"`    // Require multiple signals above their deadbands before reacting hard.
	AgreementMinSignals int         `json:"agreement_min_signals"` // Minimum number of concurring signals for agreement.
	VolGate             sdkmath.Int `json:"vol_gate"`              // Volatility deadband for the agreement count.
	ToxGate             sdkmath.Int `json:"tox_gate"`              // Toxicity deadband for the agreement count.
	FlowGate            sdkmath.Int `json:"flow_gate"`             // Flow-size deadband for the agreement count.
	ImbalanceGate       sdkmath.Int `json:"imbalance_gate"`        // Imbalance deadband for the agreement count.
	AgreementDampFactor sdkmath.Int `json:"agreement_damp_factor"` // Damping applied to directional terms when agreement fails.

	// --- Fee synthesizer ---
	VolFeeCoef      sdkmath.Int `json:"vol_fee_coef"`       // Linear volatility contribution to the mid fee.
	FlowRateFeeCoef sdkmath.Int `json:"flow_rate_fee_coef"` // Linear flow-rate contribution to the mid fee.
	FlowSizeFeeCoef sdkmath.Int `json:"flow_size_fee_coef"` // Linear flow-size contribution to the mid fee.
	ToxFeeCoef      sdkmath.Int `json:"tox_fee_coef"`       // Linear toxicity contribution to the mid fee.
	ToxQuadCoef     sdkmath.Int `json:"tox_quad_coef"`      // Convex toxicity term coefficient above the knee.
	ToxKnee         sdkmath.Int `json:"tox_knee"`           // Toxicity level above which the quadratic term engages.
	ToxQuadCap      sdkmath.Int `json:"tox_quad_cap"`       // Cap on the quadratic toxicity term.

	StressGuardCoef     sdkmath.Int `json:"stress_guard_coef"`     // Stress-proportional addition to the mid fee.
	LowConfGuardCoef    sdkmath.Int `json:"low_conf_guard_coef"`   // (Wad - confidence)-proportional addition to the mid fee.
	ConfReliefThreshold sdkmath.Int `json:"conf_relief_threshold"` // Confidence above which relief is granted.
	ConfReliefCoef      sdkmath.Int `json:"conf_relief_coef"`      // Confidence-proportional relief, floored at BaseFee.
	MidFeeCap           sdkmath.Int `json:"mid_fee_cap"`           // Absolute ceiling on the mid fee before side-specific terms.

	DirSkewCoef         sdkmath.Int `json:"dir_skew_coef"`          // Linear imbalance contribution to the directional skew.
	SkewToxCrossCoef    sdkmath.Int `json:"skew_tox_cross_coef"`    // Imbalance x toxicity cross term in the skew.
	SkewStressCrossCoef sdkmath.Int `json:"skew_stress_cross_coef"` // Imbalance x stress cross term in the skew.
	SkewCap             sdkmath.Int `json:"skew_cap"`               // Cap on the directional skew.

	AdverseProtectCoef  sdkmath.Int `json:"adverse_protect_coef"`  // Toxicity-proportional protection added to the adverse side.
	AdverseStressCoef   sdkmath.Int `json:"adverse_stress_coef"`   // Stress-proportional protection added to the adverse side.
	AttractDiscountCoef sdkmath.Int `json:"attract_discount_coef"` // Confidence-scaled discount subtracted from the attract side.

	StalenessShiftCoef  sdkmath.Int `json:"staleness_shift_coef"`  // Toxicity-proportional one-sided shift for a stale reference.
	StalenessConfScaled bool        `json:"staleness_conf_scaled"` // Scale the staleness shift by (Wad - confidence).

	// --- Stability governor ---
	SlewUpBase       sdkmath.Int `json:"slew_up_base"`        // Base per-trade cap on fee rises.
	SlewUpStressCoef sdkmath.Int `json:"slew_up_stress_coef"` // Stress-proportional widening of the rise cap.
	SlewDownBase     sdkmath.Int `json:"slew_down_base"`      // Base per-trade cap on fee drops.
	SlewDownConfCoef sdkmath.Int `json:"slew_down_conf_coef"` // Confidence-proportional widening of the drop cap.

	LiqCeilBase       sdkmath.Int `json:"liq_ceil_base"`        // Base of the both-sides liquidity ceiling.
	LiqCeilStressCoef sdkmath.Int `json:"liq_ceil_stress_coef"` // Stress-proportional widening of the liquidity ceiling.
	LiqCeilMax        sdkmath.Int `json:"liq_ceil_max"`         // Absolute maximum of the liquidity ceiling.

	TailKnee         sdkmath.Int `json:"tail_knee"`          // Fee level above which tail compression engages.
	TailSlopeProtect sdkmath.Int `json:"tail_slope_protect"` // Compression slope (< Wad) for the protect side; larger, compresses less.
	TailSlopeAttract sdkmath.Int `json:"tail_slope_attract"` // Compression slope (< Wad) for the attract side; smaller, compresses more.
}
