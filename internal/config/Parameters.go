/*

This file contains the default fee-engine parameters.

These values are the "baseline" variant of the controller family. They are
calibrated for a mid-cap two-sided pool: responsive enough to reprice against
informed flow within a handful of trades, slow enough that a single trade can
never move a fee more than the slew caps allow.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// permille returns n/1000 in WAD scale.
func permille(n int64) sdkmath.Int {
	return wadmath.Wad.MulRaw(n).QuoRaw(1000)
}

// DefaultFeeParameters provides the baseline parameter set for the fee
// engine. These values are used and self-saved if no active parameters are
// found in the database during initialization.
var DefaultFeeParameters = types.FeeParameters{
	// --- Fee bounds ---
	BaseFee: wadmath.FromBps(30), // 30 bps symmetric starting fee.
	// Rationale: standard mid-tier AMM fee; the controller earns its keep by
	// moving away from this only when the signal bank justifies it.

	MinSideFee:  wadmath.FromBps(5),   // Never quote a side below 5 bps.
	MaxFee:      wadmath.FromBps(300), // Hard per-side ceiling at 3%.
	MaxSideDiff: wadmath.FromBps(100), // Bid and ask may diverge at most 1%.
	// Rationale: a wider spread than 1% signals distress to arbitrageurs and
	// invites exactly the toxic flow the controller is trying to price out.

	FallbackPrice: wadmath.Wad, // Seed reference of 1.0 when a reserve is zero.

	// --- Step clock / decay ---
	DecayPerSecond: wadmath.FromWadStr("999500000000000000"), // 0.9995 per second.
	// Rationale: half-life of roughly 23 minutes for every estimator; quiet
	// periods forget stress at the same speed across the whole bank.

	ElapsedCapSeconds: 600, // Cap decay at 10 minutes of elapsed time.
	// Rationale: after a long lull the first trade carries real information;
	// without the cap the estimators would be zeroed and the engine blind.

	StepTradeCountCap: 128,                    // Per-step trade counter cap.
	FlowRateAlpha:     permille(100),          // 0.10 blend for the instantaneous rate.
	FlowRateCap:       wadmath.Wad.MulRaw(50), // At most 50 trades/second.

	// --- Price belief tracker ---
	PriceAlphaArb:    permille(400), // 0.40: arbitrage trades reveal the true price, converge fast.
	PriceAlphaRetail: permille(80),  // 0.08: retail trades barely move the belief.
	// Rationale: the asymmetry is the manipulation defense. A single large
	// trade is retail-classified and moves the anchor by 8% of its deviation.

	ArbSizeThreshold: permille(2),   // First-of-step trades under 0.2% of reserves look like arbitrage.
	ShockGate:        permille(20),  // Deviations above 2% are treated as suspect.
	ShockDampFactor:  permille(250), // Blend weight quartered past the shock gate.
	DeviationCap:     permille(250), // Per-trade deviation input capped at 25%.
	VolAlphaFirst:    permille(200), // 0.20 on the first trade of a step.
	VolAlphaFollow:   permille(50),  // 0.05 on follow-on trades.
	VolCap:           permille(250), // Volatility EMA capped at 25%.
	UseDualAnchor:    false,
	SlowAnchorAlpha:  permille(20), // 0.02 when the dual-anchor profile is active.

	// --- Signal estimator bank ---
	ToxAlphaFirst:  permille(250), // 0.25: a stale reference after a lull is informative.
	ToxAlphaFollow: permille(60),  // 0.06: intra-burst noise is not.
	ToxCap:         permille(250),

	FlowSignalThreshold: permille(5), // Trades under 0.5% of reserves do not register as flow.
	FlowSizeAlpha:       permille(150),
	DirectionPushCoef:   wadmath.Wad.MulRaw(2), // Push = 2x relative size, capped below.
	DirectionPushCap:    permille(125),         // A single trade moves direction at most 0.125.
	// Rationale: eight maximal one-way trades saturate the direction signal;
	// fewer would make the skew twitchy, more would make it numb.

	// --- Risk aggregator ---
	VolSpan:       permille(50),           // Volatility of 5% saturates its norm.
	ToxSpan:       permille(50),           // Toxicity of 5% saturates its norm.
	FlowRateSpan:  wadmath.Wad.MulRaw(10), // 10 trades/second saturates the rate norm.
	ImbalanceSpan: wadmath.Wad,            // Full direction saturation saturates the norm.

	StressVolWeight:       permille(300),
	StressToxWeight:       permille(350),
	StressFlowWeight:      permille(150),
	StressImbalanceWeight: permille(200),
	// Rationale: weights sum to 1.0 so stress saturates only when every
	// signal saturates; toxicity carries the largest share because it is the
	// most direct adverse-selection measurement.

	ConfVolWeight:  permille(350),
	ConfToxWeight:  permille(400),
	ConfFlowWeight: permille(250),
	ConfMin:        permille(100), // The engine never treats itself as having zero confidence.
	ConfMax:        wadmath.Wad,

	UseAgreementGate:    false,
	AgreementMinSignals: 2,
	VolGate:             permille(10),
	ToxGate:             permille(10),
	FlowGate:            permille(50),
	ImbalanceGate:       permille(250),
	AgreementDampFactor: permille(500), // Halve directional terms when signals disagree.

	// --- Fee synthesizer ---
	VolFeeCoef:      permille(20),       // 5% volatility adds 10 bps to the mid fee.
	FlowRateFeeCoef: wadmath.FromBps(2), // 1 trade/second adds 2 bps.
	FlowSizeFeeCoef: permille(1),
	ToxFeeCoef:      permille(50), // 2% toxicity adds 10 bps.
	ToxQuadCoef:     wadmath.Wad.MulRaw(4),
	ToxKnee:         permille(30), // Quadratic term engages above 3% toxicity.
	ToxQuadCap:      wadmath.FromBps(100),
	// Rationale: past the knee the pool is plainly being picked off; the
	// quadratic term outruns any linear response an arbitrageur can model.

	StressGuardCoef:     wadmath.FromBps(60), // Full stress adds 60 bps.
	LowConfGuardCoef:    wadmath.FromBps(50), // Zero confidence would add 50 bps.
	ConfReliefThreshold: permille(800),       // Relief only above 0.80 confidence.
	ConfReliefCoef:      wadmath.FromBps(10),
	MidFeeCap:           wadmath.FromBps(200),

	DirSkewCoef:         wadmath.FromBps(60), // Saturated imbalance skews 60 bps.
	SkewToxCrossCoef:    permille(50),
	SkewStressCrossCoef: wadmath.FromBps(20),
	SkewCap:             wadmath.FromBps(80),

	AdverseProtectCoef:  permille(10), // 5% toxicity adds 5 bps to the protect side.
	AdverseStressCoef:   wadmath.FromBps(5),
	AttractDiscountCoef: permille(20),
	// Rationale: protection is deliberately smaller than the skew; the
	// directional signal is the primary defense, the split is a refinement.

	StalenessShiftCoef:  permille(10),
	StalenessConfScaled: true,

	// --- Stability governor ---
	SlewUpBase:       wadmath.FromBps(5),
	SlewUpStressCoef: wadmath.FromBps(10), // Full stress widens the rise cap to 15 bps/trade.
	SlewDownBase:     wadmath.FromBps(3),
	SlewDownConfCoef: wadmath.FromBps(5), // Full confidence widens the drop cap to 8 bps/trade.
	// Rationale: fees climb faster than they fall, and both rates scale with
	// how sure the engine is about why it is moving.

	LiqCeilBase:       wadmath.FromBps(120),
	LiqCeilStressCoef: wadmath.FromBps(80),
	LiqCeilMax:        wadmath.FromBps(250),
	// Rationale: if the cheaper side exceeds the ceiling, both sides are
	// pushed down equally; a pool priced out on both sides earns nothing.

	TailKnee:         wadmath.FromBps(150),
	TailSlopeProtect: permille(700), // Protect side compresses less, stays higher.
	TailSlopeAttract: permille(400), // Attract side compresses more, stays lower.
}
