package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// synthesize turns the signal bank into raw bid/ask fee targets:
//
//  1. a symmetric mid fee with a convex toxicity term above the knee,
//  2. stress and low-confidence guard additions, confidence relief,
//  3. a directional skew toward the pressured side,
//  4. an adverse-selection protect/attract split keyed on spot vs. reference,
//  5. a one-sided staleness shift.
//
// Targets are unclamped here except for their own term caps; the governor
// owns rate limiting and the global bounds.
func (e *Engine) synthesize(st *types.EngineState, tc *tradeCtx) (bidTarget, askTarget sdkmath.Int) {
	p := e.params

	// Base/mid fee.
	mid := p.BaseFee.
		Add(wadmath.MulWad(p.VolFeeCoef, st.VolatilityEstimate)).
		Add(wadmath.MulWad(p.FlowRateFeeCoef, st.FlowRateEstimate)).
		Add(wadmath.MulWad(p.FlowSizeFeeCoef, st.FlowSizeEstimate)).
		Add(wadmath.MulWad(p.ToxFeeCoef, st.ToxicityEstimate))

	excess := wadmath.SubOrZero(st.ToxicityEstimate, p.ToxKnee)
	quad := sdkmath.MinInt(
		wadmath.MulWad(p.ToxQuadCoef, wadmath.MulWad(excess, excess)),
		p.ToxQuadCap,
	)
	mid = mid.Add(quad)

	// Guards and relief.
	mid = mid.
		Add(wadmath.MulWad(p.StressGuardCoef, st.StressScore)).
		Add(wadmath.MulWad(p.LowConfGuardCoef, wadmath.SubOrZero(wadmath.Wad, st.ConfidenceScore)))
	if st.ConfidenceScore.GT(p.ConfReliefThreshold) {
		relief := wadmath.MulWad(p.ConfReliefCoef, st.ConfidenceScore)
		mid = sdkmath.MaxInt(wadmath.SubOrZero(mid, relief), p.BaseFee)
	}
	mid = sdkmath.MinInt(mid, p.MidFeeCap)

	// Directional skew.
	devDir := wadmath.AbsDiff(st.DirectionState, wadmath.Wad)
	skew := wadmath.MulWad(p.DirSkewCoef, devDir).
		Add(wadmath.MulWad(p.SkewToxCrossCoef, wadmath.MulWad(devDir, st.ToxicityEstimate))).
		Add(wadmath.MulWad(p.SkewStressCrossCoef, wadmath.MulWad(devDir, st.StressScore)))
	skew = sdkmath.MinInt(skew, p.SkewCap)
	if !tc.agreement {
		skew = wadmath.MulWad(skew, p.AgreementDampFactor)
	}

	if st.DirectionState.GTE(wadmath.Wad) {
		askTarget = mid.Add(skew)
		bidTarget = wadmath.SubOrZero(mid, skew)
	} else {
		bidTarget = mid.Add(skew)
		askTarget = wadmath.SubOrZero(mid, skew)
	}

	// Adverse-selection split and staleness shift, both one-sided toward
	// the protect side.
	protect := wadmath.MulWad(p.AdverseProtectCoef, st.ToxicityEstimate).
		Add(wadmath.MulWad(p.AdverseStressCoef, st.StressScore))
	attract := wadmath.MulWad(
		wadmath.MulWad(p.AttractDiscountCoef, st.ToxicityEstimate),
		st.ConfidenceScore,
	)
	shift := wadmath.MulWad(p.StalenessShiftCoef, st.ToxicityEstimate)
	if p.StalenessConfScaled {
		shift = wadmath.MulWad(shift, wadmath.SubOrZero(wadmath.Wad, st.ConfidenceScore))
	}
	if !tc.agreement {
		protect = wadmath.MulWad(protect, p.AgreementDampFactor)
		shift = wadmath.MulWad(shift, p.AgreementDampFactor)
	}

	if tc.protectAsk {
		askTarget = askTarget.Add(protect).Add(shift)
		bidTarget = wadmath.SubOrZero(bidTarget, attract)
	} else {
		bidTarget = bidTarget.Add(protect).Add(shift)
		askTarget = wadmath.SubOrZero(askTarget, attract)
	}

	return bidTarget, askTarget
}
