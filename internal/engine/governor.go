package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// govern rate-limits and bounds the raw fee targets:
//
//   - slew: per-trade movement caps, widened by stress on the way up and by
//     confidence on the way down,
//   - coherence: bid/ask divergence bounded by MaxSideDiff,
//   - liquidity ceiling: if even the cheaper side exceeds the (stress-widened)
//     ceiling, the excess is subtracted from both sides equally,
//   - tail compression: convex slope < 1 above the knee, compressing the
//     protect side less than the attract side,
//   - final clamp to [MinSideFee, MaxFee].
//
// The divergence bound is re-applied after compression: unequal slopes can
// open a gap between two fees that entered the tail close together.
func (e *Engine) govern(st *types.EngineState, tc *tradeCtx, prevBid, prevAsk, bidTarget, askTarget sdkmath.Int) (bid, ask sdkmath.Int) {
	p := e.params

	upCap := p.SlewUpBase.Add(wadmath.MulWad(p.SlewUpStressCoef, st.StressScore))
	downCap := p.SlewDownBase.Add(wadmath.MulWad(p.SlewDownConfCoef, st.ConfidenceScore))

	bid = slew(prevBid, bidTarget, upCap, downCap)
	ask = slew(prevAsk, askTarget, upCap, downCap)

	bid, ask = bindSpread(bid, ask, p.MaxSideDiff)

	liqCeil := sdkmath.MinInt(
		p.LiqCeilBase.Add(wadmath.MulWad(p.LiqCeilStressCoef, st.StressScore)),
		p.LiqCeilMax,
	)
	lower := sdkmath.MinInt(bid, ask)
	if lower.GT(liqCeil) {
		excess := lower.Sub(liqCeil)
		bid = wadmath.SubOrZero(bid, excess)
		ask = wadmath.SubOrZero(ask, excess)
	}

	bidSlope, askSlope := p.TailSlopeAttract, p.TailSlopeProtect
	if !tc.protectAsk {
		bidSlope, askSlope = p.TailSlopeProtect, p.TailSlopeAttract
	}
	bid = compressTail(bid, p.TailKnee, bidSlope)
	ask = compressTail(ask, p.TailKnee, askSlope)

	bid, ask = bindSpread(bid, ask, p.MaxSideDiff)

	bid = wadmath.Clamp(bid, p.MinSideFee, p.MaxFee)
	ask = wadmath.Clamp(ask, p.MinSideFee, p.MaxFee)
	return bid, ask
}

// slew moves prev toward target by at most upCap rising or downCap falling.
func slew(prev, target, upCap, downCap sdkmath.Int) sdkmath.Int {
	if target.GT(prev) {
		return prev.Add(sdkmath.MinInt(target.Sub(prev), upCap))
	}
	return wadmath.SubOrZero(prev, sdkmath.MinInt(prev.Sub(target), downCap))
}

// bindSpread pulls the larger side down until the divergence fits maxDiff.
func bindSpread(bid, ask, maxDiff sdkmath.Int) (sdkmath.Int, sdkmath.Int) {
	if wadmath.AbsDiff(bid, ask).GT(maxDiff) {
		if bid.GT(ask) {
			bid = ask.Add(maxDiff)
		} else {
			ask = bid.Add(maxDiff)
		}
	}
	return bid, ask
}

// compressTail applies slope < 1 to the portion of fee above the knee.
// Monotone: two fees above the knee keep their ordering.
func compressTail(fee, knee, slope sdkmath.Int) sdkmath.Int {
	if fee.GT(knee) {
		return knee.Add(wadmath.MulWad(slope, fee.Sub(knee)))
	}
	return fee
}
