package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// updateSignals runs the estimator bank: toxicity from the spot-vs-reference
// gap, flow size and signed direction from the trade's relative size, and the
// per-step trade counter. Every estimator is capped at the point of update.
func (e *Engine) updateSignals(st *types.EngineState, tc *tradeCtx) {
	p := e.params

	ref := e.toxicityReference(st)
	toxInput := sdkmath.MinInt(
		wadmath.DivWad(wadmath.AbsDiff(tc.spot, ref), ref),
		p.ToxCap,
	)
	toxAlpha := p.ToxAlphaFollow
	if tc.firstOfStep {
		// A stale reference after a quiet period is more informative of
		// toxicity than intra-burst noise.
		toxAlpha = p.ToxAlphaFirst
	}
	st.ToxicityEstimate = sdkmath.MinInt(
		wadmath.Lerp(st.ToxicityEstimate, toxInput, toxAlpha),
		p.ToxCap,
	)

	// Spot above the reference: price discovery is running upward and the
	// informed flow is on the ask side.
	tc.protectAsk = tc.spot.GTE(ref)

	if tc.relSize.GT(p.FlowSignalThreshold) {
		st.FlowSizeEstimate = sdkmath.MinInt(
			wadmath.Lerp(st.FlowSizeEstimate, tc.relSize, p.FlowSizeAlpha),
			wadmath.Wad,
		)

		push := sdkmath.MinInt(
			wadmath.MulWad(tc.relSize, p.DirectionPushCoef),
			p.DirectionPushCap,
		)
		dir := st.DirectionState
		if tc.obs.IsBuy {
			dir = dir.Add(push)
		} else {
			dir = dir.Sub(push)
		}
		st.DirectionState = wadmath.Clamp(dir, wadmath.Zero, wadmath.TwoWad)
	}

	if st.StepTradeCount < p.StepTradeCountCap {
		st.StepTradeCount++
	}
}
