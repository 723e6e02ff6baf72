package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// rollStep advances the step clock. On the first trade of a new time bucket
// it applies time-based decay to every rolling estimator, folds the finished
// step's trade count into the flow-rate estimate, and resets the counter.
// Trades at or before LastStepTimestamp are same-step follow-on trades: no
// decay, and the rest of the pipeline uses the smaller follow-on blend
// weights for them.
func (e *Engine) rollStep(st *types.EngineState, tc *tradeCtx) {
	p := e.params

	if tc.obs.Timestamp <= st.LastStepTimestamp {
		tc.firstOfStep = false
		return
	}
	tc.firstOfStep = true

	elapsedRaw := tc.obs.Timestamp - st.LastStepTimestamp
	elapsed := elapsedRaw
	if elapsed > p.ElapsedCapSeconds {
		elapsed = p.ElapsedCapSeconds
	}
	decay := wadmath.PowWad(p.DecayPerSecond, elapsed)

	// Capped EMAs decay toward zero.
	st.VolatilityEstimate = wadmath.MulWad(st.VolatilityEstimate, decay)
	st.ToxicityEstimate = wadmath.MulWad(st.ToxicityEstimate, decay)
	st.FlowSizeEstimate = wadmath.MulWad(st.FlowSizeEstimate, decay)
	st.FlowRateEstimate = wadmath.MulWad(st.FlowRateEstimate, decay)
	st.StressScore = wadmath.MulWad(st.StressScore, decay)

	// Centered signals decay toward their neutral values instead.
	st.DirectionState = wadmath.Clamp(
		decayToward(st.DirectionState, wadmath.Wad, decay),
		wadmath.Zero, wadmath.TwoWad,
	)
	st.ConfidenceScore = wadmath.Clamp(
		decayToward(st.ConfidenceScore, p.ConfMax, decay),
		p.ConfMin, p.ConfMax,
	)

	if st.StepTradeCount > 0 {
		// Truncating integer rate; under-estimates at small counts and short
		// gaps. Existing behavior, kept as-is.
		instRate := sdkmath.NewInt(st.StepTradeCount).Mul(wadmath.Wad).Quo(sdkmath.NewInt(elapsedRaw))
		instRate = sdkmath.MinInt(instRate, p.FlowRateCap)
		st.FlowRateEstimate = sdkmath.MinInt(
			wadmath.Lerp(st.FlowRateEstimate, instRate, p.FlowRateAlpha),
			p.FlowRateCap,
		)
	}

	st.StepTradeCount = 0
	st.LastStepTimestamp = tc.obs.Timestamp
}

// decayToward moves v toward neutral by the complement of decay:
// neutral + (v - neutral) * decay.
func decayToward(v, neutral, decay sdkmath.Int) sdkmath.Int {
	return neutral.Add(wadmath.MulWad(v.Sub(neutral), decay))
}
