package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// updateBelief maintains the fair-price anchors and the volatility estimate.
//
// The raw spot observation is distorted by the fee that was charged on the
// executing side; dividing it back out gives the price the trader actually
// accepted. The anchor then blends toward that implied price with a weight
// that depends on how the trade is classified: small first-of-step trades
// look like arbitrage closing a gap (converge fast), everything else looks
// like retail (resist single-trade manipulation), and deviations past the
// shock gate are damped regardless so one outsized print cannot snap the
// belief.
func (e *Engine) updateBelief(st *types.EngineState, tc *tradeCtx) {
	p := e.params

	feeCharged := st.BidFee
	if tc.obs.IsBuy {
		feeCharged = st.AskFee
	}
	discount := wadmath.SubOrZero(wadmath.Wad, feeCharged)

	var implied sdkmath.Int
	if tc.obs.IsBuy {
		// Fee inflated the effective buy price: implied = spot / (1 - fee).
		implied = wadmath.Ratio(tc.spot, discount, tc.spot)
	} else {
		// Fee deflated the effective sell price: implied = spot * (1 - fee).
		implied = wadmath.MulWad(tc.spot, discount)
	}
	if implied.IsZero() {
		implied = tc.spot
	}
	tc.impliedPrice = implied

	deviation := sdkmath.MinInt(
		wadmath.DivWad(wadmath.AbsDiff(implied, st.PriceReference), st.PriceReference),
		p.DeviationCap,
	)
	tc.priceDeviation = deviation

	weight := p.PriceAlphaRetail
	if tc.firstOfStep && tc.relSize.LT(p.ArbSizeThreshold) {
		weight = p.PriceAlphaArb
	}
	if deviation.GT(p.ShockGate) {
		weight = wadmath.MulWad(weight, p.ShockDampFactor)
	}

	st.PriceReference = wadmath.Lerp(st.PriceReference, implied, weight)
	if !st.PriceReference.GT(wadmath.Zero) {
		st.PriceReference = implied
	}

	if p.UseDualAnchor {
		slowWeight := p.SlowAnchorAlpha
		if deviation.GT(p.ShockGate) {
			slowWeight = wadmath.MulWad(slowWeight, p.ShockDampFactor)
		}
		if st.PriceReferenceSlow.IsZero() {
			st.PriceReferenceSlow = implied
		} else {
			st.PriceReferenceSlow = wadmath.Lerp(st.PriceReferenceSlow, implied, slowWeight)
		}
	}

	volAlpha := p.VolAlphaFollow
	if tc.firstOfStep {
		volAlpha = p.VolAlphaFirst
	}
	st.VolatilityEstimate = sdkmath.MinInt(
		wadmath.Lerp(st.VolatilityEstimate, deviation, volAlpha),
		p.VolCap,
	)
}

// toxicityReference returns the anchor toxicity is measured against: the slow
// anchor when dual anchors are active (a burst cannot drag it along), the
// fast anchor otherwise.
func (e *Engine) toxicityReference(st *types.EngineState) sdkmath.Int {
	if e.params.UseDualAnchor && st.PriceReferenceSlow.GT(wadmath.Zero) {
		return st.PriceReferenceSlow
	}
	return st.PriceReference
}
