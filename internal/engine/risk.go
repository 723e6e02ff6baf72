package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// aggregateRisk folds the estimator bank into the bounded stress and
// confidence scores. Each signal is normalized against its own span and
// saturates at 1.0 before combination, so no single estimator can dominate
// through sheer magnitude. Confidence is the floored complement of a
// separately-weighted penalty sum.
func (e *Engine) aggregateRisk(st *types.EngineState, tc *tradeCtx) {
	p := e.params

	volNorm := normalize(st.VolatilityEstimate, p.VolSpan)
	toxNorm := normalize(st.ToxicityEstimate, p.ToxSpan)
	rateNorm := normalize(st.FlowRateEstimate, p.FlowRateSpan)
	imbalance := wadmath.AbsDiff(st.DirectionState, wadmath.Wad)
	imbNorm := normalize(imbalance, p.ImbalanceSpan)

	stress := wadmath.MulWad(p.StressVolWeight, volNorm).
		Add(wadmath.MulWad(p.StressToxWeight, toxNorm)).
		Add(wadmath.MulWad(p.StressFlowWeight, rateNorm)).
		Add(wadmath.MulWad(p.StressImbalanceWeight, imbNorm))
	st.StressScore = wadmath.Clamp(stress, wadmath.Zero, wadmath.Wad)

	penalty := wadmath.MulWad(p.ConfVolWeight, volNorm).
		Add(wadmath.MulWad(p.ConfToxWeight, toxNorm)).
		Add(wadmath.MulWad(p.ConfFlowWeight, rateNorm))
	st.ConfidenceScore = wadmath.Clamp(
		wadmath.SubOrZero(wadmath.Wad, penalty),
		p.ConfMin, p.ConfMax,
	)

	if p.UseAgreementGate {
		count := 0
		if st.VolatilityEstimate.GT(p.VolGate) {
			count++
		}
		if st.ToxicityEstimate.GT(p.ToxGate) {
			count++
		}
		if st.FlowSizeEstimate.GT(p.FlowGate) {
			count++
		}
		if imbalance.GT(p.ImbalanceGate) {
			count++
		}
		tc.agreement = count >= p.AgreementMinSignals
	}
}

// normalize divides v by its span, saturating at Wad.
func normalize(v, span sdkmath.Int) sdkmath.Int {
	return sdkmath.MinInt(wadmath.DivWad(v, span), wadmath.Wad)
}
