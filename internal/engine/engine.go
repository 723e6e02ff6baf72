/*

This package implements the adaptive fee-pricing control loop for a two-sided
liquidity pool. On every trade it recomputes a bid-side and an ask-side fee
from inferred toxicity, volatility, and order-flow imbalance.

The engine is a pure function of (EngineState, TradeObservation): it mutates a
local copy of the state and returns it alongside the fee quote. If validation
fails, the caller's state is returned untouched; the host's transactional
boundary makes every mutation all-or-nothing. All arithmetic is WAD-scale
integer math; nothing in this package allocates a float.

Side convention: AskFee is charged when a trader buys base from the pool
(lifts the ask), BidFee when a trader sells base to the pool (hits the bid).
Spot above the belief reference means upward price discovery is in progress,
so continued informed flow is expected on the ask side; that side is protected
and the bid side discounted, and symmetrically below the reference.

*/

package engine

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/openamm/afe/internal/logger"
	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

var (
	ErrInvalidParameters  = errors.New("invalid fee parameters")
	ErrInvalidObservation = errors.New("invalid trade observation")
	ErrInvalidState       = errors.New("invalid engine state")
)

// Engine prices one pool. It is stateless between calls; all per-pool state
// travels through EngineState. The host guarantees serialized invocation, so
// the engine needs no synchronization of its own.
type Engine struct {
	params types.FeeParameters
	logger zerolog.Logger
}

// tradeCtx carries per-call derived values between pipeline stages.
type tradeCtx struct {
	obs     types.TradeObservation
	spot    sdkmath.Int // post-trade quote/base price, WAD
	relSize sdkmath.Int // traded amount relative to the base reserve, WAD

	firstOfStep    bool
	impliedPrice   sdkmath.Int
	priceDeviation sdkmath.Int

	agreement  bool // false only when the agreement gate is on and fails
	protectAsk bool // which side receives adverse-selection protection
}

// New creates an Engine for the given parameter set.
func New(params types.FeeParameters) (*Engine, error) {
	if err := validateParameters(params); err != nil {
		return nil, err
	}
	return &Engine{
		params: params,
		logger: logger.GetForComponent("fee_engine"),
	}, nil
}

// Params returns the engine's active parameter set.
func (e *Engine) Params() types.FeeParameters {
	return e.params
}

// Initialize seeds a fresh EngineState from the pool's initial reserves and
// returns the starting fee pair. Called exactly once per pool before any
// trade. A zero reserve on either side falls back to the configured default
// price.
func (e *Engine) Initialize(reserveA, reserveB sdkmath.Int) (types.EngineState, types.FeeQuote, error) {
	if reserveA.IsNil() || reserveB.IsNil() {
		return types.EngineState{}, types.FeeQuote{}, fmt.Errorf("%w: nil initial reserve", ErrInvalidObservation)
	}
	if reserveA.IsNegative() || reserveB.IsNegative() {
		return types.EngineState{}, types.FeeQuote{}, fmt.Errorf("%w: negative initial reserve", ErrInvalidObservation)
	}

	ref := e.params.FallbackPrice
	if reserveA.GT(wadmath.Zero) && reserveB.GT(wadmath.Zero) {
		ref = wadmath.DivWad(reserveA, reserveB)
		if ref.IsZero() {
			// Extreme reserve ratios truncate to zero; the reference must
			// stay strictly positive once seeded.
			ref = e.params.FallbackPrice
		}
	}

	slowRef := wadmath.Zero
	if e.params.UseDualAnchor {
		slowRef = ref
	}

	st := types.EngineState{
		BidFee:             e.params.BaseFee,
		AskFee:             e.params.BaseFee,
		LastStepTimestamp:  0,
		PriceReference:     ref,
		PriceReferenceSlow: slowRef,
		VolatilityEstimate: wadmath.Zero,
		ToxicityEstimate:   wadmath.Zero,
		FlowRateEstimate:   wadmath.Zero,
		FlowSizeEstimate:   wadmath.Zero,
		DirectionState:     wadmath.Wad,
		StressScore:        wadmath.Zero,
		ConfidenceScore:    e.params.ConfMax,
		StepTradeCount:     0,
	}

	e.logger.Info().
		Str("priceReference", ref.String()).
		Str("baseFee", e.params.BaseFee.String()).
		Bool("dualAnchor", e.params.UseDualAnchor).
		Msg("Engine state seeded")

	return st, types.FeeQuote{BidFee: st.BidFee, AskFee: st.AskFee}, nil
}

// OnTrade processes one completed trade and returns the updated state and
// the forward-looking fee pair for the next trade. On any validation error
// the input state is returned unchanged and the call must be rejected by the
// host.
func (e *Engine) OnTrade(st types.EngineState, obs types.TradeObservation) (types.EngineState, types.FeeQuote, error) {
	if err := validateObservation(obs); err != nil {
		return st, types.FeeQuote{}, err
	}
	if err := validateState(st); err != nil {
		return st, types.FeeQuote{}, err
	}

	prevBid, prevAsk := st.BidFee, st.AskFee

	tc := tradeCtx{
		obs:       obs,
		spot:      wadmath.DivWad(obs.PostTradeReserveA, obs.PostTradeReserveB),
		relSize:   sdkmath.MinInt(wadmath.DivWad(obs.TradedAmount, obs.PostTradeReserveB), wadmath.Wad),
		agreement: true,
	}

	e.rollStep(&st, &tc)
	e.updateBelief(&st, &tc)
	e.updateSignals(&st, &tc)
	e.aggregateRisk(&st, &tc)
	bidTarget, askTarget := e.synthesize(&st, &tc)
	bid, ask := e.govern(&st, &tc, prevBid, prevAsk, bidTarget, askTarget)

	st.BidFee = bid
	st.AskFee = ask

	e.logger.Debug().
		Int64("timestamp", obs.Timestamp).
		Bool("isBuy", obs.IsBuy).
		Bool("firstOfStep", tc.firstOfStep).
		Str("spot", tc.spot.String()).
		Str("bidFee", bid.String()).
		Str("askFee", ask.String()).
		Str("stress", st.StressScore.String()).
		Str("confidence", st.ConfidenceScore.String()).
		Msg("Trade processed")

	return st, types.FeeQuote{BidFee: bid, AskFee: ask}, nil
}

func validateObservation(obs types.TradeObservation) error {
	if obs.TradedAmount.IsNil() || obs.PostTradeReserveA.IsNil() || obs.PostTradeReserveB.IsNil() {
		return fmt.Errorf("%w: nil amount or reserve", ErrInvalidObservation)
	}
	if obs.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrInvalidObservation, obs.Timestamp)
	}
	if obs.TradedAmount.IsNegative() {
		return fmt.Errorf("%w: negative traded amount", ErrInvalidObservation)
	}
	if !obs.PostTradeReserveA.GT(wadmath.Zero) || !obs.PostTradeReserveB.GT(wadmath.Zero) {
		return fmt.Errorf("%w: post-trade reserves must be positive", ErrInvalidObservation)
	}
	return nil
}

func validateState(st types.EngineState) error {
	for name, v := range map[string]sdkmath.Int{
		"bid_fee":              st.BidFee,
		"ask_fee":              st.AskFee,
		"price_reference":      st.PriceReference,
		"price_reference_slow": st.PriceReferenceSlow,
		"volatility_estimate":  st.VolatilityEstimate,
		"toxicity_estimate":    st.ToxicityEstimate,
		"flow_rate_estimate":   st.FlowRateEstimate,
		"flow_size_estimate":   st.FlowSizeEstimate,
		"direction_state":      st.DirectionState,
		"stress_score":         st.StressScore,
		"confidence_score":     st.ConfidenceScore,
	} {
		if v.IsNil() {
			return fmt.Errorf("%w: field %s is nil", ErrInvalidState, name)
		}
	}
	if !st.PriceReference.GT(wadmath.Zero) {
		return fmt.Errorf("%w: price reference not seeded", ErrInvalidState)
	}
	return nil
}

func validateParameters(p types.FeeParameters) error {
	// Every fixed-point field must be set and non-negative. A nil Int panics
	// on comparison, so this sweep runs before any relational check below.
	for name, v := range map[string]sdkmath.Int{
		"base_fee":                p.BaseFee,
		"min_side_fee":            p.MinSideFee,
		"max_fee":                 p.MaxFee,
		"max_side_diff":           p.MaxSideDiff,
		"fallback_price":          p.FallbackPrice,
		"decay_per_second":        p.DecayPerSecond,
		"flow_rate_alpha":         p.FlowRateAlpha,
		"flow_rate_cap":           p.FlowRateCap,
		"price_alpha_arb":         p.PriceAlphaArb,
		"price_alpha_retail":      p.PriceAlphaRetail,
		"arb_size_threshold":      p.ArbSizeThreshold,
		"shock_gate":              p.ShockGate,
		"shock_damp_factor":       p.ShockDampFactor,
		"deviation_cap":           p.DeviationCap,
		"vol_alpha_first":         p.VolAlphaFirst,
		"vol_alpha_follow":        p.VolAlphaFollow,
		"vol_cap":                 p.VolCap,
		"slow_anchor_alpha":       p.SlowAnchorAlpha,
		"tox_alpha_first":         p.ToxAlphaFirst,
		"tox_alpha_follow":        p.ToxAlphaFollow,
		"tox_cap":                 p.ToxCap,
		"flow_signal_threshold":   p.FlowSignalThreshold,
		"flow_size_alpha":         p.FlowSizeAlpha,
		"direction_push_coef":     p.DirectionPushCoef,
		"direction_push_cap":      p.DirectionPushCap,
		"vol_span":                p.VolSpan,
		"tox_span":                p.ToxSpan,
		"flow_rate_span":          p.FlowRateSpan,
		"imbalance_span":          p.ImbalanceSpan,
		"stress_vol_weight":       p.StressVolWeight,
		"stress_tox_weight":       p.StressToxWeight,
		"stress_flow_weight":      p.StressFlowWeight,
		"stress_imbalance_weight": p.StressImbalanceWeight,
		"conf_vol_weight":         p.ConfVolWeight,
		"conf_tox_weight":         p.ConfToxWeight,
		"conf_flow_weight":        p.ConfFlowWeight,
		"conf_min":                p.ConfMin,
		"conf_max":                p.ConfMax,
		"vol_gate":                p.VolGate,
		"tox_gate":                p.ToxGate,
		"flow_gate":               p.FlowGate,
		"imbalance_gate":          p.ImbalanceGate,
		"agreement_damp_factor":   p.AgreementDampFactor,
		"vol_fee_coef":            p.VolFeeCoef,
		"flow_rate_fee_coef":      p.FlowRateFeeCoef,
		"flow_size_fee_coef":      p.FlowSizeFeeCoef,
		"tox_fee_coef":            p.ToxFeeCoef,
		"tox_quad_coef":           p.ToxQuadCoef,
		"tox_knee":                p.ToxKnee,
		"tox_quad_cap":            p.ToxQuadCap,
		"stress_guard_coef":       p.StressGuardCoef,
		"low_conf_guard_coef":     p.LowConfGuardCoef,
		"conf_relief_threshold":   p.ConfReliefThreshold,
		"conf_relief_coef":        p.ConfReliefCoef,
		"mid_fee_cap":             p.MidFeeCap,
		"dir_skew_coef":           p.DirSkewCoef,
		"skew_tox_cross_coef":     p.SkewToxCrossCoef,
		"skew_stress_cross_coef":  p.SkewStressCrossCoef,
		"skew_cap":                p.SkewCap,
		"adverse_protect_coef":    p.AdverseProtectCoef,
		"adverse_stress_coef":     p.AdverseStressCoef,
		"attract_discount_coef":   p.AttractDiscountCoef,
		"staleness_shift_coef":    p.StalenessShiftCoef,
		"slew_up_base":            p.SlewUpBase,
		"slew_up_stress_coef":     p.SlewUpStressCoef,
		"slew_down_base":          p.SlewDownBase,
		"slew_down_conf_coef":     p.SlewDownConfCoef,
		"liq_ceil_base":           p.LiqCeilBase,
		"liq_ceil_stress_coef":    p.LiqCeilStressCoef,
		"liq_ceil_max":            p.LiqCeilMax,
		"tail_knee":               p.TailKnee,
		"tail_slope_protect":      p.TailSlopeProtect,
		"tail_slope_attract":      p.TailSlopeAttract,
	} {
		if v.IsNil() {
			return fmt.Errorf("%w: field %s is not set", ErrInvalidParameters, name)
		}
		if v.IsNegative() {
			return fmt.Errorf("%w: field %s is negative", ErrInvalidParameters, name)
		}
	}

	switch {
	case p.MinSideFee.GT(p.BaseFee) || p.BaseFee.GT(p.MaxFee):
		return fmt.Errorf("%w: need 0 <= MinSideFee <= BaseFee <= MaxFee", ErrInvalidParameters)
	case !p.MaxSideDiff.GT(wadmath.Zero):
		return fmt.Errorf("%w: MaxSideDiff must be positive", ErrInvalidParameters)
	case !p.FallbackPrice.GT(wadmath.Zero):
		return fmt.Errorf("%w: FallbackPrice must be positive", ErrInvalidParameters)
	case !p.DecayPerSecond.GT(wadmath.Zero) || p.DecayPerSecond.GT(wadmath.Wad):
		return fmt.Errorf("%w: DecayPerSecond must be in (0, 1]", ErrInvalidParameters)
	case p.ElapsedCapSeconds <= 0 || p.StepTradeCountCap <= 0:
		return fmt.Errorf("%w: step clock caps must be positive", ErrInvalidParameters)
	case !p.VolSpan.GT(wadmath.Zero) || !p.ToxSpan.GT(wadmath.Zero) ||
		!p.FlowRateSpan.GT(wadmath.Zero) || !p.ImbalanceSpan.GT(wadmath.Zero):
		return fmt.Errorf("%w: normalization spans must be positive", ErrInvalidParameters)
	case !p.ConfMin.GT(wadmath.Zero) || p.ConfMin.GT(p.ConfMax) || p.ConfMax.GT(wadmath.Wad):
		return fmt.Errorf("%w: need 0 < ConfMin <= ConfMax <= 1", ErrInvalidParameters)
	case p.TailSlopeProtect.GTE(wadmath.Wad) || p.TailSlopeAttract.GTE(wadmath.Wad):
		return fmt.Errorf("%w: tail slopes must be below 1", ErrInvalidParameters)
	case p.TailSlopeAttract.GT(p.TailSlopeProtect):
		return fmt.Errorf("%w: protect side must compress less than attract side", ErrInvalidParameters)
	case p.UseAgreementGate && p.AgreementMinSignals <= 0:
		return fmt.Errorf("%w: AgreementMinSignals must be positive when the gate is on", ErrInvalidParameters)
	case p.ShockDampFactor.GT(wadmath.Wad) || p.AgreementDampFactor.GT(wadmath.Wad):
		return fmt.Errorf("%w: damp factors must be at most 1", ErrInvalidParameters)
	}

	for _, alpha := range []sdkmath.Int{
		p.PriceAlphaArb, p.PriceAlphaRetail, p.VolAlphaFirst, p.VolAlphaFollow,
		p.ToxAlphaFirst, p.ToxAlphaFollow, p.FlowSizeAlpha, p.FlowRateAlpha,
		p.SlowAnchorAlpha,
	} {
		if alpha.GT(wadmath.Wad) {
			return fmt.Errorf("%w: blend weights must be in [0, 1]", ErrInvalidParameters)
		}
	}

	return nil
}
