// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/openamm/afe/internal/types"
	"github.com/rs/zerolog/log"
)

const feeParameterColumns = `
	base_fee, min_side_fee, max_fee, max_side_diff, fallback_price,
	decay_per_second, elapsed_cap_seconds, step_trade_count_cap, flow_rate_alpha, flow_rate_cap,
	price_alpha_arb, price_alpha_retail, arb_size_threshold, shock_gate, shock_damp_factor,
	deviation_cap, vol_alpha_first, vol_alpha_follow, vol_cap, use_dual_anchor, slow_anchor_alpha,
	tox_alpha_first, tox_alpha_follow, tox_cap, flow_signal_threshold, flow_size_alpha,
	direction_push_coef, direction_push_cap,
	vol_span, tox_span, flow_rate_span, imbalance_span,
	stress_vol_weight, stress_tox_weight, stress_flow_weight, stress_imbalance_weight,
	conf_vol_weight, conf_tox_weight, conf_flow_weight, conf_min, conf_max,
	use_agreement_gate, agreement_min_signals, vol_gate, tox_gate, flow_gate, imbalance_gate, agreement_damp_factor,
	vol_fee_coef, flow_rate_fee_coef, flow_size_fee_coef, tox_fee_coef,
	tox_quad_coef, tox_knee, tox_quad_cap,
	stress_guard_coef, low_conf_guard_coef, conf_relief_threshold, conf_relief_coef, mid_fee_cap,
	dir_skew_coef, skew_tox_cross_coef, skew_stress_cross_coef, skew_cap,
	adverse_protect_coef, adverse_stress_coef, attract_discount_coef,
	staleness_shift_coef, staleness_conf_scaled,
	slew_up_base, slew_up_stress_coef, slew_down_base, slew_down_conf_coef,
	liq_ceil_base, liq_ceil_stress_coef, liq_ceil_max,
	tail_knee, tail_slope_protect, tail_slope_attract`

// feeParameterArgs flattens a parameter set into placeholder arguments in
// feeParameterColumns order.
func feeParameterArgs(p *types.FeeParameters) []interface{} {
	return []interface{}{
		wadArg(p.BaseFee), wadArg(p.MinSideFee), wadArg(p.MaxFee), wadArg(p.MaxSideDiff), wadArg(p.FallbackPrice),
		wadArg(p.DecayPerSecond), p.ElapsedCapSeconds, p.StepTradeCountCap, wadArg(p.FlowRateAlpha), wadArg(p.FlowRateCap),
		wadArg(p.PriceAlphaArb), wadArg(p.PriceAlphaRetail), wadArg(p.ArbSizeThreshold), wadArg(p.ShockGate), wadArg(p.ShockDampFactor),
		wadArg(p.DeviationCap), wadArg(p.VolAlphaFirst), wadArg(p.VolAlphaFollow), wadArg(p.VolCap), p.UseDualAnchor, wadArg(p.SlowAnchorAlpha),
		wadArg(p.ToxAlphaFirst), wadArg(p.ToxAlphaFollow), wadArg(p.ToxCap), wadArg(p.FlowSignalThreshold), wadArg(p.FlowSizeAlpha),
		wadArg(p.DirectionPushCoef), wadArg(p.DirectionPushCap),
		wadArg(p.VolSpan), wadArg(p.ToxSpan), wadArg(p.FlowRateSpan), wadArg(p.ImbalanceSpan),
		wadArg(p.StressVolWeight), wadArg(p.StressToxWeight), wadArg(p.StressFlowWeight), wadArg(p.StressImbalanceWeight),
		wadArg(p.ConfVolWeight), wadArg(p.ConfToxWeight), wadArg(p.ConfFlowWeight), wadArg(p.ConfMin), wadArg(p.ConfMax),
		p.UseAgreementGate, p.AgreementMinSignals, wadArg(p.VolGate), wadArg(p.ToxGate), wadArg(p.FlowGate), wadArg(p.ImbalanceGate), wadArg(p.AgreementDampFactor),
		wadArg(p.VolFeeCoef), wadArg(p.FlowRateFeeCoef), wadArg(p.FlowSizeFeeCoef), wadArg(p.ToxFeeCoef),
		wadArg(p.ToxQuadCoef), wadArg(p.ToxKnee), wadArg(p.ToxQuadCap),
		wadArg(p.StressGuardCoef), wadArg(p.LowConfGuardCoef), wadArg(p.ConfReliefThreshold), wadArg(p.ConfReliefCoef), wadArg(p.MidFeeCap),
		wadArg(p.DirSkewCoef), wadArg(p.SkewToxCrossCoef), wadArg(p.SkewStressCrossCoef), wadArg(p.SkewCap),
		wadArg(p.AdverseProtectCoef), wadArg(p.AdverseStressCoef), wadArg(p.AttractDiscountCoef),
		wadArg(p.StalenessShiftCoef), p.StalenessConfScaled,
		wadArg(p.SlewUpBase), wadArg(p.SlewUpStressCoef), wadArg(p.SlewDownBase), wadArg(p.SlewDownConfCoef),
		wadArg(p.LiqCeilBase), wadArg(p.LiqCeilStressCoef), wadArg(p.LiqCeilMax),
		wadArg(p.TailKnee), wadArg(p.TailSlopeProtect), wadArg(p.TailSlopeAttract),
	}
}

// feeParameterDests flattens a parameter set into scan destinations in
// feeParameterColumns order.
func feeParameterDests(p *types.FeeParameters) []interface{} {
	return []interface{}{
		wad(&p.BaseFee), wad(&p.MinSideFee), wad(&p.MaxFee), wad(&p.MaxSideDiff), wad(&p.FallbackPrice),
		wad(&p.DecayPerSecond), &p.ElapsedCapSeconds, &p.StepTradeCountCap, wad(&p.FlowRateAlpha), wad(&p.FlowRateCap),
		wad(&p.PriceAlphaArb), wad(&p.PriceAlphaRetail), wad(&p.ArbSizeThreshold), wad(&p.ShockGate), wad(&p.ShockDampFactor),
		wad(&p.DeviationCap), wad(&p.VolAlphaFirst), wad(&p.VolAlphaFollow), wad(&p.VolCap), &p.UseDualAnchor, wad(&p.SlowAnchorAlpha),
		wad(&p.ToxAlphaFirst), wad(&p.ToxAlphaFollow), wad(&p.ToxCap), wad(&p.FlowSignalThreshold), wad(&p.FlowSizeAlpha),
		wad(&p.DirectionPushCoef), wad(&p.DirectionPushCap),
		wad(&p.VolSpan), wad(&p.ToxSpan), wad(&p.FlowRateSpan), wad(&p.ImbalanceSpan),
		wad(&p.StressVolWeight), wad(&p.StressToxWeight), wad(&p.StressFlowWeight), wad(&p.StressImbalanceWeight),
		wad(&p.ConfVolWeight), wad(&p.ConfToxWeight), wad(&p.ConfFlowWeight), wad(&p.ConfMin), wad(&p.ConfMax),
		&p.UseAgreementGate, &p.AgreementMinSignals, wad(&p.VolGate), wad(&p.ToxGate), wad(&p.FlowGate), wad(&p.ImbalanceGate), wad(&p.AgreementDampFactor),
		wad(&p.VolFeeCoef), wad(&p.FlowRateFeeCoef), wad(&p.FlowSizeFeeCoef), wad(&p.ToxFeeCoef),
		wad(&p.ToxQuadCoef), wad(&p.ToxKnee), wad(&p.ToxQuadCap),
		wad(&p.StressGuardCoef), wad(&p.LowConfGuardCoef), wad(&p.ConfReliefThreshold), wad(&p.ConfReliefCoef), wad(&p.MidFeeCap),
		wad(&p.DirSkewCoef), wad(&p.SkewToxCrossCoef), wad(&p.SkewStressCrossCoef), wad(&p.SkewCap),
		wad(&p.AdverseProtectCoef), wad(&p.AdverseStressCoef), wad(&p.AttractDiscountCoef),
		wad(&p.StalenessShiftCoef), &p.StalenessConfScaled,
		wad(&p.SlewUpBase), wad(&p.SlewUpStressCoef), wad(&p.SlewDownBase), wad(&p.SlewDownConfCoef),
		wad(&p.LiqCeilBase), wad(&p.LiqCeilStressCoef), wad(&p.LiqCeilMax),
		wad(&p.TailKnee), wad(&p.TailSlopeProtect), wad(&p.TailSlopeAttract),
	}
}

// SaveFeeParameters inserts a new version of a named parameter set, marks it
// active, and deactivates the previous active version in the same transaction.
// Returns the new params_id.
func SaveFeeParameters(p *types.FeeParameters, configName string) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var nextVersion int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM fee_parameters WHERE config_name = $1`,
		configName,
	).Scan(&nextVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to determine next parameter version: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE fee_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE`,
		configName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate previous parameters: %w", err)
	}

	placeholders := ""
	for i := 1; i <= 82; i++ {
		if i > 1 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i)
	}
	insertSQL := fmt.Sprintf(
		`INSERT INTO fee_parameters (config_name, version, is_active, %s) VALUES (%s) RETURNING params_id`,
		feeParameterColumns, placeholders,
	)

	args := append([]interface{}{configName, nextVersion, true}, feeParameterArgs(p)...)

	var paramsID int64
	err = tx.QueryRow(insertSQL, args...).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fee parameters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit parameter save: %w", err)
	}

	log.Info().
		Int64("params_id", paramsID).
		Str("config_name", configName).
		Int("version", nextVersion).
		Msg("Saved new active fee parameter set")
	return paramsID, nil
}

// LoadActiveFeeParameters loads the currently active parameter set for a
// config name. Returns (nil, 0, nil) when no active set exists yet.
func LoadActiveFeeParameters(configName string) (*types.FeeParameters, int64, error) {
	if DB == nil {
		return nil, 0, fmt.Errorf("database not initialized")
	}

	querySQL := fmt.Sprintf(
		`SELECT params_id, %s FROM fee_parameters
		 WHERE config_name = $1 AND is_active = TRUE
		 ORDER BY activated_at DESC LIMIT 1`,
		feeParameterColumns,
	)

	p := &types.FeeParameters{}
	var paramsID int64
	dests := append([]interface{}{&paramsID}, feeParameterDests(p)...)

	err := DB.QueryRow(querySQL, configName).Scan(dests...)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load active fee parameters: %w", err)
	}
	return p, paramsID, nil
}

// GetActiveFeeParametersID returns the params_id of the active set for a
// config name, or 0 when none exists.
func GetActiveFeeParametersID(configName string) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var paramsID int64
	err := DB.QueryRow(
		`SELECT params_id FROM fee_parameters
		 WHERE config_name = $1 AND is_active = TRUE
		 ORDER BY activated_at DESC LIMIT 1`,
		configName,
	).Scan(&paramsID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query active fee parameters id: %w", err)
	}
	return paramsID, nil
}
