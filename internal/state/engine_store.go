// ./internal/state/engine_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/openamm/afe/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveEngineState upserts the full engine state for a pool. The engine
// mutates state in memory only; persisting the whole row at call exit keeps
// each trade's effect all-or-nothing.
func SaveEngineState(poolID types.PoolID, st *types.EngineState) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if st == nil {
		return fmt.Errorf("engine state is nil")
	}

	_, err := DB.Exec(`
		INSERT INTO engine_state (
			pool_id, bid_fee, ask_fee, last_step_timestamp,
			price_reference, price_reference_slow,
			volatility_estimate, toxicity_estimate, flow_rate_estimate, flow_size_estimate,
			direction_state, stress_score, confidence_score, step_trade_count,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, CURRENT_TIMESTAMP)
		ON CONFLICT (pool_id) DO UPDATE SET
			bid_fee = EXCLUDED.bid_fee,
			ask_fee = EXCLUDED.ask_fee,
			last_step_timestamp = EXCLUDED.last_step_timestamp,
			price_reference = EXCLUDED.price_reference,
			price_reference_slow = EXCLUDED.price_reference_slow,
			volatility_estimate = EXCLUDED.volatility_estimate,
			toxicity_estimate = EXCLUDED.toxicity_estimate,
			flow_rate_estimate = EXCLUDED.flow_rate_estimate,
			flow_size_estimate = EXCLUDED.flow_size_estimate,
			direction_state = EXCLUDED.direction_state,
			stress_score = EXCLUDED.stress_score,
			confidence_score = EXCLUDED.confidence_score,
			step_trade_count = EXCLUDED.step_trade_count,
			updated_at = CURRENT_TIMESTAMP`,
		uint64(poolID),
		wadArg(st.BidFee), wadArg(st.AskFee), st.LastStepTimestamp,
		wadArg(st.PriceReference), wadArg(st.PriceReferenceSlow),
		wadArg(st.VolatilityEstimate), wadArg(st.ToxicityEstimate),
		wadArg(st.FlowRateEstimate), wadArg(st.FlowSizeEstimate),
		wadArg(st.DirectionState), wadArg(st.StressScore), wadArg(st.ConfidenceScore),
		st.StepTradeCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save engine state for pool %d: %w", poolID, err)
	}
	return nil
}

// LoadEngineState loads the persisted engine state for a pool. Returns
// (nil, nil) when the pool has never been initialized.
func LoadEngineState(poolID types.PoolID) (*types.EngineState, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	st := &types.EngineState{}
	err := DB.QueryRow(`
		SELECT bid_fee, ask_fee, last_step_timestamp,
		       price_reference, price_reference_slow,
		       volatility_estimate, toxicity_estimate, flow_rate_estimate, flow_size_estimate,
		       direction_state, stress_score, confidence_score, step_trade_count
		FROM engine_state WHERE pool_id = $1`,
		uint64(poolID),
	).Scan(
		wad(&st.BidFee), wad(&st.AskFee), &st.LastStepTimestamp,
		wad(&st.PriceReference), wad(&st.PriceReferenceSlow),
		wad(&st.VolatilityEstimate), wad(&st.ToxicityEstimate),
		wad(&st.FlowRateEstimate), wad(&st.FlowSizeEstimate),
		wad(&st.DirectionState), wad(&st.StressScore), wad(&st.ConfidenceScore),
		&st.StepTradeCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load engine state for pool %d: %w", poolID, err)
	}

	log.Debug().Uint64("pool_id", uint64(poolID)).Msg("Loaded engine state from database")
	return st, nil
}
