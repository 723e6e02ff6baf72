package simulations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openamm/afe/internal/engine"
	"github.com/openamm/afe/internal/logger"
	"github.com/openamm/afe/internal/metrics"
	"github.com/openamm/afe/internal/state"
	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/utils"
)

// Runner drives the fee engine against a synthetic trade stream, persisting
// state and snapshots after every trade the same way a production host would
// around real swaps.
type Runner struct {
	engine    *engine.Engine
	generator *Generator
	poolID    types.PoolID
	runID     string

	st         types.EngineState
	cycleCount int
	logger     zerolog.Logger
}

// Config holds the dependencies for creating a new Runner instance.
type Config struct {
	Engine    *engine.Engine
	Generator *Generator
	PoolID    types.PoolID
	State     types.EngineState
}

// NewRunner creates a runner with a fresh run ID.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	return &Runner{
		engine:    cfg.Engine,
		generator: cfg.Generator,
		poolID:    cfg.PoolID,
		runID:     uuid.New().String(),
		st:        cfg.State,
		logger:    logger.GetForComponent("replay_runner"),
	}, nil
}

// RunID returns this run's identifier.
func (r *Runner) RunID() string {
	return r.runID
}

// State returns a copy of the current engine state.
func (r *Runner) State() types.EngineState {
	return r.st
}

// RunLoop drives replay cycles at the given interval until the context is
// cancelled.
func (r *Runner) RunLoop(ctx context.Context, interval time.Duration, tradesPerCycle int) {
	r.logger.Info().
		Dur("interval", interval).
		Int("trades_per_cycle", tradesPerCycle).
		Str("run_id", r.runID).
		Msg("Starting replay loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	r.cycleCount++
	r.runCycleLogged(ctx, tradesPerCycle)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Replay loop stopped due to context cancellation")
			return
		case <-ticker.C:
			r.cycleCount++
			r.runCycleLogged(ctx, tradesPerCycle)
		}
	}
}

func (r *Runner) runCycleLogged(ctx context.Context, tradesPerCycle int) {
	r.logger.Info().Int("cycle", r.cycleCount).Msg("Initiating replay cycle")
	if err := r.RunCycle(ctx, tradesPerCycle); err != nil {
		r.logger.Error().Err(err).Int("cycle", r.cycleCount).Msg("Replay cycle failed")
		return
	}
	r.logger.Info().Int("cycle", r.cycleCount).Msg("Replay cycle completed")
}

// RunCycle feeds tradesPerCycle synthetic trades through the engine and
// persists the results.
func (r *Runner) RunCycle(ctx context.Context, tradesPerCycle int) error {
	cycleStart := time.Now()
	processed := int64(0)

	for i := 0; i < tradesPerCycle; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		obs, err := r.generator.Next()
		if err != nil {
			return fmt.Errorf("trade generation failed: %w", err)
		}

		next, quote, err := r.engine.OnTrade(r.st, obs)
		if err != nil {
			metrics.IncTradeError(r.poolID)
			return fmt.Errorf("engine rejected trade %d: %w", r.generator.Sequence(), err)
		}
		if next.LastStepTimestamp != r.st.LastStepTimestamp {
			metrics.IncStepRoll(r.poolID)
		}
		r.st = next
		processed++

		metrics.IncTrade(r.poolID, obs.IsBuy)
		metrics.SetQuote(r.poolID, utils.WadToBps(quote.BidFee), utils.WadToBps(quote.AskFee))

		stress, _ := utils.WadToFloat64(r.st.StressScore)
		confidence, _ := utils.WadToFloat64(r.st.ConfidenceScore)
		metrics.SetScores(r.poolID, stress, confidence)

		if err := state.SaveEngineState(r.poolID, &r.st); err != nil {
			return fmt.Errorf("failed to persist engine state: %w", err)
		}
		r.saveSnapshot(obs, quote)
	}

	if _, err := state.AddProcessedTrades(processed); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to update global trade counter")
	}

	r.logger.Info().
		Int("cycle", r.cycleCount).
		Int64("trades", processed).
		Str("regime", r.generator.Regime().String()).
		Dur("duration", time.Since(cycleStart)).
		Float64("bid_fee_bps", utils.WadToBps(r.st.BidFee)).
		Float64("ask_fee_bps", utils.WadToBps(r.st.AskFee)).
		Msg("Cycle summary")
	return nil
}

// saveSnapshot persists an analytics snapshot; failures are logged but never
// interrupt the replay, snapshots are observability data only.
func (r *Runner) saveSnapshot(obs types.TradeObservation, quote types.FeeQuote) {
	volatility, _ := utils.WadToFloat64(r.st.VolatilityEstimate)
	toxicity, _ := utils.WadToFloat64(r.st.ToxicityEstimate)
	flowRate, _ := utils.WadToFloat64(r.st.FlowRateEstimate)
	flowSize, _ := utils.WadToFloat64(r.st.FlowSizeEstimate)
	direction, _ := utils.WadToFloat64(r.st.DirectionState)
	stress, _ := utils.WadToFloat64(r.st.StressScore)
	confidence, _ := utils.WadToFloat64(r.st.ConfidenceScore)

	snapshot := types.TradeSnapshot{
		RunID:          r.runID,
		PoolID:         r.poolID,
		Sequence:       r.generator.Sequence(),
		TradeTimestamp: obs.Timestamp,
		IsBuy:          obs.IsBuy,
		TradedAmount:   obs.TradedAmount.String(),
		SpotPrice:      r.generator.SpotPrice(),
		BidFeeBps:      utils.WadToBps(quote.BidFee),
		AskFeeBps:      utils.WadToBps(quote.AskFee),
		Signals: types.SignalSnapshot{
			Volatility: volatility,
			Toxicity:   toxicity,
			FlowRate:   flowRate,
			FlowSize:   flowSize,
			Direction:  direction,
			Stress:     stress,
			Confidence: confidence,
		},
	}

	if _, err := state.SaveTradeSnapshot(&snapshot); err != nil {
		r.logger.Warn().Err(err).Int64("sequence", snapshot.Sequence).Msg("Failed to save trade snapshot")
	}
}
