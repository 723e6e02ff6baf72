// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/openamm/afe/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveTradeSnapshot persists one processed trade for analytics and the
// dashboard. Returns the new snapshot_id.
func SaveTradeSnapshot(ts *types.TradeSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if ts == nil {
		return 0, fmt.Errorf("trade snapshot is nil")
	}

	signalsJSON, err := json.Marshal(ts.Signals)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal signal snapshot: %w", err)
	}

	var snapshotID int64
	err = DB.QueryRow(`
		INSERT INTO trade_snapshots (
			run_id, pool_id, sequence,
			trade_timestamp, is_buy, traded_amount, spot_price,
			bid_fee_bps, ask_fee_bps, signals
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id`,
		ts.RunID, uint64(ts.PoolID), ts.Sequence,
		ts.TradeTimestamp, ts.IsBuy, ts.TradedAmount, ts.SpotPrice,
		ts.BidFeeBps, ts.AskFeeBps, signalsJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save trade snapshot: %w", err)
	}

	log.Debug().
		Int64("snapshot_id", snapshotID).
		Str("run_id", ts.RunID).
		Int64("sequence", ts.Sequence).
		Msg("Saved trade snapshot")
	return snapshotID, nil
}
