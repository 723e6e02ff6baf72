// ./internal/state/analytics.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openamm/afe/internal/types"
)

// FeeSummary is the dashboard's headline view of one pool: the current quote
// and the aggregate scores behind it.
type FeeSummary struct {
	PoolID        types.PoolID `json:"pool_id"`
	BidFeeBps     float64      `json:"bid_fee_bps"`
	AskFeeBps     float64      `json:"ask_fee_bps"`
	SpreadBps     float64      `json:"spread_bps"`
	Stress        float64      `json:"stress"`
	Confidence    float64      `json:"confidence"`
	TotalTrades   int64        `json:"total_trades"`
	LastTradeTime time.Time    `json:"last_trade_time"`
}

// PerformanceMetrics aggregates snapshot history for the dashboard.
type PerformanceMetrics struct {
	WindowTrades  int64   `json:"window_trades"`
	AvgBidFeeBps  float64 `json:"avg_bid_fee_bps"`
	AvgAskFeeBps  float64 `json:"avg_ask_fee_bps"`
	MaxAskFeeBps  float64 `json:"max_ask_fee_bps"`
	MinBidFeeBps  float64 `json:"min_bid_fee_bps"`
	AvgSpreadBps  float64 `json:"avg_spread_bps"`
	BuyTrades     int64   `json:"buy_trades"`
	SellTrades    int64   `json:"sell_trades"`
}

// GetRecentTrades returns the most recent trade snapshots, newest first.
func GetRecentTrades(limit int) ([]types.TradeSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT snapshot_id, run_id, pool_id, sequence, snapshot_timestamp,
		       trade_timestamp, is_buy, traded_amount, spot_price,
		       bid_fee_bps, ask_fee_bps, signals
		FROM trade_snapshots
		ORDER BY snapshot_timestamp DESC, snapshot_id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	defer rows.Close()

	var trades []types.TradeSnapshot
	for rows.Next() {
		var ts types.TradeSnapshot
		var poolID uint64
		var signalsJSON []byte
		err := rows.Scan(
			&ts.SnapshotID, &ts.RunID, &poolID, &ts.Sequence, &ts.Timestamp,
			&ts.TradeTimestamp, &ts.IsBuy, &ts.TradedAmount, &ts.SpotPrice,
			&ts.BidFeeBps, &ts.AskFeeBps, &signalsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade snapshot row: %w", err)
		}
		ts.PoolID = types.PoolID(poolID)
		if len(signalsJSON) > 0 {
			if err := json.Unmarshal(signalsJSON, &ts.Signals); err != nil {
				return nil, fmt.Errorf("failed to unmarshal signal snapshot: %w", err)
			}
		}
		trades = append(trades, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade snapshot rows: %w", err)
	}
	return trades, nil
}

// GetFeeSummary builds the headline view for one pool from the latest
// snapshot plus the global trade counter. Returns (nil, nil) when the pool
// has no snapshots yet.
func GetFeeSummary(poolID types.PoolID) (*FeeSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	summary := &FeeSummary{PoolID: poolID}
	var signalsJSON []byte
	err := DB.QueryRow(`
		SELECT bid_fee_bps, ask_fee_bps, snapshot_timestamp, signals
		FROM trade_snapshots
		WHERE pool_id = $1
		ORDER BY snapshot_timestamp DESC, snapshot_id DESC
		LIMIT 1`,
		uint64(poolID),
	).Scan(&summary.BidFeeBps, &summary.AskFeeBps, &summary.LastTradeTime, &signalsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot for pool %d: %w", poolID, err)
	}
	summary.SpreadBps = summary.AskFeeBps - summary.BidFeeBps
	if summary.SpreadBps < 0 {
		summary.SpreadBps = -summary.SpreadBps
	}

	if len(signalsJSON) > 0 {
		var signals types.SignalSnapshot
		if err := json.Unmarshal(signalsJSON, &signals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signal snapshot: %w", err)
		}
		summary.Stress = signals.Stress
		summary.Confidence = signals.Confidence
	}

	total, err := GetProcessedTradeCount()
	if err != nil {
		return nil, err
	}
	summary.TotalTrades = total

	return summary, nil
}

// GetPerformanceMetrics aggregates the last windowSize snapshots for a pool.
func GetPerformanceMetrics(poolID types.PoolID, windowSize int) (*PerformanceMetrics, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if windowSize <= 0 {
		windowSize = 500
	}

	metrics := &PerformanceMetrics{}
	err := DB.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(AVG(bid_fee_bps), 0),
		       COALESCE(AVG(ask_fee_bps), 0),
		       COALESCE(MAX(ask_fee_bps), 0),
		       COALESCE(MIN(bid_fee_bps), 0),
		       COALESCE(AVG(ask_fee_bps - bid_fee_bps), 0),
		       COALESCE(SUM(CASE WHEN is_buy THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_buy THEN 0 ELSE 1 END), 0)
		FROM (
			SELECT bid_fee_bps, ask_fee_bps, is_buy
			FROM trade_snapshots
			WHERE pool_id = $1
			ORDER BY snapshot_timestamp DESC, snapshot_id DESC
			LIMIT $2
		) window_snapshots`,
		uint64(poolID), windowSize,
	).Scan(
		&metrics.WindowTrades,
		&metrics.AvgBidFeeBps, &metrics.AvgAskFeeBps,
		&metrics.MaxAskFeeBps, &metrics.MinBidFeeBps,
		&metrics.AvgSpreadBps,
		&metrics.BuyTrades, &metrics.SellTrades,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate performance metrics for pool %d: %w", poolID, err)
	}
	return metrics, nil
}
