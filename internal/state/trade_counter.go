// ./internal/state/trade_counter.go
package state

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetProcessedTradeCount returns the global number of trades processed
// across all runs. The single counter row is seeded by EnsureSchema.
func GetProcessedTradeCount() (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var count int64
	err := DB.QueryRow(`SELECT processed_trades FROM trade_counter WHERE id = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get processed trade count: %w", err)
	}
	return count, nil
}

// AddProcessedTrades atomically adds n to the global trade counter and
// returns the new total.
func AddProcessedTrades(n int64) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if n < 0 {
		return 0, fmt.Errorf("cannot add a negative trade count: %d", n)
	}

	var total int64
	err := DB.QueryRow(`
		UPDATE trade_counter
		SET processed_trades = processed_trades + $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING processed_trades`,
		n,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to update processed trade count: %w", err)
	}

	log.Debug().Int64("added", n).Int64("total", total).Msg("Updated processed trade counter")
	return total, nil
}
