// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS fee_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

			base_fee NUMERIC(40, 0) NOT NULL, min_side_fee NUMERIC(40, 0) NOT NULL,
			max_fee NUMERIC(40, 0) NOT NULL, max_side_diff NUMERIC(40, 0) NOT NULL,
			fallback_price NUMERIC(40, 0) NOT NULL,

			decay_per_second NUMERIC(40, 0) NOT NULL, elapsed_cap_seconds BIGINT NOT NULL,
			step_trade_count_cap BIGINT NOT NULL,
			flow_rate_alpha NUMERIC(40, 0) NOT NULL, flow_rate_cap NUMERIC(40, 0) NOT NULL,

			price_alpha_arb NUMERIC(40, 0) NOT NULL, price_alpha_retail NUMERIC(40, 0) NOT NULL,
			arb_size_threshold NUMERIC(40, 0) NOT NULL, shock_gate NUMERIC(40, 0) NOT NULL,
			shock_damp_factor NUMERIC(40, 0) NOT NULL, deviation_cap NUMERIC(40, 0) NOT NULL,
			vol_alpha_first NUMERIC(40, 0) NOT NULL, vol_alpha_follow NUMERIC(40, 0) NOT NULL,
			vol_cap NUMERIC(40, 0) NOT NULL,
			use_dual_anchor BOOLEAN NOT NULL, slow_anchor_alpha NUMERIC(40, 0) NOT NULL,

			tox_alpha_first NUMERIC(40, 0) NOT NULL, tox_alpha_follow NUMERIC(40, 0) NOT NULL,
			tox_cap NUMERIC(40, 0) NOT NULL, flow_signal_threshold NUMERIC(40, 0) NOT NULL,
			flow_size_alpha NUMERIC(40, 0) NOT NULL,
			direction_push_coef NUMERIC(40, 0) NOT NULL, direction_push_cap NUMERIC(40, 0) NOT NULL,

			vol_span NUMERIC(40, 0) NOT NULL, tox_span NUMERIC(40, 0) NOT NULL,
			flow_rate_span NUMERIC(40, 0) NOT NULL, imbalance_span NUMERIC(40, 0) NOT NULL,
			stress_vol_weight NUMERIC(40, 0) NOT NULL, stress_tox_weight NUMERIC(40, 0) NOT NULL,
			stress_flow_weight NUMERIC(40, 0) NOT NULL, stress_imbalance_weight NUMERIC(40, 0) NOT NULL,
			conf_vol_weight NUMERIC(40, 0) NOT NULL, conf_tox_weight NUMERIC(40, 0) NOT NULL,
			conf_flow_weight NUMERIC(40, 0) NOT NULL,
			conf_min NUMERIC(40, 0) NOT NULL, conf_max NUMERIC(40, 0) NOT NULL,
			use_agreement_gate BOOLEAN NOT NULL, agreement_min_signals INTEGER NOT NULL,
			vol_gate NUMERIC(40, 0) NOT NULL, tox_gate NUMERIC(40, 0) NOT NULL,
			flow_gate NUMERIC(40, 0) NOT NULL, imbalance_gate NUMERIC(40, 0) NOT NULL,
			agreement_damp_factor NUMERIC(40, 0) NOT NULL,

			vol_fee_coef NUMERIC(40, 0) NOT NULL, flow_rate_fee_coef NUMERIC(40, 0) NOT NULL,
			flow_size_fee_coef NUMERIC(40, 0) NOT NULL, tox_fee_coef NUMERIC(40, 0) NOT NULL,
			tox_quad_coef NUMERIC(40, 0) NOT NULL, tox_knee NUMERIC(40, 0) NOT NULL,
			tox_quad_cap NUMERIC(40, 0) NOT NULL,
			stress_guard_coef NUMERIC(40, 0) NOT NULL, low_conf_guard_coef NUMERIC(40, 0) NOT NULL,
			conf_relief_threshold NUMERIC(40, 0) NOT NULL, conf_relief_coef NUMERIC(40, 0) NOT NULL,
			mid_fee_cap NUMERIC(40, 0) NOT NULL,
			dir_skew_coef NUMERIC(40, 0) NOT NULL, skew_tox_cross_coef NUMERIC(40, 0) NOT NULL,
			skew_stress_cross_coef NUMERIC(40, 0) NOT NULL, skew_cap NUMERIC(40, 0) NOT NULL,
			adverse_protect_coef NUMERIC(40, 0) NOT NULL, adverse_stress_coef NUMERIC(40, 0) NOT NULL,
			attract_discount_coef NUMERIC(40, 0) NOT NULL,
			staleness_shift_coef NUMERIC(40, 0) NOT NULL, staleness_conf_scaled BOOLEAN NOT NULL,

			slew_up_base NUMERIC(40, 0) NOT NULL, slew_up_stress_coef NUMERIC(40, 0) NOT NULL,
			slew_down_base NUMERIC(40, 0) NOT NULL, slew_down_conf_coef NUMERIC(40, 0) NOT NULL,
			liq_ceil_base NUMERIC(40, 0) NOT NULL, liq_ceil_stress_coef NUMERIC(40, 0) NOT NULL,
			liq_ceil_max NUMERIC(40, 0) NOT NULL,
			tail_knee NUMERIC(40, 0) NOT NULL, tail_slope_protect NUMERIC(40, 0) NOT NULL,
			tail_slope_attract NUMERIC(40, 0) NOT NULL,

			CONSTRAINT uq_fee_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_fee_parameters_config_active_timestamp ON fee_parameters(config_name, is_active, activated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_fee_parameters_config_timestamp ON fee_parameters(config_name, activated_at DESC);

		-- One row per pool; every field is read in full at call entry and
		-- written in full at call exit.
		CREATE TABLE IF NOT EXISTS engine_state (
			pool_id BIGINT PRIMARY KEY,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			bid_fee NUMERIC(40, 0) NOT NULL,
			ask_fee NUMERIC(40, 0) NOT NULL,
			last_step_timestamp BIGINT NOT NULL,
			price_reference NUMERIC(40, 0) NOT NULL,
			price_reference_slow NUMERIC(40, 0) NOT NULL,
			volatility_estimate NUMERIC(40, 0) NOT NULL,
			toxicity_estimate NUMERIC(40, 0) NOT NULL,
			flow_rate_estimate NUMERIC(40, 0) NOT NULL,
			flow_size_estimate NUMERIC(40, 0) NOT NULL,
			direction_state NUMERIC(40, 0) NOT NULL,
			stress_score NUMERIC(40, 0) NOT NULL,
			confidence_score NUMERIC(40, 0) NOT NULL,
			step_trade_count BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS trade_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL,
			pool_id BIGINT NOT NULL,
			sequence BIGINT NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

			trade_timestamp BIGINT NOT NULL,
			is_buy BOOLEAN NOT NULL,
			traded_amount NUMERIC(40, 0) NOT NULL,
			spot_price DOUBLE PRECISION NOT NULL,

			bid_fee_bps DOUBLE PRECISION NOT NULL,
			ask_fee_bps DOUBLE PRECISION NOT NULL,
			signals JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_trade_snapshots_timestamp ON trade_snapshots(snapshot_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_trade_snapshots_pool_id ON trade_snapshots(pool_id);
		CREATE INDEX IF NOT EXISTS idx_trade_snapshots_run_id ON trade_snapshots(run_id);

		-- Trade counter table for persistent global trade tracking
		CREATE TABLE IF NOT EXISTS trade_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			processed_trades BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO trade_counter (id, processed_trades)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
