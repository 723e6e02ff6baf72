package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/openamm/afe/internal/config"
	"github.com/openamm/afe/internal/engine"
	"github.com/openamm/afe/internal/logger"
	"github.com/openamm/afe/internal/simulations"
	"github.com/openamm/afe/internal/state"
	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/utils"
	"github.com/openamm/afe/internal/web"
)

const (
	LOOP_INTERVAL = 30 * time.Second
)

// main is the entry point for the adaptive fee engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		if err := logger.InitializeWithFile(os.Getenv("LOG_LEVEL"), logFile); err != nil {
			logger.Initialize(os.Getenv("LOG_LEVEL"))
			log.Warn().Err(err).Str("path", logFile).Msg("Could not open log file, logging to console only")
		}
	} else {
		logger.Initialize(os.Getenv("LOG_LEVEL"))
	}
	log.Info().Msg("Adaptive Fee Engine Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load Fee Parameters: prefer the active database set, fall back to the
	// configured profile and persist it as the first version.
	configName := config.EngineProfile
	feeParams, paramsID, err := state.LoadActiveFeeParameters(configName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query active fee parameters")
	}
	if feeParams == nil {
		log.Warn().Str("profile", configName).Msg("No active fee parameters in database, seeding from profile.")
		profileParams, err := config.ProfileByName(configName)
		if err != nil {
			log.Fatal().Err(err).Msg("Unknown engine profile")
		}
		paramsID, err = state.SaveFeeParameters(&profileParams, configName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial fee parameters.")
		}
		feeParams = &profileParams
	}
	log.Info().Int64("params_id", paramsID).Str("profile", configName).Msg("Fee parameters loaded successfully.")

	// Create the engine; parameter validation happens here.
	eng, err := engine.New(*feeParams)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create fee engine")
	}

	// Load or initialize per-pool engine state.
	poolID := types.PoolID(config.PoolID)
	reserveA, err := utils.ParseIntString(config.InitialReserveA)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid INITIAL_RESERVE_A")
	}
	reserveB, err := utils.ParseIntString(config.InitialReserveB)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid INITIAL_RESERVE_B")
	}

	engState, err := state.LoadEngineState(poolID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load engine state")
	}
	var st types.EngineState
	if engState != nil {
		st = *engState
		log.Info().Uint64("pool_id", config.PoolID).Msg("Resuming from persisted engine state.")
	} else {
		var quote types.FeeQuote
		st, quote, err = eng.Initialize(reserveA, reserveB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize engine state")
		}
		if err := state.SaveEngineState(poolID, &st); err != nil {
			log.Fatal().Err(err).Msg("Failed to persist initial engine state")
		}
		log.Info().
			Uint64("pool_id", config.PoolID).
			Float64("bid_fee_bps", utils.WadToBps(quote.BidFee)).
			Float64("ask_fee_bps", utils.WadToBps(quote.AskFee)).
			Msg("Initialized fresh engine state.")
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, poolID, configName)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting fee engine dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 2. Replay Runner Initialization ---
	genReserveA, err := utils.WadToFloat64(reserveA)
	if err != nil || genReserveA <= 0 {
		log.Fatal().Err(err).Msg("Initial quote reserve is not usable by the generator")
	}
	genReserveB, err := utils.WadToFloat64(reserveB)
	if err != nil || genReserveB <= 0 {
		log.Fatal().Err(err).Msg("Initial base reserve is not usable by the generator")
	}

	generator, err := simulations.NewGenerator(config.SimSeed, genReserveA, genReserveB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create trade generator")
	}

	runner, err := simulations.NewRunner(simulations.Config{
		Engine:    eng,
		Generator: generator,
		PoolID:    poolID,
		State:     st,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create replay runner")
	}
	log.Info().Str("run_id", runner.RunID()).Msg("Replay runner created successfully")

	// --- 3. Start Main Loop ---
	log.Info().Str("interval", LOOP_INTERVAL.String()).Msg("Starting replay loop")

	ctx := context.Background()
	runner.RunLoop(ctx, LOOP_INTERVAL, config.SimTradesPerCycle)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
