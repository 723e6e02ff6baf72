package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// PoolID is the ID of the pool this engine instance prices.
	PoolID uint64

	// EngineProfile selects the named parameter profile used when no active
	// parameters exist in the database yet.
	EngineProfile string

	// InitialReserveA / InitialReserveB seed the engine state on first run
	// (base-10 integer strings in native token units).
	InitialReserveA string
	InitialReserveB string

	// SimSeed is the RNG seed for the synthetic trade-flow generator.
	SimSeed int64
	// SimTradesPerCycle is how many trades each replay cycle feeds the engine.
	SimTradesPerCycle int
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PoolID, err = getEnvAsUint64("AFE_POOL_ID")
	if err != nil {
		return err
	}

	EngineProfile, err = getEnv("ENGINE_PROFILE")
	if err != nil {
		return err
	}
	if _, err := ProfileByName(EngineProfile); err != nil {
		return err
	}

	InitialReserveA, err = getEnv("INITIAL_RESERVE_A")
	if err != nil {
		return err
	}

	InitialReserveB, err = getEnv("INITIAL_RESERVE_B")
	if err != nil {
		return err
	}

	SimSeed, err = getEnvAsInt64("SIM_SEED")
	if err != nil {
		return err
	}

	simTrades, err := getEnvAsInt64("SIM_TRADES_PER_CYCLE")
	if err != nil {
		return err
	}
	SimTradesPerCycle = int(simTrades)

	log.Debug().
		Uint64("PoolID", PoolID).
		Str("EngineProfile", EngineProfile).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}
