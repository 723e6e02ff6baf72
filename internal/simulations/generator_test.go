package simulations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openamm/afe/internal/config"
	"github.com/openamm/afe/internal/engine"
	"github.com/openamm/afe/internal/wadmath"
)

func TestGenerator_SameSeedSameStream(t *testing.T) {
	genA, err := NewGenerator(42, 1_000_000, 1_000_000)
	require.NoError(t, err)
	genB, err := NewGenerator(42, 1_000_000, 1_000_000)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		obsA, errA := genA.Next()
		obsB, errB := genB.Next()
		require.NoError(t, errA)
		require.NoError(t, errB)

		assert.Equal(t, obsA.Timestamp, obsB.Timestamp, "trade %d", i)
		assert.Equal(t, obsA.IsBuy, obsB.IsBuy, "trade %d", i)
		assert.True(t, obsA.TradedAmount.Equal(obsB.TradedAmount), "trade %d", i)
		assert.True(t, obsA.PostTradeReserveA.Equal(obsB.PostTradeReserveA), "trade %d", i)
		assert.True(t, obsA.PostTradeReserveB.Equal(obsB.PostTradeReserveB), "trade %d", i)
	}
}

func TestGenerator_DifferentSeedsDiverge(t *testing.T) {
	genA, err := NewGenerator(1, 1_000_000, 1_000_000)
	require.NoError(t, err)
	genB, err := NewGenerator(2, 1_000_000, 1_000_000)
	require.NoError(t, err)

	diverged := false
	for i := 0; i < 50 && !diverged; i++ {
		obsA, errA := genA.Next()
		obsB, errB := genB.Next()
		require.NoError(t, errA)
		require.NoError(t, errB)
		if obsA.Timestamp != obsB.Timestamp || !obsA.TradedAmount.Equal(obsB.TradedAmount) {
			diverged = true
		}
	}
	assert.True(t, diverged, "different seeds produced identical streams")
}

func TestGenerator_RejectsNonPositiveReserves(t *testing.T) {
	_, err := NewGenerator(1, 0, 1_000_000)
	require.Error(t, err)
	_, err = NewGenerator(1, 1_000_000, -1)
	require.Error(t, err)
}

// The generated stream has to be consumable end to end: monotone timestamps,
// positive reserves, and no observation the engine rejects.
func TestGenerator_StreamFeedsEngineCleanly(t *testing.T) {
	gen, err := NewGenerator(7, 1_000_000, 1_000_000)
	require.NoError(t, err)

	eng, err := engine.New(config.DefaultFeeParameters)
	require.NoError(t, err)
	st, _, err := eng.Initialize(wadmath.Wad.MulRaw(1_000_000), wadmath.Wad.MulRaw(1_000_000))
	require.NoError(t, err)

	lastTS := int64(0)
	for i := 0; i < 500; i++ {
		obs, err := gen.Next()
		require.NoError(t, err, "generation failed at trade %d", i)

		require.GreaterOrEqual(t, obs.Timestamp, lastTS, "timestamps must not run backward")
		lastTS = obs.Timestamp
		require.True(t, obs.PostTradeReserveA.GT(wadmath.Zero))
		require.True(t, obs.PostTradeReserveB.GT(wadmath.Zero))
		require.False(t, obs.TradedAmount.IsNegative())

		st, _, err = eng.OnTrade(st, obs)
		require.NoError(t, err, "engine rejected generated trade %d", i)
	}
	assert.Equal(t, int64(500), gen.Sequence())
}
