package engine

import (
	"encoding/json"
	"reflect"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openamm/afe/internal/config"
	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// testPool settles trades against a constant-product curve so observations
// carry internally consistent reserves. Reserves are WAD-scale integers, the
// same representation the production host supplies.
type testPool struct {
	a sdkmath.Int // quote
	b sdkmath.Int // base
}

func newTestPool() *testPool {
	return &testPool{
		a: wadmath.Wad.MulRaw(1_000_000),
		b: wadmath.Wad.MulRaw(1_000_000),
	}
}

// trade removes (buy) or adds (sell) base and rebalances the quote reserve
// along the invariant.
func (p *testPool) trade(ts int64, isBuy bool, amount sdkmath.Int) types.TradeObservation {
	k := p.a.Mul(p.b)
	if isBuy {
		p.b = p.b.Sub(amount)
	} else {
		p.b = p.b.Add(amount)
	}
	p.a = k.Quo(p.b)
	return types.TradeObservation{
		Timestamp:         ts,
		IsBuy:             isBuy,
		TradedAmount:      amount,
		PostTradeReserveA: p.a,
		PostTradeReserveB: p.b,
	}
}

// baseFrac returns the given fraction of the current base reserve,
// denominator-scaled so tests can say "2% of the pool".
func (p *testPool) baseFrac(numerator, denominator int64) sdkmath.Int {
	return p.b.MulRaw(numerator).QuoRaw(denominator)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(config.DefaultFeeParameters)
	require.NoError(t, err)
	return eng
}

func initState(t *testing.T, eng *Engine, pool *testPool) types.EngineState {
	t.Helper()
	st, quote, err := eng.Initialize(pool.a, pool.b)
	require.NoError(t, err)
	require.True(t, quote.BidFee.Equal(eng.Params().BaseFee))
	require.True(t, quote.AskFee.Equal(eng.Params().BaseFee))
	return st
}

func stateJSON(t *testing.T, st types.EngineState) string {
	t.Helper()
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	return string(raw)
}

func TestInitialize_SeedsReferenceFromReserves(t *testing.T) {
	eng := newTestEngine(t)

	st, _, err := eng.Initialize(wadmath.Wad.MulRaw(2_000_000), wadmath.Wad.MulRaw(1_000_000))
	require.NoError(t, err)

	assert.True(t, st.PriceReference.Equal(wadmath.Wad.MulRaw(2)), "reference should be reserveA/reserveB")
	assert.True(t, st.DirectionState.Equal(wadmath.Wad), "direction should start neutral")
	assert.True(t, st.ConfidenceScore.Equal(eng.Params().ConfMax), "confidence should start at its ceiling")
	assert.True(t, st.StressScore.IsZero())
	assert.Zero(t, st.StepTradeCount)
}

func TestInitialize_ZeroReserveFallsBackToConfiguredPrice(t *testing.T) {
	eng := newTestEngine(t)
	p := eng.Params()

	tests := []struct {
		name string
		a, b sdkmath.Int
	}{
		{"zero quote reserve", wadmath.Zero, wadmath.Wad.MulRaw(1_000_000)},
		{"zero base reserve", wadmath.Wad.MulRaw(1_000_000), wadmath.Zero},
		{"both reserves zero", wadmath.Zero, wadmath.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, quote, err := eng.Initialize(tt.a, tt.b)
			require.NoError(t, err)

			assert.True(t, st.PriceReference.Equal(p.FallbackPrice))
			assert.True(t, quote.BidFee.Equal(p.BaseFee), "empty pool must open at the base fee")
			assert.True(t, quote.AskFee.Equal(p.BaseFee), "empty pool must open at the base fee")
		})
	}
}

func TestOnTrade_RejectsInvalidObservation(t *testing.T) {
	eng := newTestEngine(t)
	pool := newTestPool()
	st := initState(t, eng, pool)
	before := stateJSON(t, st)

	valid := pool.trade(10, true, pool.baseFrac(1, 1000))

	tests := []struct {
		name   string
		mutate func(obs *types.TradeObservation)
	}{
		{"negative timestamp", func(obs *types.TradeObservation) { obs.Timestamp = -1 }},
		{"negative amount", func(obs *types.TradeObservation) { obs.TradedAmount = sdkmath.NewInt(-1) }},
		{"zero quote reserve", func(obs *types.TradeObservation) { obs.PostTradeReserveA = wadmath.Zero }},
		{"zero base reserve", func(obs *types.TradeObservation) { obs.PostTradeReserveB = wadmath.Zero }},
		{"nil amount", func(obs *types.TradeObservation) { obs.TradedAmount = sdkmath.Int{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := valid
			tt.mutate(&obs)

			got, _, err := eng.OnTrade(st, obs)
			require.ErrorIs(t, err, ErrInvalidObservation)
			assert.Equal(t, before, stateJSON(t, got), "state must be untouched on rejection")
		})
	}
}

func TestOnTrade_RejectsUnseededState(t *testing.T) {
	eng := newTestEngine(t)
	pool := newTestPool()
	obs := pool.trade(10, true, pool.baseFrac(1, 1000))

	_, _, err := eng.OnTrade(types.EngineState{}, obs)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestOnTrade_IsDeterministic(t *testing.T) {
	run := func() string {
		eng := newTestEngine(t)
		pool := newTestPool()
		st := initState(t, eng, pool)

		ts := int64(0)
		for i := 0; i < 60; i++ {
			ts += int64(7 + i%40)
			isBuy := i%3 != 0
			amount := pool.baseFrac(int64(1+i%9), 1000)

			var err error
			st, _, err = eng.OnTrade(st, pool.trade(ts, isBuy, amount))
			require.NoError(t, err)
		}
		return stateJSON(t, st)
	}

	assert.Equal(t, run(), run(), "identical inputs must produce identical states")
}

func TestOnTrade_InvariantsHoldThroughMixedFlow(t *testing.T) {
	eng := newTestEngine(t)
	p := eng.Params()
	pool := newTestPool()
	st := initState(t, eng, pool)

	ts := int64(0)
	for i := 0; i < 120; i++ {
		ts += int64(1 + (i*13)%90)
		isBuy := (i*7)%5 < 3
		amount := pool.baseFrac(int64(1+(i*11)%50), 1000)

		var quote types.FeeQuote
		var err error
		st, quote, err = eng.OnTrade(st, pool.trade(ts, isBuy, amount))
		require.NoError(t, err)

		assert.True(t, quote.BidFee.GTE(p.MinSideFee), "bid fee below floor at trade %d", i)
		assert.True(t, quote.AskFee.GTE(p.MinSideFee), "ask fee below floor at trade %d", i)
		assert.True(t, quote.BidFee.LTE(p.MaxFee), "bid fee above ceiling at trade %d", i)
		assert.True(t, quote.AskFee.LTE(p.MaxFee), "ask fee above ceiling at trade %d", i)
		assert.True(t, wadmath.AbsDiff(quote.BidFee, quote.AskFee).LTE(p.MaxSideDiff),
			"bid/ask divergence exceeds bound at trade %d", i)

		assert.True(t, st.PriceReference.GT(wadmath.Zero), "reference lost positivity at trade %d", i)
		assert.True(t, st.StressScore.GTE(wadmath.Zero) && st.StressScore.LTE(wadmath.Wad),
			"stress out of range at trade %d", i)
		assert.True(t, st.ConfidenceScore.GTE(p.ConfMin) && st.ConfidenceScore.LTE(p.ConfMax),
			"confidence out of range at trade %d", i)
		assert.True(t, st.DirectionState.GTE(wadmath.Zero) && st.DirectionState.LTE(wadmath.TwoWad),
			"direction out of range at trade %d", i)
		assert.True(t, st.VolatilityEstimate.LTE(p.VolCap), "volatility above cap at trade %d", i)
		assert.True(t, st.ToxicityEstimate.LTE(p.ToxCap), "toxicity above cap at trade %d", i)
	}
}

func TestQuietBalancedFlow_KeepsFeesNearBase(t *testing.T) {
	eng := newTestEngine(t)
	p := eng.Params()
	pool := newTestPool()
	st := initState(t, eng, pool)

	ts := int64(0)
	var quote types.FeeQuote
	for i := 0; i < 40; i++ {
		ts += 60
		isBuy := i%2 == 0
		amount := pool.baseFrac(1, 2000) // 0.05% of the pool

		var err error
		st, quote, err = eng.OnTrade(st, pool.trade(ts, isBuy, amount))
		require.NoError(t, err)
	}

	tolerance := wadmath.FromBps(5)
	assert.True(t, wadmath.AbsDiff(quote.BidFee, p.BaseFee).LTE(tolerance),
		"quiet flow moved bid fee to %s", quote.BidFee)
	assert.True(t, wadmath.AbsDiff(quote.AskFee, p.BaseFee).LTE(tolerance),
		"quiet flow moved ask fee to %s", quote.AskFee)
	assert.True(t, st.DirectionState.Equal(wadmath.Wad),
		"sub-threshold trades must not move the direction state")
}

func TestSustainedBuyPressure_SkewsQuoteTowardAsk(t *testing.T) {
	eng := newTestEngine(t)
	p := eng.Params()
	pool := newTestPool()
	st := initState(t, eng, pool)

	ts := int64(0)
	var quote types.FeeQuote
	for i := 0; i < 10; i++ {
		ts += 10
		amount := pool.baseFrac(2, 100) // 2% of the pool, every trade a buy

		var err error
		st, quote, err = eng.OnTrade(st, pool.trade(ts, true, amount))
		require.NoError(t, err)
	}

	assert.True(t, st.DirectionState.GT(wadmath.Wad), "one-sided buys must push direction above neutral")
	assert.True(t, st.ToxicityEstimate.GT(wadmath.Zero))
	assert.True(t, st.StressScore.GT(wadmath.Zero))
	assert.True(t, quote.AskFee.GT(p.BaseFee), "ask side must rise under sustained buy pressure")
	assert.True(t, quote.AskFee.GT(quote.BidFee), "quote must skew against the pressured side")
	assert.True(t, wadmath.AbsDiff(quote.BidFee, quote.AskFee).LTE(p.MaxSideDiff))
	assert.True(t, quote.AskFee.LTE(p.MaxFee))
}

func TestSingleShockTrade_RiseIsSlewLimited(t *testing.T) {
	eng := newTestEngine(t)
	p := eng.Params()
	pool := newTestPool()
	st := initState(t, eng, pool)

	// One outsized informed trade. The targets jump but the quoted movement
	// must stay inside the widest possible rise cap.
	st, quote, err := eng.OnTrade(st, pool.trade(10, true, pool.baseFrac(10, 100)))
	require.NoError(t, err)

	maxRise := p.SlewUpBase.Add(p.SlewUpStressCoef) // stress saturates at 1
	assert.True(t, quote.AskFee.Sub(p.BaseFee).LTE(maxRise),
		"ask rose %s in one trade, cap is %s", quote.AskFee.Sub(p.BaseFee), maxRise)
	assert.True(t, quote.BidFee.Sub(p.BaseFee).LTE(maxRise),
		"bid rose %s in one trade, cap is %s", quote.BidFee.Sub(p.BaseFee), maxRise)
	assert.True(t, st.StressScore.GT(wadmath.Zero))
}

func TestQuietGap_DecaysEstimatorsTowardNeutral(t *testing.T) {
	eng := newTestEngine(t)
	pool := newTestPool()
	st := initState(t, eng, pool)

	// Build up pressure with heavy one-sided flow.
	ts := int64(0)
	for i := 0; i < 10; i++ {
		ts += 10
		var err error
		st, _, err = eng.OnTrade(st, pool.trade(ts, true, pool.baseFrac(5, 100)))
		require.NoError(t, err)
	}

	volBefore := st.VolatilityEstimate
	stressBefore := st.StressScore
	dirDistBefore := wadmath.AbsDiff(st.DirectionState, wadmath.Wad)
	require.True(t, dirDistBefore.GT(wadmath.Zero))

	// A single tiny trade after an hour of silence. The elapsed cap bounds
	// the decay window, but everything should still relax noticeably.
	ts += 3600
	st, _, err := eng.OnTrade(st, pool.trade(ts, false, pool.baseFrac(1, 10000)))
	require.NoError(t, err)

	assert.True(t, st.VolatilityEstimate.LT(volBefore), "volatility must relax across a quiet gap")
	assert.True(t, st.StressScore.LT(stressBefore), "stress must relax across a quiet gap")
	assert.True(t, wadmath.AbsDiff(st.DirectionState, wadmath.Wad).LT(dirDistBefore),
		"direction must relax toward neutral across a quiet gap")
}

func TestSameTimestampTrades_ShareOneStep(t *testing.T) {
	eng := newTestEngine(t)
	pool := newTestPool()
	st := initState(t, eng, pool)

	st, _, err := eng.OnTrade(st, pool.trade(100, true, pool.baseFrac(1, 1000)))
	require.NoError(t, err)
	require.Equal(t, int64(100), st.LastStepTimestamp)
	require.Equal(t, int64(1), st.StepTradeCount)

	st, _, err = eng.OnTrade(st, pool.trade(100, false, pool.baseFrac(1, 1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(100), st.LastStepTimestamp, "same-timestamp trade must not roll the step")
	assert.Equal(t, int64(2), st.StepTradeCount)

	// A strictly later trade rolls the step and resets the counter.
	st, _, err = eng.OnTrade(st, pool.trade(160, true, pool.baseFrac(1, 1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(160), st.LastStepTimestamp)
	assert.Equal(t, int64(1), st.StepTradeCount)
}

func TestDualAnchor_SlowReferenceLagsFast(t *testing.T) {
	params, err := config.ProfileByName(config.ProfileDualAnchor)
	require.NoError(t, err)
	eng, err := New(params)
	require.NoError(t, err)

	pool := newTestPool()
	st, _, err := eng.Initialize(pool.a, pool.b)
	require.NoError(t, err)
	initialRef := st.PriceReference
	require.True(t, st.PriceReferenceSlow.Equal(initialRef), "slow anchor must seed with the fast anchor")

	ts := int64(0)
	for i := 0; i < 10; i++ {
		ts += 10
		st, _, err = eng.OnTrade(st, pool.trade(ts, true, pool.baseFrac(2, 100)))
		require.NoError(t, err)
	}

	fastMove := wadmath.AbsDiff(st.PriceReference, initialRef)
	slowMove := wadmath.AbsDiff(st.PriceReferenceSlow, initialRef)
	assert.True(t, slowMove.LT(fastMove),
		"slow anchor moved %s, fast anchor %s; a burst must not drag the slow anchor along", slowMove, fastMove)
}

func TestNew_RejectsBrokenParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *types.FeeParameters)
	}{
		{"base fee above ceiling", func(p *types.FeeParameters) { p.MaxFee = wadmath.FromBps(10) }},
		{"floor above base fee", func(p *types.FeeParameters) { p.MinSideFee = wadmath.FromBps(50) }},
		{"zero side divergence", func(p *types.FeeParameters) { p.MaxSideDiff = wadmath.Zero }},
		{"zero fallback price", func(p *types.FeeParameters) { p.FallbackPrice = wadmath.Zero }},
		{"decay above one", func(p *types.FeeParameters) { p.DecayPerSecond = wadmath.TwoWad }},
		{"zero elapsed cap", func(p *types.FeeParameters) { p.ElapsedCapSeconds = 0 }},
		{"zero span", func(p *types.FeeParameters) { p.VolSpan = wadmath.Zero }},
		{"unset skew cap", func(p *types.FeeParameters) { p.SkewCap = sdkmath.Int{} }},
		{"unset tail slope", func(p *types.FeeParameters) { p.TailSlopeProtect = sdkmath.Int{} }},
		{"negative coefficient", func(p *types.FeeParameters) { p.VolFeeCoef = sdkmath.NewInt(-1) }},
		{"damp factor above one", func(p *types.FeeParameters) { p.ShockDampFactor = wadmath.TwoWad }},
		{"confidence floor above ceiling", func(p *types.FeeParameters) { p.ConfMin = wadmath.TwoWad }},
		{"tail slope at one", func(p *types.FeeParameters) { p.TailSlopeProtect = wadmath.Wad }},
		{"alpha above one", func(p *types.FeeParameters) { p.PriceAlphaArb = wadmath.TwoWad }},
		{"gate without quorum", func(p *types.FeeParameters) {
			p.UseAgreementGate = true
			p.AgreementMinSignals = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := config.DefaultFeeParameters
			tt.mutate(&params)

			_, err := New(params)
			require.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

// A parameter set with any fixed-point field left unset must be rejected at
// construction; letting one through would surface later as a panic mid-trade
// instead of a clean rejection with the caller's state intact.
func TestNew_RejectsEveryUnsetParameterField(t *testing.T) {
	intType := reflect.TypeOf(sdkmath.Int{})
	paramsType := reflect.TypeOf(types.FeeParameters{})

	for i := 0; i < paramsType.NumField(); i++ {
		field := paramsType.Field(i)
		if field.Type != intType {
			continue
		}
		t.Run(field.Name, func(t *testing.T) {
			params := config.DefaultFeeParameters
			reflect.ValueOf(&params).Elem().Field(i).Set(reflect.Zero(intType))

			_, err := New(params)
			require.ErrorIs(t, err, ErrInvalidParameters,
				"unset %s must fail construction", field.Name)
		})
	}
}
