package simulations

import (
	"fmt"
	"math/rand"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/utils"
)

// MarketRegime selects the statistical shape of generated order flow.
type MarketRegime int

const (
	RegimeCalm MarketRegime = iota
	RegimeTrending
	RegimeVolatile
	RegimeToxic
)

func (r MarketRegime) String() string {
	switch r {
	case RegimeCalm:
		return "calm"
	case RegimeTrending:
		return "trending"
	case RegimeVolatile:
		return "volatile"
	case RegimeToxic:
		return "toxic"
	default:
		return "unknown"
	}
}

// Generator produces a deterministic synthetic trade stream against a
// constant-product pool. Floating point is fine here: the generator is a
// host-side test harness, and every observation crosses into the engine as
// exact integers.
type Generator struct {
	rng *rand.Rand

	reserveA float64 // quote
	reserveB float64 // base

	regime       MarketRegime
	regimeTrades int

	clock    int64
	sequence int64
}

// NewGenerator seeds a generator with initial pool reserves in WAD units.
func NewGenerator(seed int64, initialReserveA, initialReserveB float64) (*Generator, error) {
	if initialReserveA <= 0 || initialReserveB <= 0 {
		return nil, fmt.Errorf("initial reserves must be positive, got A=%f B=%f", initialReserveA, initialReserveB)
	}

	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		reserveA: initialReserveA,
		reserveB: initialReserveB,
		regime:   RegimeCalm,
		clock:    1_700_000_000, // arbitrary fixed epoch so runs with equal seeds line up
	}, nil
}

// Regime returns the current market regime.
func (g *Generator) Regime() MarketRegime {
	return g.regime
}

// SpotPrice returns the current quote-per-base pool price.
func (g *Generator) SpotPrice() float64 {
	return g.reserveA / g.reserveB
}

// Next produces the next trade observation and settles it against the pool.
func (g *Generator) Next() (types.TradeObservation, error) {
	g.maybeRotateRegime()

	gapSeconds, sizeFrac, buyBias := g.regimeShape()
	g.clock += gapSeconds
	g.sequence++

	isBuy := g.rng.Float64() < buyBias
	amount := g.reserveB * sizeFrac

	// Constant-product settlement. Buys remove base; sells add it. The quote
	// reserve follows from the invariant.
	k := g.reserveA * g.reserveB
	if isBuy {
		g.reserveB -= amount
	} else {
		g.reserveB += amount
	}
	if g.reserveB <= 0 {
		return types.TradeObservation{}, fmt.Errorf("generated trade drained the base reserve")
	}
	g.reserveA = k / g.reserveB

	tradedAmount, err := utils.Float64ToWad(amount)
	if err != nil {
		return types.TradeObservation{}, fmt.Errorf("failed to convert traded amount: %w", err)
	}
	postA, err := utils.Float64ToWad(g.reserveA)
	if err != nil {
		return types.TradeObservation{}, fmt.Errorf("failed to convert quote reserve: %w", err)
	}
	postB, err := utils.Float64ToWad(g.reserveB)
	if err != nil {
		return types.TradeObservation{}, fmt.Errorf("failed to convert base reserve: %w", err)
	}

	return types.TradeObservation{
		Timestamp:         g.clock,
		IsBuy:             isBuy,
		TradedAmount:      tradedAmount,
		PostTradeReserveA: postA,
		PostTradeReserveB: postB,
	}, nil
}

// Sequence returns the number of trades generated so far.
func (g *Generator) Sequence() int64 {
	return g.sequence
}

// maybeRotateRegime occasionally switches the market regime so a long run
// exercises the engine across flow shapes.
func (g *Generator) maybeRotateRegime() {
	g.regimeTrades++
	if g.regimeTrades < 40 {
		return
	}
	if g.rng.Float64() > 0.15 {
		return
	}
	g.regime = MarketRegime(g.rng.Intn(4))
	g.regimeTrades = 0
}

// regimeShape returns the inter-trade gap, relative trade size, and buy
// probability for the current regime.
func (g *Generator) regimeShape() (gapSeconds int64, sizeFrac, buyBias float64) {
	switch g.regime {
	case RegimeTrending:
		// Persistent one-sided pressure in modest clips.
		return 5 + g.rng.Int63n(26), 0.002 + g.rng.Float64()*0.006, 0.75
	case RegimeVolatile:
		// Rapid-fire bursts with large swings on both sides.
		return 1 + g.rng.Int63n(5), 0.005 + g.rng.Float64()*0.02, 0.5
	case RegimeToxic:
		// Small, informed clips arriving right after quiet gaps. These
		// classify as arbitrage and drag the price reference quickly.
		return 60 + g.rng.Int63n(240), 0.0005 + g.rng.Float64()*0.001, 0.85
	default: // RegimeCalm
		return 20 + g.rng.Int63n(101), 0.0002 + g.rng.Float64()*0.0015, 0.5
	}
}
