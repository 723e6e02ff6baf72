package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/config"
	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

func bps(n int64) sdkmath.Int { return wadmath.FromBps(n) }

func TestSlew(t *testing.T) {
	tests := []struct {
		name         string
		prev, target sdkmath.Int
		want         sdkmath.Int
	}{
		{"rise within cap", bps(30), bps(33), bps(33)},
		{"rise clipped", bps(30), bps(100), bps(35)},
		{"fall within cap", bps(30), bps(28), bps(28)},
		{"fall clipped", bps(30), bps(5), bps(27)},
		{"no movement", bps(30), bps(30), bps(30)},
	}
	upCap, downCap := bps(5), bps(3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slew(tt.prev, tt.target, upCap, downCap); !got.Equal(tt.want) {
				t.Errorf("slew(%s -> %s) = %s, want %s", tt.prev, tt.target, got, tt.want)
			}
		})
	}
}

func TestBindSpread(t *testing.T) {
	maxDiff := bps(100)

	// Within the bound: untouched.
	bid, ask := bindSpread(bps(30), bps(90), maxDiff)
	if !bid.Equal(bps(30)) || !ask.Equal(bps(90)) {
		t.Errorf("bindSpread within bound moved fees to (%s, %s)", bid, ask)
	}

	// Ask too far above bid: ask is pulled down, bid holds.
	bid, ask = bindSpread(bps(30), bps(250), maxDiff)
	if !bid.Equal(bps(30)) || !ask.Equal(bps(130)) {
		t.Errorf("bindSpread got (%s, %s), want (30, 130) bps", bid, ask)
	}

	// Symmetric case with bid above ask.
	bid, ask = bindSpread(bps(250), bps(30), maxDiff)
	if !bid.Equal(bps(130)) || !ask.Equal(bps(30)) {
		t.Errorf("bindSpread got (%s, %s), want (130, 30) bps", bid, ask)
	}
}

func TestCompressTail(t *testing.T) {
	knee := bps(150)
	slope := wadmath.Wad.MulRaw(7).QuoRaw(10) // 0.7

	// Below the knee: identity.
	if got := compressTail(bps(100), knee, slope); !got.Equal(bps(100)) {
		t.Errorf("compressTail below knee = %s, want 100 bps", got)
	}
	if got := compressTail(knee, knee, slope); !got.Equal(knee) {
		t.Errorf("compressTail at knee = %s, want the knee", got)
	}

	// Above the knee: excess scaled by the slope. 150 + 0.7*100 = 220.
	if got := compressTail(bps(250), knee, slope); !got.Equal(bps(220)) {
		t.Errorf("compressTail(250) = %s, want 220 bps", got)
	}
}

// FuzzGovernBounds drives the governor with arbitrary prior fees, raw targets,
// and risk scores and checks its postconditions: both sides inside
// [MinSideFee, MaxFee], divergence within MaxSideDiff, and any rise from the
// prior quote inside the stress-widened slew cap.
func FuzzGovernBounds(f *testing.F) {
	// Seed corpus: calm quote with a runaway target, inverted quote, saturated
	// stress, and a collapse toward the floor.
	f.Add(uint64(30), uint64(30), uint64(300), uint64(10), uint64(0), uint64(1000), true)
	f.Add(uint64(300), uint64(5), uint64(99_999), uint64(1), uint64(1000), uint64(250), false)
	f.Add(uint64(150), uint64(150), uint64(150), uint64(150), uint64(500), uint64(500), true)
	f.Add(uint64(5), uint64(5), uint64(0), uint64(0), uint64(0), uint64(1000), false)

	p := config.DefaultFeeParameters
	eng, err := New(p)
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, prevBidRaw, prevAskRaw, bidTargetRaw, askTargetRaw, stressRaw, confRaw uint64, protectAsk bool) {
		// Prior fees mirror a real prior quote: clamped and spread-bound.
		prevBid := wadmath.Clamp(bps(int64(prevBidRaw%1000)), p.MinSideFee, p.MaxFee)
		prevAsk := wadmath.Clamp(bps(int64(prevAskRaw%1000)), p.MinSideFee, p.MaxFee)
		prevBid, prevAsk = bindSpread(prevBid, prevAsk, p.MaxSideDiff)

		// Targets are deliberately unconstrained, including far above MaxFee.
		bidTarget := bps(int64(bidTargetRaw % 100_000))
		askTarget := bps(int64(askTargetRaw % 100_000))

		stress := wadmath.Wad.MulRaw(int64(stressRaw % 1001)).QuoRaw(1000)
		conf := wadmath.Clamp(wadmath.Wad.MulRaw(int64(confRaw%1001)).QuoRaw(1000), p.ConfMin, p.ConfMax)

		st := types.EngineState{StressScore: stress, ConfidenceScore: conf}
		tc := tradeCtx{protectAsk: protectAsk}

		bid, ask := eng.govern(&st, &tc, prevBid, prevAsk, bidTarget, askTarget)

		if bid.LT(p.MinSideFee) || bid.GT(p.MaxFee) {
			t.Fatalf("bid %s escaped [%s, %s]", bid, p.MinSideFee, p.MaxFee)
		}
		if ask.LT(p.MinSideFee) || ask.GT(p.MaxFee) {
			t.Fatalf("ask %s escaped [%s, %s]", ask, p.MinSideFee, p.MaxFee)
		}
		if wadmath.AbsDiff(bid, ask).GT(p.MaxSideDiff) {
			t.Fatalf("divergence |%s - %s| exceeds %s", bid, ask, p.MaxSideDiff)
		}

		riseCap := p.SlewUpBase.Add(wadmath.MulWad(p.SlewUpStressCoef, stress))
		if bid.Sub(prevBid).GT(riseCap) {
			t.Fatalf("bid rose %s from %s, cap is %s", bid.Sub(prevBid), prevBid, riseCap)
		}
		if ask.Sub(prevAsk).GT(riseCap) {
			t.Fatalf("ask rose %s from %s, cap is %s", ask.Sub(prevAsk), prevAsk, riseCap)
		}
	})
}

func TestCompressTail_PreservesOrdering(t *testing.T) {
	knee := bps(150)
	slope := wadmath.Wad.MulRaw(4).QuoRaw(10)

	fees := []sdkmath.Int{bps(120), bps(150), bps(180), bps(250), bps(300)}
	prev := wadmath.Zero
	for _, fee := range fees {
		got := compressTail(fee, knee, slope)
		if got.LT(prev) {
			t.Fatalf("compressTail broke monotonicity: f(%s) = %s below previous %s", fee, got, prev)
		}
		if got.GT(fee) {
			t.Fatalf("compressTail raised a fee: f(%s) = %s", fee, got)
		}
		prev = got
	}
}
