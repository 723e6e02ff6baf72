package wadmath

import (
	"testing"

	sdkmath "cosmossdk.io/math"
)

func wadFrac(numerator, denominator int64) sdkmath.Int {
	return Wad.MulRaw(numerator).QuoRaw(denominator)
}

func TestMulWad(t *testing.T) {
	tests := []struct {
		name string
		a, b sdkmath.Int
		want sdkmath.Int
	}{
		{"one times one", Wad, Wad, Wad},
		{"half times half", wadFrac(1, 2), wadFrac(1, 2), wadFrac(1, 4)},
		{"zero annihilates", Wad, Zero, Zero},
		{"truncates toward zero", sdkmath.NewInt(1), Wad.SubRaw(1), Zero},
		{"two times three", Wad.MulRaw(2), Wad.MulRaw(3), Wad.MulRaw(6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MulWad(tt.a, tt.b); !got.Equal(tt.want) {
				t.Errorf("MulWad(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDivWad(t *testing.T) {
	// 1/3 truncates to 0.333...3 with 18 digits, never rounds up.
	got := DivWad(Wad, Wad.MulRaw(3))
	want := FromWadStr("333333333333333333")
	if !got.Equal(want) {
		t.Errorf("DivWad(1, 3) = %s, want %s", got, want)
	}

	if got := DivWad(Wad.MulRaw(6), Wad.MulRaw(2)); !got.Equal(Wad.MulRaw(3)) {
		t.Errorf("DivWad(6, 2) = %s, want 3", got)
	}
}

func TestRatio_FallbackOnZeroDivisor(t *testing.T) {
	fallback := Wad.MulRaw(7)
	if got := Ratio(Wad, Zero, fallback); !got.Equal(fallback) {
		t.Errorf("Ratio with zero divisor = %s, want fallback %s", got, fallback)
	}
	if got := Ratio(Wad.MulRaw(4), Wad.MulRaw(2), fallback); !got.Equal(Wad.MulRaw(2)) {
		t.Errorf("Ratio(4, 2) = %s, want 2", got)
	}
}

func TestPowWad(t *testing.T) {
	tests := []struct {
		name   string
		factor sdkmath.Int
		n      int64
		want   sdkmath.Int
	}{
		{"zeroth power is one", wadFrac(1, 2), 0, Wad},
		{"first power is identity", wadFrac(3, 4), 1, wadFrac(3, 4)},
		{"one stays one", Wad, 1000, Wad},
		{"half squared", wadFrac(1, 2), 2, wadFrac(1, 4)},
		{"half cubed", wadFrac(1, 2), 3, wadFrac(1, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PowWad(tt.factor, tt.n); !got.Equal(tt.want) {
				t.Errorf("PowWad(%s, %d) = %s, want %s", tt.factor, tt.n, got, tt.want)
			}
		})
	}
}

func TestPowWad_DecayIsMonotoneNonIncreasing(t *testing.T) {
	decay := FromWadStr("999500000000000000") // 0.9995 per second
	prev := Wad
	for _, n := range []int64{1, 2, 10, 60, 600, 3600} {
		got := PowWad(decay, n)
		if got.GT(prev) {
			t.Fatalf("PowWad(0.9995, %d) = %s exceeds value at smaller exponent %s", n, got, prev)
		}
		if got.IsNegative() {
			t.Fatalf("PowWad(0.9995, %d) = %s is negative", n, got)
		}
		prev = got
	}
}

func TestSubOrZero(t *testing.T) {
	if got := SubOrZero(Wad.MulRaw(5), Wad.MulRaw(3)); !got.Equal(Wad.MulRaw(2)) {
		t.Errorf("SubOrZero(5, 3) = %s, want 2", got)
	}
	if got := SubOrZero(Wad, Wad.MulRaw(3)); !got.Equal(Zero) {
		t.Errorf("SubOrZero(1, 3) = %s, want 0", got)
	}
	if got := SubOrZero(Wad, Wad); !got.Equal(Zero) {
		t.Errorf("SubOrZero(1, 1) = %s, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := Wad, Wad.MulRaw(10)
	tests := []struct {
		name string
		v    sdkmath.Int
		want sdkmath.Int
	}{
		{"below floor", Zero, lo},
		{"above ceiling", Wad.MulRaw(99), hi},
		{"inside passes through", Wad.MulRaw(5), Wad.MulRaw(5)},
		{"at floor", lo, lo},
		{"at ceiling", hi, hi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, lo, hi); !got.Equal(tt.want) {
				t.Errorf("Clamp(%s) = %s, want %s", tt.v, got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	// alpha 0 keeps prev, alpha 1 jumps to input, alpha 1/4 blends.
	if got := Lerp(Wad, Wad.MulRaw(5), Zero); !got.Equal(Wad) {
		t.Errorf("Lerp with alpha 0 = %s, want prev", got)
	}
	if got := Lerp(Wad, Wad.MulRaw(5), Wad); !got.Equal(Wad.MulRaw(5)) {
		t.Errorf("Lerp with alpha 1 = %s, want input", got)
	}
	if got := Lerp(Zero, Wad, wadFrac(1, 4)); !got.Equal(wadFrac(1, 4)) {
		t.Errorf("Lerp(0, 1, 0.25) = %s, want 0.25", got)
	}
	// Blending downward works symmetrically.
	if got := Lerp(Wad, Zero, wadFrac(1, 2)); !got.Equal(wadFrac(1, 2)) {
		t.Errorf("Lerp(1, 0, 0.5) = %s, want 0.5", got)
	}
}

func TestAbsDiff(t *testing.T) {
	a, b := Wad.MulRaw(3), Wad.MulRaw(8)
	if got := AbsDiff(a, b); !got.Equal(Wad.MulRaw(5)) {
		t.Errorf("AbsDiff(3, 8) = %s, want 5", got)
	}
	if got := AbsDiff(b, a); !got.Equal(Wad.MulRaw(5)) {
		t.Errorf("AbsDiff(8, 3) = %s, want 5", got)
	}
	if got := AbsDiff(a, a); !got.Equal(Zero) {
		t.Errorf("AbsDiff(a, a) = %s, want 0", got)
	}
}

func TestFromBps(t *testing.T) {
	if got := FromBps(10000); !got.Equal(Wad) {
		t.Errorf("FromBps(10000) = %s, want Wad", got)
	}
	if got := FromBps(30); !got.Equal(Bps.MulRaw(30)) {
		t.Errorf("FromBps(30) = %s, want 30 bps", got)
	}
}
