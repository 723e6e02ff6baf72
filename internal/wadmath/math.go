/*
This file contains the scaled-integer arithmetic kernel used by the fee engine.

All engine values are integers scaled by WAD (10^18 == 1.0). Every operation
truncates toward zero; the engine depends on that truncation being exact, so
none of these helpers round.
*/

package wadmath

import (
	sdkmath "cosmossdk.io/math"
)

var (
	// Wad is the fixed-point unit: 10^18 represents 1.0.
	Wad = sdkmath.NewIntWithDecimal(1, 18)

	// Bps is one basis point, Wad / 10^4.
	Bps = sdkmath.NewIntWithDecimal(1, 14)

	// TwoWad is the saturation bound for centered signals (neutral = Wad).
	TwoWad = sdkmath.NewIntWithDecimal(2, 18)

	// Zero is a reusable zero value.
	Zero = sdkmath.ZeroInt()
)

// FromBps returns n basis points in WAD scale.
func FromBps(n int64) sdkmath.Int {
	return Bps.MulRaw(n)
}

// FromWadStr parses a WAD-scale integer literal. Panics on malformed input;
// only used for compile-time parameter tables.
func FromWadStr(s string) sdkmath.Int {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		panic("wadmath: invalid integer literal: " + s)
	}
	return v
}

// MulWad returns floor(a*b / Wad) for non-negative inputs. For signed inputs
// the result truncates toward zero.
func MulWad(a, b sdkmath.Int) sdkmath.Int {
	return a.Mul(b).Quo(Wad)
}

// DivWad returns floor(a*Wad / b), truncating toward zero for signed inputs.
// The divisor must be non-zero; callers guard with Ratio when it may not be.
func DivWad(a, b sdkmath.Int) sdkmath.Int {
	return a.Mul(Wad).Quo(b)
}

// Ratio returns DivWad(a, b), or fallback when b is zero.
func Ratio(a, b, fallback sdkmath.Int) sdkmath.Int {
	if b.IsZero() {
		return fallback
	}
	return DivWad(a, b)
}

// PowWad computes factor^n in WAD scale by integer exponentiation-by-squaring.
// PowWad(x, 0) == Wad. Each intermediate multiply truncates, which biases
// long-run decay slightly downward; that bias is intentional and load-bearing.
func PowWad(factor sdkmath.Int, n int64) sdkmath.Int {
	result := Wad
	base := factor
	for n > 0 {
		if n&1 == 1 {
			result = MulWad(result, base)
		}
		n >>= 1
		if n > 0 {
			base = MulWad(base, base)
		}
	}
	return result
}

// SubOrZero returns a-b, floored at zero. The engine's scale only has
// non-negative ratios, so every subtraction goes through here.
func SubOrZero(a, b sdkmath.Int) sdkmath.Int {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return Zero
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi sdkmath.Int) sdkmath.Int {
	return sdkmath.MinInt(sdkmath.MaxInt(v, lo), hi)
}

// Lerp blends prev toward input with WAD-scale weight alpha:
// prev + (input-prev)*alpha. This is the EMA update used by every estimator.
func Lerp(prev, input, alpha sdkmath.Int) sdkmath.Int {
	return prev.Add(MulWad(input.Sub(prev), alpha))
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b sdkmath.Int) sdkmath.Int {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}
