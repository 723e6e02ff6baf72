/*
This file contains utility functions for converting WAD-scale integers to and
from display values. Floating point exists only at this boundary: the engine
itself never touches a float.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/openamm/afe/internal/wadmath"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil   = errors.New("amount is nil")
	ErrNotFinite   = errors.New("value is not finite")
	ErrParseFailed = errors.New("parse failed")
)

// WadToFloat64 converts a WAD-scale integer to a float64 fraction.
// Display/persistence use only.
func WadToFloat64(amount sdkmath.Int) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}

	dec := sdkmath.LegacyNewDecFromIntWithPrec(amount, 18)
	result, err := dec.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}

// WadToBps converts a WAD-scale fee ratio to basis points, truncating the
// sub-bps remainder. Used for metrics and dashboards, never fed back into
// the engine.
func WadToBps(fee sdkmath.Int) float64 {
	if fee.IsNil() {
		return 0
	}
	f, err := WadToFloat64(fee)
	if err != nil {
		return 0
	}
	return f * 10000
}

// ParseIntString parses a base-10 integer string into an sdkmath.Int.
func ParseIntString(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %q is not a base-10 integer", ErrParseFailed, s)
	}
	return v, nil
}

// Float64ToWad converts a non-negative float64 fraction to WAD scale via a
// string round-trip to avoid binary float precision artifacts. Only the
// simulation harness uses this; engine inputs arrive as integers.
func Float64ToWad(v float64) (sdkmath.Int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, v)
	}
	if v <= 0 {
		return sdkmath.ZeroInt(), nil
	}

	dec, err := sdkmath.LegacyNewDecFromStr(fmt.Sprintf("%.18f", v))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return dec.MulInt(wadmath.Wad).TruncateInt(), nil
}
