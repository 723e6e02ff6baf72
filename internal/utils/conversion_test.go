package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openamm/afe/internal/wadmath"
)

func TestWadToFloat64(t *testing.T) {
	tests := []struct {
		name string
		in   sdkmath.Int
		want float64
	}{
		{"one", wadmath.Wad, 1.0},
		{"zero", wadmath.Zero, 0.0},
		{"half", wadmath.Wad.QuoRaw(2), 0.5},
		{"thirty bps", wadmath.FromBps(30), 0.003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WadToFloat64(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := WadToFloat64(sdkmath.Int{})
	require.ErrorIs(t, err, ErrAmountNil)
}

func TestWadToBps(t *testing.T) {
	assert.InDelta(t, 30.0, WadToBps(wadmath.FromBps(30)), 1e-9)
	assert.InDelta(t, 10000.0, WadToBps(wadmath.Wad), 1e-9)
	assert.Zero(t, WadToBps(sdkmath.Int{}))
}

func TestParseIntString(t *testing.T) {
	v, err := ParseIntString("1000000000000000000")
	require.NoError(t, err)
	assert.True(t, v.Equal(wadmath.Wad))

	_, err = ParseIntString("not a number")
	require.ErrorIs(t, err, ErrParseFailed)

	_, err = ParseIntString("1.5")
	require.ErrorIs(t, err, ErrParseFailed)
}

func TestFloat64ToWad_RoundTrip(t *testing.T) {
	for _, v := range []float64{0.003, 0.5, 1.0, 123.456} {
		wad, err := Float64ToWad(v)
		require.NoError(t, err)

		back, err := WadToFloat64(wad)
		require.NoError(t, err)
		assert.InDelta(t, v, back, 1e-9, "round trip drifted for %f", v)
	}

	zero, err := Float64ToWad(-1.0)
	require.NoError(t, err)
	assert.True(t, zero.IsZero(), "negative input clamps to zero")
}
