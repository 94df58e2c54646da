package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	v, err := ToDecimal([]Fraction{{1, 1}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = ToDecimal([]Fraction{{1, 1}, {30, 1}, {0, 1}}, -1)
	require.NoError(t, err)
	assert.Equal(t, -1.5, v)

	_, err = ToDecimal([]Fraction{{5, 0}}, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)

	_, err = ToDecimal(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)
}

func TestSign(t *testing.T) {
	for ref, want := range map[string]int{"N": 1, "e": 1, "S": -1, "w": -1, " n ": 1} {
		got, err := Sign(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, got, ref)
	}

	_, err := Sign("X")
	assert.ErrorIs(t, err, ErrUnknownHemisphere)
	_, err = Sign("")
	assert.ErrorIs(t, err, ErrUnknownHemisphere)
}

func TestParseDMS(t *testing.T) {
	lat, err := ParseDMS("40/1, 26/1, 0/1", "N")
	require.NoError(t, err)
	assert.InDelta(t, 40.4333333, lat, 1e-6)

	lon, err := ParseDMS("120/1,59/1,0/1", "W")
	require.NoError(t, err)
	assert.InDelta(t, -120.9833333, lon, 1e-6)

	secs, err := ParseDMS("37/1, 46/1, 2999/100", "N")
	require.NoError(t, err)
	assert.InDelta(t, 37+46.0/60+29.99/3600, secs, 1e-9)

	_, err = ParseDMS("forty/1", "N")
	assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)

	_, err = ParseDMS("40/1", "Q")
	assert.ErrorIs(t, err, ErrUnknownHemisphere)
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("37.7749 -122.4194")
	require.NoError(t, err)
	assert.Equal(t, Point{Latitude: 37.7749, Longitude: -122.4194}, p)
	assert.Equal(t, "37.7749,-122.4194", p.String())

	_, err = ParsePoint("37.7749")
	assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)

	_, err = ParsePoint("91 0")
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestParseFractions_Rejects(t *testing.T) {
	tests := []string{
		"40, 26, 0",
		"40/1, 26, 0/1",
		"NaN/1, 0/1, 0/1",
		"40/NaN",
		"Inf/1",
		"40/1, -Inf/1",
		"",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseFractions(in)
			assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)

			_, err = ParseDMS(in, "N")
			assert.ErrorIs(t, err, ErrInvalidCoordinateFormat)
		})
	}
}

func TestNewPoint_NonFinite(t *testing.T) {
	for _, p := range [][2]float64{
		{math.NaN(), 0},
		{0, math.NaN()},
		{math.Inf(1), 0},
		{0, math.Inf(-1)},
	} {
		_, err := NewPoint(p[0], p[1])
		assert.ErrorIs(t, err, ErrOutOfRange, "%v", p)
	}
}

func TestParsePoint_NonFinite(t *testing.T) {
	for _, in := range []string{"NaN 12.5", "12.5 NaN", "+Inf 0", "0 -Inf"} {
		_, err := ParsePoint(in)
		assert.ErrorIs(t, err, ErrInvalidCoordinateFormat, in)
	}
}
