// Package geo converts GPS encodings found in photo metadata into signed
// decimal degrees.
package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidCoordinateFormat = errors.New("invalid coordinate format")
	ErrUnknownHemisphere       = errors.New("unknown hemisphere")
	ErrOutOfRange              = errors.New("coordinate out of range")
)

var termSeparator = regexp.MustCompile(`,\s*`)

// Fraction is one numerator/denominator term of a degrees/minutes/seconds value
type Fraction struct {
	Num float64
	Den float64
}

// ParseFractions splits "40/1, 26/1, 0/1" into its terms. Every term must be
// a finite numerator/denominator pair.
func ParseFractions(s string) ([]Fraction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidCoordinateFormat)
	}

	parts := termSeparator.Split(s, -1)
	fractions := make([]Fraction, 0, len(parts))
	for _, part := range parts {
		num, den, found := strings.Cut(strings.TrimSpace(part), "/")
		if !found {
			return nil, fmt.Errorf("%w: term %q is not a fraction", ErrInvalidCoordinateFormat, part)
		}

		n, err := parseFinite(num)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q", ErrInvalidCoordinateFormat, part)
		}
		d, err := parseFinite(den)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q", ErrInvalidCoordinateFormat, part)
		}
		fractions = append(fractions, Fraction{Num: n, Den: d})
	}
	return fractions, nil
}

// parseFinite rejects NaN and infinities, which ParseFloat accepts
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// Sign maps a hemisphere reference to +1 (N, E) or -1 (S, W)
func Sign(ref string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "N", "E":
		return 1, nil
	case "S", "W":
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownHemisphere, ref)
	}
}

// ToDecimal accumulates degrees, minutes, seconds (and any further terms)
// as sum(num/den / 60^i), then applies sign.
func ToDecimal(fractions []Fraction, sign int) (float64, error) {
	if len(fractions) == 0 {
		return 0, fmt.Errorf("%w: no terms", ErrInvalidCoordinateFormat)
	}
	if sign != 1 && sign != -1 {
		return 0, fmt.Errorf("%w: sign %d", ErrUnknownHemisphere, sign)
	}

	var value float64
	scale := 1.0
	for _, f := range fractions {
		if f.Den == 0 {
			return 0, fmt.Errorf("%w: zero denominator", ErrInvalidCoordinateFormat)
		}
		value += f.Num / f.Den / scale
		scale *= 60
	}
	return value * float64(sign), nil
}

// ParseDMS converts an EXIF style rational triple plus hemisphere letter
func ParseDMS(dms, ref string) (float64, error) {
	sign, err := Sign(ref)
	if err != nil {
		return 0, err
	}
	fractions, err := ParseFractions(dms)
	if err != nil {
		return 0, err
	}
	return ToDecimal(fractions, sign)
}

// Point is a validated latitude/longitude pair
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPoint checks that lat lies in [-90,90] and lon in [-180,180]. NaN is
// outside every range.
func NewPoint(lat, lon float64) (Point, error) {
	if !(lat >= -90 && lat <= 90) {
		return Point{}, fmt.Errorf("%w: latitude %v", ErrOutOfRange, lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return Point{}, fmt.Errorf("%w: longitude %v", ErrOutOfRange, lon)
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

// ParsePoint reads a space separated "lat lon" pair already in decimal degrees
func ParsePoint(s string) (Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("%w: point %q", ErrInvalidCoordinateFormat, s)
	}

	lat, err := parseFinite(fields[0])
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinateFormat, fields[0])
	}
	lon, err := parseFinite(fields[1])
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinateFormat, fields[1])
	}
	return NewPoint(lat, lon)
}

// String renders the point the way reverse geocoding expects it
func (p Point) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}
