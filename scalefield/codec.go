package scalefield

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// int64 range expressed as float64. maxInt64F is 2^63, one past
// math.MaxInt64; a rounded product must stay strictly below it.
const (
	minInt64F = -9223372036854775808.0
	maxInt64F = 9223372036854775808.0
)

// Encode converts value into its fixed-point representation by multiplying
// with scalingFactor in float64 and rounding to the nearest integer, ties
// away from zero. The scaling factor must already be validated positive.
//
// Non-finite values and products outside the int64 range fail with a
// malformed-value error; values are never clamped.
func Encode(value, scalingFactor float64) (int64, error) {
	if !isFinite(value) {
		return 0, New(ErrMalformed, nonFiniteMessage(value))
	}
	scaled := math.Round(value * scalingFactor)
	if scaled < minInt64F || scaled >= maxInt64F {
		return 0, New(ErrMalformed, fmt.Sprintf(
			"value [%s] is out of range at scaling factor [%s]", numText(value), numText(scalingFactor)))
	}
	return int64(scaled), nil
}

// Decode reverses Encode by plain division. It reflects exactly what the
// index stored; precision relative to the original input is bounded by
// the scaling factor.
func Decode(encoded int64, scalingFactor float64) float64 {
	return float64(encoded) / scalingFactor
}

// DecodeForDisplay reports the value a fresh decimal would decode to after
// indexing, by running it through the same encode path. The result is
// bit-identical to Decode(Encode(value, scalingFactor), scalingFactor).
func DecodeForDisplay(value, scalingFactor float64) (float64, error) {
	encoded, err := Encode(value, scalingFactor)
	if err != nil {
		return 0, err
	}
	return Decode(encoded, scalingFactor), nil
}

// RangeBounds converts decimal range endpoints into the inclusive encoded
// interval [lo, hi] to scan. A nil endpoint leaves its side unbounded.
// Exclusive endpoints are nudged by one ulp before scaling so that the
// encoded interval excludes values that would round onto the endpoint.
// Endpoints saturate at the int64 limits rather than failing; they are
// query inputs, not document data.
func RangeBounds(lower, upper *float64, includeLower, includeUpper bool, scalingFactor float64) (lo, hi int64, err error) {
	lo = math.MinInt64
	hi = math.MaxInt64
	if lower != nil {
		if !isFinite(*lower) {
			return 0, 0, New(ErrMalformed, nonFiniteMessage(*lower))
		}
		d := *lower * scalingFactor
		if !includeLower {
			d = math.Nextafter(d, math.Inf(1))
		}
		lo = saturateInt64(math.Ceil(d))
	}
	if upper != nil {
		if !isFinite(*upper) {
			return 0, 0, New(ErrMalformed, nonFiniteMessage(*upper))
		}
		d := *upper * scalingFactor
		if !includeUpper {
			d = math.Nextafter(d, math.Inf(-1))
		}
		hi = saturateInt64(math.Floor(d))
	}
	return lo, hi, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func saturateInt64(f float64) int64 {
	switch {
	case f >= maxInt64F:
		return math.MaxInt64
	case f <= minInt64F:
		return math.MinInt64
	}
	return int64(math.Round(f))
}

func nonFiniteMessage(v float64) string {
	return fmt.Sprintf("[%s] only supports finite values, but got [%s]", TypeName, numText(v))
}

// numText renders a float64 the way error messages report numeric values:
// integral values keep a trailing .0 and non-finite values read NaN,
// Infinity and -Infinity. Very large magnitudes fall back to scientific
// notation instead of spelling out hundreds of digits.
func numText(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.Abs(v) >= 1e15:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
