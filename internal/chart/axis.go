// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import "math"

// headroom is the fraction of the data span added above the largest value
// before rounding the upper bound.
const headroom = 0.1

// niceSteps are the mantissas an upper bound is rounded up to.
var niceSteps = []float64{1, 2, 2.5, 5, 10}

// AxisRange returns bounds for a count axis covering values. The lower
// bound is zero unless a value is negative. The upper bound is at least the
// largest value plus some headroom, rounded up to 1, 2, 2.5 or 5 times a
// power of ten. Empty or all-zero input yields [0, 1].
func AxisRange(values []float64) (lower, upper float64) {
	if len(values) == 0 {
		return 0, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	lower = math.Min(0, lo)
	span := hi - lower
	if span <= 0 {
		return lower, lower + 1
	}
	return lower, lower + niceCeil(span*(1+headroom))
}

// niceCeil rounds x > 0 up to the nearest nice step.
func niceCeil(x float64) float64 {
	if x <= 0 {
		return 1
	}
	scale := math.Pow(10, math.Floor(math.Log10(x)))
	f := x / scale
	for _, s := range niceSteps {
		if f <= s+1e-9 {
			return s * scale
		}
	}
	return 10 * scale
}

// maxValue returns the largest value, or zero for empty input.
func maxValue(values []float64) float64 {
	m := 0.0
	for i, v := range values {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}
