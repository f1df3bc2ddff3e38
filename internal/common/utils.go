package common

import "math"

// Clamp bounds v to [lo, hi]. NaN is treated as lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
