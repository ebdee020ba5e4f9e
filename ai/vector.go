package ai

import "math"

// FitDimensions converts values to a vector of exactly dim entries.
// Longer inputs are truncated, shorter ones zero-padded, and non-finite
// entries replaced with 0. A dim of zero or less keeps the input length.
func FitDimensions[T float32 | float64](values []T, dim int) []float32 {
	if dim <= 0 {
		dim = len(values)
	}
	out := make([]float32, dim)
	for i := 0; i < dim && i < len(values); i++ {
		v := float64(values[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = float32(v)
	}
	return out
}
