package utils

import (
	"math"
	"sort"
)

// Mean calculates the mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum calculates the sum of a slice of float64 values
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// MaxOf returns the largest value, or 0 for an empty slice
func MaxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// MinOf returns the smallest value, or 0 for an empty slice
func MinOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// ArgMin returns the index of the smallest value; ties resolve to the first
// occurrence. NaN values are skipped. It returns -1 for an empty or all-NaN
// slice.
func ArgMin(values []float64) int {
	idx := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v < values[idx] {
			idx = i
		}
	}
	return idx
}

// Percentile calculates the percentile of a slice of float64 values
// percentile should be between 0 and 100
func Percentile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := (percentile / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// RoundHalfEven rounds to the given number of decimals, resolving exact halves
// to the even neighbour.
func RoundHalfEven(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.RoundToEven(value*multiplier) / multiplier
}

// Decibels converts a linear power ratio to -10*log10(ratio).
func Decibels(ratio float64) float64 {
	return -10 * math.Log10(ratio)
}
