package utils

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		values   []float64
		expected float64
	}{
		{[]float64{1, 2, 3, 4, 5}, 3},
		{[]float64{10}, 10},
		{[]float64{}, 0},
		{[]float64{-1, 1}, 0},
	}

	for _, tt := range tests {
		if result := Mean(tt.values); result != tt.expected {
			t.Errorf("Mean(%v) = %f, expected %f", tt.values, result, tt.expected)
		}
	}
}

func TestMaxOfMinOf(t *testing.T) {
	values := []float64{0.3, -2, 7.5, 1}
	if got := MaxOf(values); got != 7.5 {
		t.Errorf("MaxOf = %f, expected 7.5", got)
	}
	if got := MinOf(values); got != -2 {
		t.Errorf("MinOf = %f, expected -2", got)
	}
	if MaxOf(nil) != 0 || MinOf(nil) != 0 {
		t.Error("expected 0 for empty slices")
	}
}

func TestArgMin(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected int
	}{
		{"Empty", nil, -1},
		{"Single", []float64{4}, 0},
		{"Second smaller", []float64{1.0, 0.5}, 1},
		{"Tie keeps first", []float64{2, 0.5, 0.5}, 1},
		{"Leading NaN skipped", []float64{math.NaN(), 0.2, 0.1}, 2},
		{"All NaN", []float64{math.NaN(), math.NaN()}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArgMin(tt.values); got != tt.expected {
				t.Errorf("ArgMin(%v) = %d, expected %d", tt.values, got, tt.expected)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		percentile float64
		expected   float64
	}{
		{0, 1},
		{50, 5.5},
		{100, 10},
	}

	for _, tt := range tests {
		result := Percentile(values, tt.percentile)
		if math.Abs(result-tt.expected) > 0.01 {
			t.Errorf("Percentile(%f) = %f, expected %f", tt.percentile, result, tt.expected)
		}
	}
	if Percentile(nil, 50) != 0 {
		t.Error("expected 0 for empty slice")
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected float64
	}{
		{3.0102999566, 4, 3.0103},
		{5.2287874528, 4, 5.2288},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{-0.5, 0, 0},
		{1.23456, 2, 1.23},
	}

	for _, tt := range tests {
		if result := RoundHalfEven(tt.value, tt.decimals); result != tt.expected {
			t.Errorf("RoundHalfEven(%f, %d) = %f, expected %f", tt.value, tt.decimals, result, tt.expected)
		}
	}
}

func TestDecibels(t *testing.T) {
	if got := RoundHalfEven(Decibels(0.5), 4); got != 3.0103 {
		t.Errorf("Decibels(0.5) = %f, expected 3.0103", got)
	}
	if got := Decibels(1); got != 0 {
		t.Errorf("Decibels(1) = %f, expected 0", got)
	}
}
