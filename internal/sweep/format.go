package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format is a fixed-width zero-padded rendering shared by every value of one
// axis, so directory names sort and align regardless of magnitude.
type Format struct {
	Float    bool
	Width    int
	Decimals int
}

// DetermineFormat derives the format for a list of values. Integer mode pads
// to the widest integer part. Float mode adds one spare integer column, the
// separator and the longest fractional part. The result does not depend on
// value order.
func DetermineFormat(values []float64) Format {
	var f Format
	intWidth := 1
	for _, v := range values {
		intWidth = max(intWidth, len(strconv.FormatInt(int64(v), 10)))
		if v != math.Trunc(v) {
			f.Float = true
		}
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if i := strings.IndexByte(s, '.'); i >= 0 {
			f.Decimals = max(f.Decimals, len(s)-i-1)
		}
	}
	if !f.Float {
		f.Width = intWidth
		f.Decimals = 0
		return f
	}
	f.Width = intWidth + 1 + 1 + f.Decimals
	return f
}

// Apply renders v in the format
func (f Format) Apply(v float64) string {
	if f.Float {
		return fmt.Sprintf("%0*.*f", f.Width, f.Decimals, v)
	}
	return fmt.Sprintf("%0*d", f.Width, int64(math.Round(v)))
}

// ApplyAll renders every value
func (f Format) ApplyAll(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = f.Apply(v)
	}
	return out
}
