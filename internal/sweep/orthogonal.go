package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// OrthogonalArray builds a strength-2 design for factors with the given level
// counts. It uses the Bose L(p^2) construction for the smallest prime p that
// covers every factor, which supports up to p+1 factors. Factors with fewer
// than p levels fold the surplus levels back with a modulo, and repeated
// cases are removed. Each case holds one level index per factor.
func OrthogonalArray(levels []int) ([][]int, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("orthogonal design needs at least one factor")
	}
	top := 0
	for i, n := range levels {
		if n < 1 {
			return nil, fmt.Errorf("factor %d has no levels", i+1)
		}
		top = max(top, n)
	}
	p := nextPrime(max(top, 2))
	if len(levels) > p+1 {
		return nil, fmt.Errorf("%d factors exceed the %d supported by a %d-level design", len(levels), p+1, p)
	}

	var cases [][]int
	seen := make(map[string]bool)
	for a := range p {
		for b := range p {
			row := make([]int, len(levels))
			for k := range levels {
				var v int
				switch k {
				case 0:
					v = a
				case 1:
					v = b
				default:
					v = (a + (k-1)*b) % p
				}
				row[k] = v % levels[k]
			}
			key := fmt.Sprint(row)
			if seen[key] {
				continue
			}
			seen[key] = true
			cases = append(cases, row)
		}
	}
	return cases, nil
}

func nextPrime(n int) int {
	for ; ; n++ {
		if isPrime(n) {
			return n
		}
	}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// Design is an orthogonal sweep: every factor but the last is arranged by
// OrthogonalArray, and each case runs against every value of the last
// (companion) symbol.
type Design struct {
	Names  []string
	Values [][]float64
}

func (d Design) validate() error {
	if len(d.Names) < 2 {
		return fmt.Errorf("orthogonal design needs at least one factor and a companion symbol")
	}
	if len(d.Names) != len(d.Values) {
		return fmt.Errorf("%d symbols but %d value lists", len(d.Names), len(d.Values))
	}
	for i, v := range d.Values {
		if len(v) == 0 {
			return fmt.Errorf("symbol %s has no values", d.Names[i])
		}
	}
	return nil
}

// RunOrthogonal runs the design under <root>/<name>_OEDsim/<label>, with run
// prefixes test(<k>)_<companion>(<v>). The reduced result carries the design
// table as an extra section.
func (s *Scheduler) RunOrthogonal(ctx context.Context, d Design) (*metrics.Result, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	factors, factorValues := d.Names[:len(d.Names)-1], d.Values[:len(d.Values)-1]
	companion, companionValues := d.Names[len(d.Names)-1], d.Values[len(d.Values)-1]

	levels := make([]int, len(factorValues))
	for i, v := range factorValues {
		levels[i] = len(v)
	}
	cases, err := OrthogonalArray(levels)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.DesignDir(), rangeLabel(d.Names, d.Values))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create design dir: %w", err)
	}

	width := len(strconv.Itoa(len(cases)))
	waveFormat := DetermineFormat(companionValues)
	table := metrics.Section{
		Title:   "Orthogonal design",
		Headers: append([]string{"test"}, factors...),
	}
	logger.Info("orthogonal sweep started", "dir", dir, "cases", len(cases), "runs", len(cases)*len(companionValues))

	for k, c := range cases {
		overrides := make([]Override, 0, len(factors)+1)
		row := []string{strconv.Itoa(k + 1)}
		for f, level := range c {
			value := document.FormatValue(factorValues[f][level])
			overrides = append(overrides, Override{factors[f], value})
			row = append(row, value)
		}
		table.Rows = append(table.Rows, row)

		for _, w := range companionValues {
			prefix := fmt.Sprintf("test(%0*d)_%s(%s)", width, k+1, companion, waveFormat.Apply(w))
			s.Submit(ctx, Invocation{
				Prefix:    prefix,
				Dir:       filepath.Join(dir, prefix),
				Overrides: append(slices.Clone(overrides), Override{companion, document.FormatValue(w)}),
			})
		}
	}
	if err := s.Drain(); err != nil {
		return nil, fmt.Errorf("orthogonal sweep %s: %w", dir, err)
	}

	tests := make([]float64, len(cases))
	for k := range cases {
		tests[k] = float64(k + 1)
	}
	res, err := s.reduce(dir, [2][]float64{tests, companionValues})
	if err != nil {
		return nil, err
	}
	res.Extra = append([]metrics.Section{table}, res.Extra...)
	return res, nil
}
