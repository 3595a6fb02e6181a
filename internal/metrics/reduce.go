package metrics

import (
	"bufio"
	"cmp"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// DefaultResultExt is the extension of the engine's monitor output
const DefaultResultExt = ".mon"

// Options configures a Reducer
type Options struct {
	Ext      string
	Mismatch MismatchPolicy
	// Order, when set, lists each axis's values in submission order. Files
	// are then classified in that order instead of by path, so rows and
	// the BestRow tie-break follow the sweep.
	Order [2][]float64
}

// Reducer turns the raw result files under one sweep directory into metrics
type Reducer struct {
	dir  string
	opts Options
}

// NewReducer creates a reducer for dir
func NewReducer(dir string, opts Options) *Reducer {
	if opts.Ext == "" {
		opts.Ext = DefaultResultExt
	}
	if !strings.HasPrefix(opts.Ext, ".") {
		opts.Ext = "." + opts.Ext
	}
	if opts.Mismatch == "" {
		opts.Mismatch = MismatchDrop
	}
	return &Reducer{dir: dir, opts: opts}
}

// Dir is the sweep directory being reduced
func (r *Reducer) Dir() string { return r.dir }

// Files lists the result files in the directory and its immediate
// subdirectories, sorted by path.
func (r *Reducer) Files() ([]string, error) {
	var files []string
	for _, pattern := range []string{
		filepath.Join(r.dir, "*"+r.opts.Ext),
		filepath.Join(r.dir, "*", "*"+r.opts.Ext),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// Reduce classifies, reads and derives. A grid cell without a file fails the
// whole reduction.
func (r *Reducer) Reduce() (*Result, error) {
	files, err := r.Files()
	if err != nil {
		return nil, err
	}
	if len(r.opts.Order[0]) > 0 || len(r.opts.Order[1]) > 0 {
		sortBySweepOrder(files, r.opts.Order)
	}
	grid, err := Classify(files, r.opts.Mismatch)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", r.dir, err)
	}

	powers := make([][][]float64, grid.Rows())
	ports := -1
	for i, row := range grid.Files {
		powers[i] = make([][]float64, len(row))
		for j, file := range row {
			if file == "" {
				return nil, &FormatError{
					File: fmt.Sprintf("%s(%s)_%s(%s)",
						grid.Axes[0].Name, formatFloat(grid.Axes[0].Values[i]),
						grid.Axes[1].Name, formatFloat(grid.Axes[1].Values[j])),
					Reason: "no result file for grid cell",
				}
			}
			out, err := ReadOutputs(file)
			if err != nil {
				return nil, err
			}
			if ports >= 0 && len(out) != ports {
				return nil, &FormatError{File: file, Reason: fmt.Sprintf("expected %d output ports, got %d", ports, len(out))}
			}
			ports = len(out)
			powers[i][j] = out
		}
	}

	res := Derive(grid.Axes, powers, grid.Swept)
	res.Dir = r.dir
	logger.Debug("reduced sweep", "dir", r.dir, "rows", res.Rows(), "cols", res.Cols(), "ports", ports)
	return res, nil
}

// ReadOutputs parses the last populated line of a result file: a leading
// coordinate followed by one power per output port.
func ReadOutputs(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{File: path, Reason: err.Error()}
	}
	defer f.Close()

	var last string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{File: path, Reason: err.Error()}
	}
	if last == "" {
		return nil, &FormatError{File: path, Reason: "no data line"}
	}

	fields := strings.Fields(last)
	if len(fields) < 2 {
		return nil, &FormatError{File: path, Line: last, Reason: "no output fields after coordinate"}
	}
	out := make([]float64, 0, len(fields)-1)
	for _, field := range fields[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, &FormatError{File: path, Line: last, Reason: fmt.Sprintf("non-numeric field %q", field)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, &FormatError{File: path, Line: last, Reason: fmt.Sprintf("power %q must be positive and finite", field)}
		}
		out = append(out, v)
	}
	return out, nil
}

// sortBySweepOrder stably orders files by the position of their coordinates
// in order. Files whose names or values are not found keep their relative
// order after the known ones.
func sortBySweepOrder(files []string, order [2][]float64) {
	rank := func(f string) [2]int {
		_, values, err := Coordinates(f)
		if err != nil {
			return [2]int{math.MaxInt, math.MaxInt}
		}
		var r [2]int
		for i := range 2 {
			r[i] = slices.Index(order[i], values[i])
			if r[i] < 0 {
				r[i] = math.MaxInt
			}
		}
		return r
	}
	slices.SortStableFunc(files, func(a, b string) int {
		ra, rb := rank(a), rank(b)
		if c := cmp.Compare(ra[0], rb[0]); c != 0 {
			return c
		}
		return cmp.Compare(ra[1], rb[1])
	})
}
