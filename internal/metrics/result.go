package metrics

import (
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/utils"
)

const decimals = 4

// Section is an extra table printed ahead of the metric tables
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Result holds the reduced outputs of one grid and every metric derived from
// them. Matrices are indexed [row][col] with rows along the first axis;
// per-port slices are innermost.
type Result struct {
	Dir   string
	Axes  [2]Axis
	Swept bool

	Powers [][][]float64

	InsertionLoss    [][][]float64
	ExcessLoss       [][]float64
	UniformityLoss   [][]float64
	MaxInsertionLoss [][]float64

	RowMaxInsertionLoss  []float64
	RowMaxExcessLoss     []float64
	RowMaxUniformityLoss []float64

	// nil unless Swept
	WavelengthDependentLoss       [][]float64
	RowMaxWavelengthDependentLoss []float64
	CompositeScore                []float64

	Extra []Section
}

// Rows is the number of first-axis values
func (r *Result) Rows() int { return len(r.Powers) }

// Cols is the number of second-axis values
func (r *Result) Cols() int {
	if len(r.Powers) == 0 {
		return 0
	}
	return len(r.Powers[0])
}

// Ports is the number of output ports per cell
func (r *Result) Ports() int {
	if r.Rows() == 0 || r.Cols() == 0 {
		return 0
	}
	return len(r.Powers[0][0])
}

// BestRow returns the first-axis value whose composite score is lowest; ties
// go to the earliest row.
func (r *Result) BestRow() (value float64, score float64, err error) {
	if !r.Swept || len(r.Axes[0].Values) == 0 {
		return 0, 0, ErrNotSwept
	}
	idx := utils.ArgMin(r.CompositeScore)
	if idx < 0 {
		return 0, 0, ErrNotSwept
	}
	return r.Axes[0].Values[idx], r.CompositeScore[idx], nil
}

// Summary is the one-line optimization outcome, "<sym>=<best>, min_mean=<score>"
func (r *Result) Summary() (string, error) {
	v, score, err := r.BestRow()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s=%s, min_mean=%s", r.Axes[0].Name, formatFloat(v), formatFloat(score)), nil
}

// Derive computes every metric from reduced per-port powers. All values are in
// dB and rounded half-to-even to four decimals.
func Derive(axes [2]Axis, powers [][][]float64, swept bool) *Result {
	rows := len(powers)
	r := &Result{
		Axes:                 axes,
		Swept:                swept,
		Powers:               powers,
		InsertionLoss:        make([][][]float64, rows),
		ExcessLoss:           make([][]float64, rows),
		UniformityLoss:       make([][]float64, rows),
		MaxInsertionLoss:     make([][]float64, rows),
		RowMaxInsertionLoss:  make([]float64, rows),
		RowMaxExcessLoss:     make([]float64, rows),
		RowMaxUniformityLoss: make([]float64, rows),
	}

	for i, row := range powers {
		cols := len(row)
		r.InsertionLoss[i] = make([][]float64, cols)
		r.ExcessLoss[i] = make([]float64, cols)
		r.UniformityLoss[i] = make([]float64, cols)
		r.MaxInsertionLoss[i] = make([]float64, cols)
		for j, cell := range row {
			il := make([]float64, len(cell))
			for p, power := range cell {
				il[p] = db(power)
			}
			r.InsertionLoss[i][j] = il
			r.ExcessLoss[i][j] = db(utils.Sum(cell))
			r.UniformityLoss[i][j] = db(utils.MinOf(cell) / utils.MaxOf(cell))
			r.MaxInsertionLoss[i][j] = utils.MaxOf(il)
		}
		r.RowMaxInsertionLoss[i] = utils.MaxOf(r.MaxInsertionLoss[i])
		r.RowMaxExcessLoss[i] = utils.MaxOf(r.ExcessLoss[i])
		r.RowMaxUniformityLoss[i] = utils.MaxOf(r.UniformityLoss[i])
	}

	if !swept {
		return r
	}

	r.WavelengthDependentLoss = make([][]float64, rows)
	r.RowMaxWavelengthDependentLoss = make([]float64, rows)
	r.CompositeScore = make([]float64, rows)
	for i, row := range powers {
		ports := 0
		if len(row) > 0 {
			ports = len(row[0])
		}
		wdl := make([]float64, ports)
		for p := range ports {
			column := make([]float64, len(row))
			for j, cell := range row {
				column[j] = cell[p]
			}
			wdl[p] = db(utils.MinOf(column) / utils.MaxOf(column))
		}
		r.WavelengthDependentLoss[i] = wdl
		r.RowMaxWavelengthDependentLoss[i] = utils.MaxOf(wdl)
		r.CompositeScore[i] = utils.RoundHalfEven(
			(r.RowMaxExcessLoss[i]+r.RowMaxUniformityLoss[i]+r.RowMaxWavelengthDependentLoss[i])/3, decimals)
	}
	return r
}

func db(ratio float64) float64 {
	return utils.RoundHalfEven(utils.Decibels(ratio), decimals)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
