package metrics

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// MismatchPolicy decides what happens to a result file whose name does not
// carry two sweep coordinates.
type MismatchPolicy string

const (
	MismatchDrop MismatchPolicy = "drop"
	MismatchFail MismatchPolicy = "fail"
)

// ParseMismatchPolicy accepts "drop", "fail" or empty (drop)
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch p := MismatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", MismatchDrop:
		return MismatchDrop, nil
	case MismatchFail:
		return MismatchFail, nil
	default:
		return "", fmt.Errorf("unknown filename mismatch policy %q", s)
	}
}

var coordPattern = regexp.MustCompile(`(\w+)\((-?[\d.]+)\)_(\w+)\((-?[\d.]+)\)`)

// Axis is one swept symbol and its coordinate values in first-seen order
type Axis struct {
	Name   string
	Values []float64
}

func (a *Axis) index(v float64) int {
	for i, x := range a.Values {
		if x == v {
			return i
		}
	}
	a.Values = append(a.Values, v)
	return len(a.Values) - 1
}

// Grid places result files by coordinate; Files[row][col] is "" for a hole
type Grid struct {
	Axes  [2]Axis
	Files [][]string
	Swept bool
}

// Rows is the number of first-axis values
func (g *Grid) Rows() int { return len(g.Files) }

// Cols is the number of second-axis values
func (g *Grid) Cols() int {
	if len(g.Files) == 0 {
		return 0
	}
	return len(g.Files[0])
}

// Coordinates parses the two sweep coordinates out of a result file name
func Coordinates(file string) (names [2]string, values [2]float64, err error) {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	m := coordPattern.FindStringSubmatch(base)
	if m == nil {
		return names, values, &ParseError{File: file, Reason: "name does not match sym(value)_sym(value)"}
	}
	for i := range 2 {
		v, perr := strconv.ParseFloat(m[2*i+2], 64)
		if perr != nil {
			return names, values, &ParseError{File: file, Reason: fmt.Sprintf("bad coordinate %q", m[2*i+2])}
		}
		names[i], values[i] = m[2*i+1], v
	}
	return names, values, nil
}

// Classify arranges result files into a grid. A single file is a 1x1 grid
// without axes; otherwise every file must name both coordinates, and files
// that do not are dropped or fail the call according to policy.
func Classify(files []string, policy MismatchPolicy) (*Grid, error) {
	switch len(files) {
	case 0:
		return nil, fmt.Errorf("no result files: %w", ErrFormat)
	case 1:
		return &Grid{Files: [][]string{{files[0]}}}, nil
	}

	g := &Grid{Swept: true}
	type placed struct {
		row, col int
		file     string
	}
	var cells []placed
	seen := make(map[[2]int]string)

	reject := func(err error) error {
		if policy == MismatchFail {
			return err
		}
		logger.Warn("dropping result file", "error", err)
		return nil
	}

	for _, f := range files {
		names, values, err := Coordinates(f)
		if err != nil {
			if err := reject(err); err != nil {
				return nil, err
			}
			continue
		}
		if len(cells) == 0 {
			g.Axes[0].Name, g.Axes[1].Name = names[0], names[1]
		} else if names[0] != g.Axes[0].Name || names[1] != g.Axes[1].Name {
			perr := &ParseError{File: f, Reason: fmt.Sprintf("symbols %s/%s differ from %s/%s",
				names[0], names[1], g.Axes[0].Name, g.Axes[1].Name)}
			if err := reject(perr); err != nil {
				return nil, err
			}
			continue
		}
		row, col := g.Axes[0].index(values[0]), g.Axes[1].index(values[1])
		if prev, dup := seen[[2]int{row, col}]; dup {
			perr := &ParseError{File: f, Reason: "coordinate already taken by " + prev}
			if err := reject(perr); err != nil {
				return nil, err
			}
			continue
		}
		seen[[2]int{row, col}] = f
		cells = append(cells, placed{row, col, f})
	}
	if len(cells) == 0 {
		return nil, &ParseError{File: filepath.Dir(files[0]), Reason: "no result file carries sweep coordinates"}
	}

	g.Files = make([][]string, len(g.Axes[0].Values))
	for i := range g.Files {
		g.Files[i] = make([]string, len(g.Axes[1].Values))
	}
	for _, c := range cells {
		g.Files[c.row][c.col] = c.file
	}
	return g, nil
}
