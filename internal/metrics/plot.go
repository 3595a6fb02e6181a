package metrics

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

const (
	panelW   = 420
	panelH   = 280
	margin   = 48
	panelCol = 3
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f"}

type series struct {
	label string
	ys    []float64
}

type panel struct {
	title  string
	xlabel string
	xs     []float64
	lines  []series
}

// PlotPath is the SVG figure written next to a sweep directory
func PlotPath(dir string) string {
	return filepath.Clean(dir) + "_result.svg"
}

// WritePlots renders six panels: per-cell maximum insertion, excess and
// uniformity loss against the second axis, then wavelength dependent loss,
// row-maximum insertion loss and the composite metrics against the first.
func WritePlots(w io.Writer, r *Result) error {
	panels := buildPanels(r)
	rows := (len(panels) + panelCol - 1) / panelCol

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="sans-serif" font-size="11">`+"\n",
		panelW*panelCol, panelH*rows)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")
	for k, p := range panels {
		drawPanel(&b, float64(k%panelCol*panelW), float64(k/panelCol*panelH), p)
	}
	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// EmitPlots writes the figure to PlotPath(r.Dir)
func EmitPlots(r *Result) (string, error) {
	path := PlotPath(r.Dir)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot: %w", err)
	}
	if err := WritePlots(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write plot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close plot: %w", err)
	}
	logger.Info("plot written", "path", path)
	return path, nil
}

func buildPanels(r *Result) []panel {
	rowXs, colXs := []float64{0}, []float64{0}
	rowName, colName := "run", "run"
	if r.Swept {
		rowXs, colXs = r.Axes[0].Values, r.Axes[1].Values
		rowName, colName = r.Axes[0].Name, r.Axes[1].Name
	}

	perCell := func(title string, m [][]float64) panel {
		p := panel{title: title, xlabel: colName, xs: colXs}
		for i, row := range m {
			label := "default"
			if r.Swept {
				label = fmt.Sprintf("%s=%s", rowName, formatFloat(rowXs[i]))
			}
			p.lines = append(p.lines, series{label: label, ys: row})
		}
		return p
	}

	wdl := panel{title: "Wavelength dependent loss (dB)", xlabel: rowName, xs: rowXs}
	composite := panel{title: "Composite metrics (dB)", xlabel: rowName, xs: rowXs}
	if r.Swept {
		for port := range r.Ports() {
			ys := make([]float64, r.Rows())
			for i := range ys {
				ys[i] = r.WavelengthDependentLoss[i][port]
			}
			wdl.lines = append(wdl.lines, series{label: fmt.Sprintf("port %d", port+1), ys: ys})
		}
		composite.lines = []series{
			{"ELmax", r.RowMaxExcessLoss},
			{"ULmax", r.RowMaxUniformityLoss},
			{"WDLmax", r.RowMaxWavelengthDependentLoss},
			{"mean", r.CompositeScore},
		}
	}

	return []panel{
		perCell("Maximum insertion loss (dB)", r.MaxInsertionLoss),
		perCell("Excess loss (dB)", r.ExcessLoss),
		perCell("Uniformity loss (dB)", r.UniformityLoss),
		wdl,
		{title: "Row maximum insertion loss (dB)", xlabel: rowName, xs: rowXs,
			lines: []series{{"ILmax", r.RowMaxInsertionLoss}}},
		composite,
	}
}

func drawPanel(b *strings.Builder, ox, oy float64, p panel) {
	x0, y0 := ox+margin, oy+panelH-margin
	w, h := float64(panelW-2*margin+16), float64(panelH-2*margin)

	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-weight="bold">%s</text>`+"\n",
		ox+panelW/2, oy+20, escape(p.title))
	fmt.Fprintf(b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#333"/>`+"\n",
		x0, y0-h, w, h)
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
		x0+w/2, y0+32, escape(p.xlabel))

	if len(p.lines) == 0 {
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="middle" fill="#888">not swept</text>`+"\n",
			x0+w/2, y0-h/2)
		return
	}

	xmin, xmax := bounds(p.xs)
	var all []float64
	for _, s := range p.lines {
		all = append(all, s.ys...)
	}
	ymin, ymax := bounds(all)

	sx := func(v float64) float64 { return x0 + (v-xmin)/(xmax-xmin)*w }
	sy := func(v float64) float64 { return y0 - (v-ymin)/(ymax-ymin)*h }

	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="end">%s</text>`+"\n", x0-4, y0, formatTick(ymin))
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="end">%s</text>`+"\n", x0-4, y0-h+10, formatTick(ymax))
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="start">%s</text>`+"\n", x0, y0+14, formatTick(xmin))
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" text-anchor="end">%s</text>`+"\n", x0+w, y0+14, formatTick(xmax))

	for k, s := range p.lines {
		color := palette[k%len(palette)]
		var pts []string
		for i, y := range s.ys {
			if i >= len(p.xs) || math.IsInf(y, 0) || math.IsNaN(y) {
				continue
			}
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", sx(p.xs[i]), sy(y)))
		}
		fmt.Fprintf(b, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>`+"\n",
			color, strings.Join(pts, " "))
		for _, pt := range pts {
			xy := strings.SplitN(pt, ",", 2)
			fmt.Fprintf(b, `<circle cx="%s" cy="%s" r="2.5" fill="%s"/>`+"\n", xy[0], xy[1], color)
		}
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" fill="%s">%s</text>`+"\n",
			x0+w+4-72, y0-h+14+float64(k)*13, color, escape(s.label))
	}
}

// bounds returns a non-degenerate finite range covering values
func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

func formatTick(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
