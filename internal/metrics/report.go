package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// ReportPath is the text report written next to a sweep directory
func ReportPath(dir string) string {
	return filepath.Clean(dir) + "_result.txt"
}

// WriteReport renders every metric as a labeled table followed by the
// optimization summary when the result was swept.
func WriteReport(w io.Writer, r *Result) error {
	var b bytes.Buffer
	if r.Dir != "" {
		fmt.Fprintf(&b, "Sweep: %s\n\n", r.Dir)
	}
	for _, s := range r.Extra {
		writeTable(&b, s.Title, s.Headers, s.Rows)
	}

	for p := range r.Ports() {
		writeGrid(&b, fmt.Sprintf("Insertion loss, port %d (dB)", p+1), r, func(i, j int) float64 {
			return r.InsertionLoss[i][j][p]
		})
	}
	writeGrid(&b, "Maximum insertion loss (dB)", r, func(i, j int) float64 { return r.MaxInsertionLoss[i][j] })
	writeGrid(&b, "Excess loss (dB)", r, func(i, j int) float64 { return r.ExcessLoss[i][j] })
	writeGrid(&b, "Uniformity loss (dB)", r, func(i, j int) float64 { return r.UniformityLoss[i][j] })

	if r.Swept {
		headers := []string{r.Axes[0].Name}
		for p := range r.Ports() {
			headers = append(headers, fmt.Sprintf("port %d", p+1))
		}
		rows := make([][]string, r.Rows())
		for i := range rows {
			rows[i] = append([]string{formatFloat(r.Axes[0].Values[i])}, formatRow(r.WavelengthDependentLoss[i])...)
		}
		writeTable(&b, fmt.Sprintf("Wavelength dependent loss over %s (dB)", r.Axes[1].Name), headers, rows)

		rows = make([][]string, r.Rows())
		for i := range rows {
			rows[i] = []string{
				formatFloat(r.Axes[0].Values[i]),
				dbString(r.RowMaxInsertionLoss[i]),
				dbString(r.RowMaxExcessLoss[i]),
				dbString(r.RowMaxUniformityLoss[i]),
				dbString(r.RowMaxWavelengthDependentLoss[i]),
				dbString(r.CompositeScore[i]),
			}
		}
		writeTable(&b, "Row maxima (dB)",
			[]string{r.Axes[0].Name, "ILmax", "ELmax", "ULmax", "WDLmax", "mean"}, rows)

		summary, err := r.Summary()
		if err != nil {
			return err
		}
		b.WriteString(summary)
		b.WriteByte('\n')
	}

	_, err := w.Write(b.Bytes())
	return err
}

// EmitReport writes the text report to ReportPath(r.Dir)
func EmitReport(r *Result) (string, error) {
	path := ReportPath(r.Dir)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	logger.Info("report written", "path", path)
	return path, nil
}

func writeGrid(b *bytes.Buffer, title string, r *Result, cell func(i, j int) float64) {
	var headers []string
	if r.Swept {
		headers = []string{r.Axes[0].Name + "/" + r.Axes[1].Name}
		for _, v := range r.Axes[1].Values {
			headers = append(headers, formatFloat(v))
		}
	} else {
		headers = []string{"run", "value"}
	}

	rows := make([][]string, r.Rows())
	for i := range rows {
		label := "default"
		if r.Swept {
			label = formatFloat(r.Axes[0].Values[i])
		}
		rows[i] = []string{label}
		for j := range r.Cols() {
			rows[i] = append(rows[i], dbString(cell(i, j)))
		}
	}
	writeTable(b, title, headers, rows)
}

func writeTable(b *bytes.Buffer, title string, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...)
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(t.String())
	b.WriteString("\n\n")
}

func formatRow(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = dbString(v)
	}
	return out
}

func dbString(v float64) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
