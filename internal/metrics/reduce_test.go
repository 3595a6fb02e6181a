package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeResult(t *testing.T, dir, prefix, body string) string {
	t.Helper()
	runDir := filepath.Join(dir, prefix)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(runDir, prefix+".mon")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClassifyFirstSeenOrder(t *testing.T) {
	g, err := Classify([]string{
		"scan/Lta(100.0)_wave(1.55).mon",
		"scan/Lta(-50.0)_wave(1.55).mon",
	}, MismatchDrop)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if g.Axes[0].Name != "Lta" || g.Axes[1].Name != "wave" {
		t.Fatalf("axes = %q, %q", g.Axes[0].Name, g.Axes[1].Name)
	}
	if diff := cmp.Diff([]float64{100, -50}, g.Axes[0].Values); diff != "" {
		t.Errorf("first axis (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1.55}, g.Axes[1].Values); diff != "" {
		t.Errorf("second axis (-want +got):\n%s", diff)
	}
	if g.Rows() != 2 || g.Cols() != 1 || !g.Swept {
		t.Fatalf("grid %dx%d swept=%v", g.Rows(), g.Cols(), g.Swept)
	}
}

func TestClassifySingleFile(t *testing.T) {
	g, err := Classify([]string{"sim/default/default.mon"}, MismatchFail)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if g.Swept || g.Rows() != 1 || g.Cols() != 1 {
		t.Fatalf("expected unswept 1x1 grid, got %+v", g)
	}
}

func TestClassifyMismatchPolicy(t *testing.T) {
	files := []string{
		"scan/Lta(1)_wave(1.5).mon",
		"scan/notes.mon",
		"scan/Lta(2)_wave(1.5).mon",
	}

	g, err := Classify(files, MismatchDrop)
	if err != nil {
		t.Fatalf("drop policy: %v", err)
	}
	if g.Rows() != 2 {
		t.Fatalf("expected 2 rows after dropping, got %d", g.Rows())
	}

	_, err = Classify(files, MismatchFail)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.File != "scan/notes.mon" {
		t.Fatalf("fail policy: expected ParseError for notes.mon, got %v", err)
	}
	if !errors.Is(err, ErrParse) {
		t.Fatal("ParseError must unwrap to ErrParse")
	}
}

func TestClassifyRejectsMixedSymbols(t *testing.T) {
	_, err := Classify([]string{
		"scan/Lta(1)_wave(1.5).mon",
		"scan/Ln(1)_wave(1.5).mon",
	}, MismatchFail)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseMismatchPolicy(t *testing.T) {
	for in, want := range map[string]MismatchPolicy{"": MismatchDrop, "DROP": MismatchDrop, "fail": MismatchFail} {
		got, err := ParseMismatchPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMismatchPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMismatchPolicy("retry"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestReadOutputs(t *testing.T) {
	dir := t.TempDir()
	path := writeResult(t, dir, "a", "# header\n0.0 0.9 0.1\n1.0 0.5 0.3\n\n  \n")
	got, err := ReadOutputs(path)
	if err != nil {
		t.Fatalf("ReadOutputs: %v", err)
	}
	if diff := cmp.Diff([]float64{0.5, 0.3}, got); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
}

func TestReadOutputsFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"blank lines", "\n\n   \n"},
		{"coordinate only", "1.0 0.5\n2.0\n"},
		{"non numeric", "1.0 0.5 abc\n"},
		{"zero power", "1.0 0 0.5\n"},
		{"negative power", "1.0 -0.1 0.5\n"},
		{"NaN power", "1.0 NaN 0.5\n"},
		{"infinite power", "1.0 0.5 +Inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeResult(t, t.TempDir(), "x", tt.body)
			_, err := ReadOutputs(path)
			var ferr *FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatal("FormatError must unwrap to ErrFormat")
			}
		})
	}
}

func TestReducerReduceGrid(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "Lta(100)_wave(1.50)", "1.0 0.5 0.3\n")
	writeResult(t, dir, "Lta(100)_wave(1.60)", "1.0 0.4 0.4\n")
	writeResult(t, dir, "Lta(200)_wave(1.50)", "1.0 0.45 0.45\n")
	writeResult(t, dir, "Lta(200)_wave(1.60)", "1.0 0.45 0.44\n")

	res, err := NewReducer(dir, Options{}).Reduce()
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if res.Rows() != 2 || res.Cols() != 2 || res.Ports() != 2 {
		t.Fatalf("shape %dx%dx%d", res.Rows(), res.Cols(), res.Ports())
	}
	best, _, err := res.BestRow()
	if err != nil {
		t.Fatalf("BestRow: %v", err)
	}
	if best != 200 {
		t.Errorf("best Lta = %v, want 200", best)
	}
}

func TestReducerMissingCell(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "Lta(1)_wave(1.5)", "1 0.5 0.5\n")
	writeResult(t, dir, "Lta(1)_wave(1.6)", "1 0.5 0.5\n")
	writeResult(t, dir, "Lta(2)_wave(1.5)", "1 0.5 0.5\n")

	_, err := NewReducer(dir, Options{}).Reduce()
	var ferr *FormatError
	if !errors.As(err, &ferr) || !strings.Contains(ferr.File, "Lta(2)_wave(1.6)") {
		t.Fatalf("expected FormatError for the missing cell, got %v", err)
	}
}

func TestReducerRejectsUnusablePower(t *testing.T) {
	for _, bad := range []string{"1.0 -0.1 0.5\n", "1.0 NaN 0.5\n", "1.0 0 0.5\n"} {
		dir := t.TempDir()
		writeResult(t, dir, "L(1)_wave(1.5)", bad)
		writeResult(t, dir, "L(1)_wave(1.6)", "1.0 0.45 0.45\n")
		writeResult(t, dir, "L(2)_wave(1.5)", "1.0 0.45 0.45\n")
		writeResult(t, dir, "L(2)_wave(1.6)", "1.0 0.45 0.45\n")

		res, err := NewReducer(dir, Options{}).Reduce()
		var ferr *FormatError
		if !errors.As(err, &ferr) || !strings.Contains(ferr.File, "L(1)_wave(1.5)") {
			t.Fatalf("%q: expected FormatError for L(1)_wave(1.5), got result %v err %v", bad, res, err)
		}
	}
}

func TestReducerFollowsSweepOrder(t *testing.T) {
	dir := t.TempDir()
	for _, prefix := range []string{"Lta(100)_wave(1.5)", "Lta(100)_wave(1.6)", "Lta(-50)_wave(1.5)", "Lta(-50)_wave(1.6)"} {
		writeResult(t, dir, prefix, "1.0 0.45 0.45\n")
	}

	byPath, err := NewReducer(dir, Options{}).Reduce()
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if diff := cmp.Diff([]float64{-50, 100}, byPath.Axes[0].Values); diff != "" {
		t.Errorf("path order (-want +got):\n%s", diff)
	}

	ordered, err := NewReducer(dir, Options{Order: [2][]float64{{100, -50}, {1.6, 1.5}}}).Reduce()
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if diff := cmp.Diff([]float64{100, -50}, ordered.Axes[0].Values); diff != "" {
		t.Errorf("row order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1.6, 1.5}, ordered.Axes[1].Values); diff != "" {
		t.Errorf("column order (-want +got):\n%s", diff)
	}
	// equal scores: the tie goes to the first submitted row
	if best, _, err := ordered.BestRow(); err != nil || best != 100 {
		t.Errorf("BestRow = %v, %v; want 100", best, err)
	}
}

func TestReducerPortCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "Lta(1)_wave(1.5)", "1 0.5 0.5\n")
	writeResult(t, dir, "Lta(1)_wave(1.6)", "1 0.5\n")

	if _, err := NewReducer(dir, Options{}).Reduce(); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestReducerCustomExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.pmd"), []byte("0 0.7 0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeResult(t, dir, "ignored", "0 1 1\n")

	res, err := NewReducer(dir, Options{Ext: "pmd"}).Reduce()
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if res.Swept {
		t.Error("single file must not be swept")
	}
	if _, _, err := res.BestRow(); !errors.Is(err, ErrNotSwept) {
		t.Errorf("BestRow on 1x1 = %v, want ErrNotSwept", err)
	}
}
