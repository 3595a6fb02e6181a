package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

var (
	blockOpen  = regexp.MustCompile(`^\s*(material|segment|pathway|monitor|launch_field)\s+\d+\s*$`)
	blockClose = regexp.MustCompile(`^\s*end\s+(material|segment|pathway|monitor|launch_field)\b`)
)

// replaceDeclaration rewrites the first top-level "name = ..." line found in
// text[:limit]. Lines inside record blocks never match.
func replaceDeclaration(text []byte, limit int, name string, value Expr) ([]byte, int, bool) {
	decl := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(name) + `\s*=`)
	depth := 0
	for start := 0; start < limit; {
		end := bytes.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		line := bytes.TrimRight(text[start:end], "\r")

		switch {
		case blockOpen.Match(line):
			depth++
		case blockClose.Match(line):
			if depth > 0 {
				depth--
			}
		case depth == 0 && decl.Match(line):
			repl := []byte(fmt.Sprintf("%s = %s", name, value))
			lineEnd := start + len(line)
			out := make([]byte, 0, len(text)+len(repl)-len(line))
			out = append(out, text[:start]...)
			out = append(out, repl...)
			out = append(out, text[lineEnd:]...)
			return out, len(repl) - len(line), true
		}
		start = end + 1
	}
	return text, 0, false
}

// ReplaceSymbol rewrites the first declaration of name in the header or
// symbols zone in place and shifts every cursor by the length change.
func (d *Document) ReplaceSymbol(name string, value Expr) bool {
	out, delta, ok := replaceDeclaration(d.buf, d.cursors[Symbols], name, value)
	if !ok {
		return false
	}
	d.buf = out
	for z := range d.cursors {
		d.cursors[z] += delta
	}
	return true
}

// PatchFile rewrites the first top-level declaration of name in a persisted
// document. A missing declaration is logged and leaves the file untouched.
func PatchFile(path, name string, value Expr) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read document %s: %w", path, err)
	}
	out, _, ok := replaceDeclaration(data, len(data), name, value)
	if !ok {
		logger.Warn("symbol not declared, document left unchanged", "path", path, "symbol", name)
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".patch-*")
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", path, err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, fmt.Errorf("patch %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("patch %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("patch %s: %w", path, err)
	}
	logger.Info("symbol patched", "path", path, "symbol", name, "value", string(value))
	return true, nil
}
