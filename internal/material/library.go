package material

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	blockStart = regexp.MustCompile(`(?i)^\s*material\s+\d+\b`)
	blockEnd   = regexp.MustCompile(`(?i)^\s*end\s+material\b`)
)

// DefaultExt is the extension of a category library file
const DefaultExt = ".mlb"

// Library reads material blocks from "<Dir>/<Category><Ext>"
type Library struct {
	Dir string
	Ext string
}

// NewLibrary creates a library rooted at dir
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir, Ext: DefaultExt}
}

// Block is one materialized library entry
type Block struct {
	Ref   Ref
	Start int // 1-based line of the "material <n>" marker
	End   int // 1-based line of the "end material" marker
	Body  []string
}

// Path returns the library file of a category
func (l *Library) Path(c Category) string {
	ext := l.Ext
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Join(l.Dir, string(c)+ext)
}

// Block returns the ref.Index-th block of the category file. Start and End
// are the inclusive line range including both markers.
func (l *Library) Block(ref Ref) (*Block, error) {
	path := l.Path(ref.Category)
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	defer f.Close()

	var (
		starts, ends []int
		lines        []string
	)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		lines = append(lines, line)
		switch {
		case blockEnd.MatchString(line):
			ends = append(ends, n)
		case blockStart.MatchString(line):
			starts = append(starts, n)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}

	if ref.Index < 1 || ref.Index > len(starts) || ref.Index > len(ends) {
		return nil, &LookupError{Category: ref.Category, Index: ref.Index, Reason: "no such block in " + filepath.Base(path)}
	}
	start, end := starts[ref.Index-1], ends[ref.Index-1]
	if end <= start {
		return nil, &LookupError{Category: ref.Category, Index: ref.Index, Reason: "unterminated block"}
	}

	body := make([]string, 0, end-start-1)
	for _, line := range lines[start : end-1] {
		body = append(body, strings.TrimRight(line, "\r"))
	}
	return &Block{Ref: ref, Start: start, End: end, Body: body}, nil
}
