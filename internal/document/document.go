// Package document builds the engine's circuit file: a header followed by six
// ordered zones that grow independently while keeping their relative order.
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/material"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// Zone is one ordered section of the document
type Zone int

const (
	Symbols Zone = iota
	Materials
	Segments
	Pathways
	Monitors
	Launches
	zoneCount
)

var zoneNames = [zoneCount]string{"symbols", "materials", "segments", "pathways", "monitors", "launches"}

func (z Zone) String() string {
	if z < 0 || z >= zoneCount {
		return fmt.Sprintf("Zone(%d)", int(z))
	}
	return zoneNames[z]
}

// zoneSeparator follows every zone so adjacent cursors never coincide
const zoneSeparator = "\n\n"

// MaterialSource materializes catalog entries; *material.Library implements it.
type MaterialSource interface {
	Block(ref material.Ref) (*material.Block, error)
}

// Options are the header parameters of a new document
type Options struct {
	Dimension          int
	Wavelength         float64
	BackgroundMaterial string
	Delta              float64 // relative index difference
	Width              float64
}

// Document is the in-memory circuit file. It is not safe for concurrent
// use; one owner builds it and then persists it with Save.
type Document struct {
	buf       []byte
	cursors   [zoneCount]int
	counts    [zoneCount]int
	materials MaterialSource
}

// New writes the header and six empty zones
func New(opts Options, materials MaterialSource) (*Document, error) {
	if opts.Dimension != 2 && opts.Dimension != 3 {
		return nil, &ConfigError{Field: "dimension", Reason: fmt.Sprintf("must be 2 or 3, got %d", opts.Dimension)}
	}
	if strings.TrimSpace(opts.BackgroundMaterial) == "" {
		return nil, &ConfigError{Field: "background_material", Reason: "cannot be empty"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "dimension = %d\n", opts.Dimension)
	fmt.Fprintf(&b, "wave = %s\n", FormatValue(opts.Wavelength))
	b.WriteString("free_space_wavelength = wave\n")
	fmt.Fprintf(&b, "background_material = %s\n", opts.BackgroundMaterial)
	b.WriteString("background_alpha = nimag($background_material)\n")
	b.WriteString("background_index = nreal($background_material)\n")
	fmt.Fprintf(&b, "Delta = %s\n", FormatValue(opts.Delta))
	b.WriteString("delta = (1/(sqrt(1-2*Delta))-1)*background_index\n")
	fmt.Fprintf(&b, "width = %s\n", FormatValue(opts.Width))
	b.WriteString("height = width\n")
	b.WriteString("structure = STRUCT_CHANNEL\n")

	d := &Document{materials: materials}
	d.buf = []byte(b.String())
	for z := Symbols; z < zoneCount; z++ {
		d.cursors[z] = len(d.buf)
		d.buf = append(d.buf, zoneSeparator...)
	}
	return d, nil
}

// insert splices record in at zone z's cursor: the tail from the cursor on is
// captured, the buffer truncated, the record written and the tail re-appended.
// z's cursor and every later one advance by len(record).
func (d *Document) insert(z Zone, record string) int {
	at := d.cursors[z]
	tail := append([]byte(nil), d.buf[at:]...)
	d.buf = append(d.buf[:at], record...)
	d.buf = append(d.buf, tail...)
	for later := z; later < zoneCount; later++ {
		d.cursors[later] += len(record)
	}
	d.counts[z]++
	return d.counts[z]
}

// DefineSymbol appends "name = value" to the symbols zone. Redefining a name
// appends another line.
func (d *Document) DefineSymbol(name string, value Expr) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\n=") {
		return 0, &ValidationError{Field: "symbol", Value: name, Reason: "invalid symbol name"}
	}
	return d.insert(Symbols, fmt.Sprintf("%s = %s\n", name, value.or("0"))), nil
}

// AddMaterial copies a library block into the materials zone under the next
// sequential id.
func (d *Document) AddMaterial(ref material.Ref) (int, error) {
	if d.materials == nil {
		return 0, &material.ResourceError{Path: string(ref.Category), Err: fmt.Errorf("no material library configured")}
	}
	block, err := d.materials.Block(ref)
	if err != nil {
		return 0, fmt.Errorf("add material %s: %w", ref, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "material %d\n", d.counts[Materials]+1)
	for _, line := range block.Body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("end material\n\n")
	return d.insert(Materials, b.String()), nil
}

// AddSegment appends a straight segment and returns its id
func (d *Document) AddSegment(s Segment) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	return d.insert(Segments, s.render(d.counts[Segments]+1)), nil
}

// AddArc appends an arc segment and returns its id; arcs share segment numbering.
func (d *Document) AddArc(a Arc) (int, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}
	return d.insert(Segments, a.render(d.counts[Segments]+1)), nil
}

// AddPathway appends an ordered route over segment ids
func (d *Document) AddPathway(segments []int) (int, error) {
	if len(segments) == 0 {
		return 0, &ValidationError{Field: "pathway", Value: "", Reason: "at least one segment required"}
	}
	return d.insert(Pathways, renderPathway(d.counts[Pathways]+1, segments)), nil
}

// AddMonitor attaches a monitor to a pathway
func (d *Document) AddMonitor(pathway int, kind MonitorKind) (int, error) {
	if kind < 0 || int(kind) >= len(monitorTokens) {
		return 0, &ValidationError{Field: "monitor_type", Value: kind.String(), Reason: "unknown monitor kind"}
	}
	return d.insert(Monitors, renderMonitor(d.counts[Monitors]+1, pathway, kind)), nil
}

// AddLaunch attaches a launch field to a pathway. The first launch also
// declares the launch_type symbol.
func (d *Document) AddLaunch(pathway int, kind LaunchKind) (int, error) {
	if kind < 0 || int(kind) >= len(launchTokens) {
		return 0, &ValidationError{Field: "launch_type", Value: kind.String(), Reason: "unknown launch kind"}
	}
	id := d.insert(Launches, renderLaunch(d.counts[Launches]+1, pathway, kind))
	if id == 1 {
		d.insert(Symbols, fmt.Sprintf("launch_type = %s\n", kind))
	}
	return id, nil
}

// Cursors returns the insertion offset of every zone, in zone order
func (d *Document) Cursors() [6]int {
	return d.cursors
}

// Count returns how many records a zone holds
func (d *Document) Count(z Zone) int {
	return d.counts[z]
}

// Tail returns everything from zone z's cursor to the end
func (d *Document) Tail(z Zone) string {
	return string(d.buf[d.cursors[z]:])
}

// Len returns the document size in bytes
func (d *Document) Len() int { return len(d.buf) }

func (d *Document) String() string { return string(d.buf) }

// WriteTo serializes the document
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.buf)
	return int64(n), err
}

// Save writes the document to path, creating parent directories
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	if err := os.WriteFile(path, d.buf, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	logger.Info("document saved", "path", path, "bytes", len(d.buf),
		"segments", d.counts[Segments], "pathways", d.counts[Pathways])
	return nil
}
