package document

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/material"
	"github.com/google/go-cmp/cmp"
)

type fakeLibrary struct {
	blocks map[material.Ref][]string
	err    error
}

func (f *fakeLibrary) Block(ref material.Ref) (*material.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.blocks[ref]
	if !ok {
		return nil, &material.LookupError{Category: ref.Category, Index: ref.Index, Reason: "missing"}
	}
	return &material.Block{Ref: ref, Body: body}, nil
}

func newDoc(t *testing.T) *Document {
	t.Helper()
	d, err := New(Options{Dimension: 3, Wavelength: 1.55, BackgroundMaterial: "SiO2", Delta: 0.0075, Width: 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func assertOrdered(t *testing.T, d *Document) {
	t.Helper()
	c := d.Cursors()
	for i := 1; i < len(c); i++ {
		if c[i] <= c[i-1] {
			t.Fatalf("cursors not strictly ordered: %v", c)
		}
	}
	if c[len(c)-1] > d.Len() {
		t.Fatalf("last cursor %d beyond document length %d", c[len(c)-1], d.Len())
	}
}

func TestNewRejectsDimension(t *testing.T) {
	for _, dim := range []int{0, 1, 4} {
		_, err := New(Options{Dimension: dim, BackgroundMaterial: "SiO2"}, nil)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("dimension %d: expected ErrConfig, got %v", dim, err)
		}
		var ce *ConfigError
		if !errors.As(err, &ce) || ce.Field != "dimension" {
			t.Errorf("dimension %d: expected ConfigError on dimension, got %v", dim, err)
		}
	}
}

func TestNewWritesHeaderAndEmptyZones(t *testing.T) {
	d := newDoc(t)
	want := strings.Join([]string{
		"dimension = 3",
		"wave = 1.55",
		"free_space_wavelength = wave",
		"background_material = SiO2",
		"background_alpha = nimag($background_material)",
		"background_index = nreal($background_material)",
		"Delta = 0.0075",
		"delta = (1/(sqrt(1-2*Delta))-1)*background_index",
		"width = 4",
		"height = width",
		"structure = STRUCT_CHANNEL",
	}, "\n") + "\n" + strings.Repeat("\n\n", 6)

	if diff := cmp.Diff(want, d.String()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	assertOrdered(t, d)
	c := d.Cursors()
	for i := 1; i < len(c); i++ {
		if c[i]-c[i-1] != 2 {
			t.Errorf("empty zones should be two bytes apart, got %v", c)
		}
	}
}

func TestZoneIDsAreSequential(t *testing.T) {
	d := newDoc(t)
	for want := 1; want <= 3; want++ {
		id, err := d.AddSegment(Segment{})
		if err != nil {
			t.Fatalf("AddSegment: %v", err)
		}
		if id != want {
			t.Errorf("segment id = %d, expected %d", id, want)
		}
	}
	id, err := d.AddArc(Arc{Radius: "100"})
	if err != nil || id != 4 {
		t.Errorf("arc should continue segment numbering, got %d (%v)", id, err)
	}
	pid, _ := d.AddPathway([]int{1, 2})
	mid, _ := d.AddMonitor(pid, MonitorWGModePower)
	if pid != 1 || mid != 1 {
		t.Errorf("pathway/monitor ids should start at 1, got %d/%d", pid, mid)
	}
}

func TestSegmentRecord(t *testing.T) {
	d := newDoc(t)
	_, err := d.AddSegment(Segment{
		Taper: TaperExponential,
		Begin: Point{X: Abs("0"), Y: Abs("0"), Z: Abs("0"), Width: "Win"},
		End:   Point{X: Offset("Gap", End, 1), Y: Abs("0"), Z: Angle("30", Begin, 2), Width: "Wout", Height: "2"},
	})
	if err != nil {
		t.Fatalf("AddSegment: %v", err)
	}

	want := "segment 1\n" +
		"\twidth_taper = TAPER_EXPONENTIAL\n" +
		"\tbegin.x = 0\n\tbegin.y = 0\n\tbegin.z = 0\n" +
		"\tbegin.width = Win\n\tbegin.height = height\n" +
		"\tend.x = Gap rel end segment 1\n\tend.y = 0\n\tend.z = 30 deg rel begin segment 2\n" +
		"\tend.width = Wout\n\tend.height = 2\n" +
		"end segment\n\n"
	if !strings.Contains(d.String(), want) {
		t.Fatalf("segment record missing, document:\n%s", d.String())
	}
}

func TestArcRecord(t *testing.T) {
	d := newDoc(t)
	_, err := d.AddArc(Arc{
		Begin:      Point{X: Offset("0", End, 1), Z: Offset("0", End, 1)},
		Radius:     "R",
		StartAngle: "0",
		EndAngle:   "15",
	})
	if err != nil {
		t.Fatalf("AddArc: %v", err)
	}
	for _, frag := range []string{
		"\tposition_taper = TAPER_ARC\n\tarc_type = ARC_FREE\n\tarc_radius = R\n\tarc_iangle = 0\n\tarc_fangle = 15\n",
		"\tbegin.x = 0 rel end segment 1\n",
		"\tend.width = width\n\tend.height = height\nend segment\n\n",
	} {
		if !strings.Contains(d.String(), frag) {
			t.Errorf("arc record missing %q", frag)
		}
	}
	if strings.Contains(d.String(), "end.x") {
		t.Error("arc should not write an end position")
	}
}

func TestInvalidVertexRejected(t *testing.T) {
	tests := []struct {
		name string
		call func(d *Document) error
	}{
		{"segment begin", func(d *Document) error {
			_, err := d.AddSegment(Segment{Begin: Point{X: Offset("1", "middle", 1)}})
			return err
		}},
		{"segment end", func(d *Document) error {
			_, err := d.AddSegment(Segment{End: Point{Z: Angle("1", "", 1)}})
			return err
		}},
		{"arc begin", func(d *Document) error {
			_, err := d.AddArc(Arc{Radius: "1", Begin: Point{Y: Offset("1", "start", 1)}})
			return err
		}},
		{"absolute with bad token", func(d *Document) error {
			_, err := d.AddSegment(Segment{Begin: Point{X: Position{Value: "1", Vertex: "mid"}}})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(t)
			before := d.String()
			err := tt.call(d)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if d.String() != before {
				t.Error("rejected insertion modified the document")
			}
			if d.Count(Segments) != 0 {
				t.Error("rejected insertion consumed an id")
			}
		})
	}
}

func TestFirstLaunchMirrorsSymbol(t *testing.T) {
	d := newDoc(t)
	if _, err := d.AddLaunch(1, LaunchGaussian); err != nil {
		t.Fatalf("AddLaunch: %v", err)
	}
	if _, err := d.AddLaunch(2, LaunchPlaneWave); err != nil {
		t.Fatalf("AddLaunch: %v", err)
	}

	text := d.String()
	if strings.Count(text, "\nlaunch_type = ") != 1 {
		t.Fatalf("expected one launch_type symbol:\n%s", text)
	}
	if !strings.Contains(text, "launch_type = LAUNCH_GAUSSIAN\n") {
		t.Error("first launch kind not mirrored")
	}
	if d.Count(Symbols) != 1 {
		t.Errorf("expected 1 symbol record, got %d", d.Count(Symbols))
	}
	symIdx := strings.Index(text, "launch_type = LAUNCH_GAUSSIAN\n")
	launchIdx := strings.Index(text, "launch_field 1\n")
	if symIdx > launchIdx {
		t.Error("mirrored symbol should sit in the symbols zone before the launches")
	}
	assertOrdered(t, d)
}

func TestAddMaterial(t *testing.T) {
	sio2, _ := material.Lookup(material.Dielectrics, "SiO2")
	lib := &fakeLibrary{blocks: map[material.Ref][]string{sio2: {"\tname = SiO2", "\tnr = 1.444"}}}
	d, err := New(Options{Dimension: 2, Wavelength: 1.55, BackgroundMaterial: "1", Width: 4}, lib)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := d.AddMaterial(sio2)
	if err != nil || id != 1 {
		t.Fatalf("AddMaterial = %d, %v", id, err)
	}
	id, _ = d.AddMaterial(sio2)
	if id != 2 {
		t.Errorf("second material id = %d, expected 2", id)
	}
	if !strings.Contains(d.String(), "material 2\n\tname = SiO2\n\tnr = 1.444\nend material\n\n") {
		t.Errorf("material block not materialized:\n%s", d.String())
	}

	ito, _ := material.Lookup(material.Dielectrics, "ITO")
	if _, err := d.AddMaterial(ito); !errors.Is(err, material.ErrLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}

	lib.err = &material.ResourceError{Path: "x.mlb", Err: os.ErrPermission}
	if _, err := d.AddMaterial(sio2); !errors.Is(err, material.ErrResource) {
		t.Errorf("expected resource error, got %v", err)
	}

	noLib := newDoc(t)
	if _, err := noLib.AddMaterial(sio2); !errors.Is(err, material.ErrResource) {
		t.Errorf("expected resource error without library, got %v", err)
	}
}

func TestCursorsStayOrderedUnderRandomInsertions(t *testing.T) {
	sio2, _ := material.Lookup(material.Dielectrics, "SiO2")
	lib := &fakeLibrary{blocks: map[material.Ref][]string{sio2: {"\tnr = 1.444"}}}
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 20; trial++ {
		d, err := New(Options{Dimension: 3, Wavelength: 1.31, BackgroundMaterial: "1", Width: 6}, lib)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for step := 0; step < 40; step++ {
			zone := Zone(rng.IntN(int(zoneCount)))
			tailBefore := d.Tail(zone)
			lenBefore := d.Len()

			switch zone {
			case Symbols:
				_, err = d.DefineSymbol("s", Num(rng.Float64()))
			case Materials:
				_, err = d.AddMaterial(sio2)
			case Segments:
				_, err = d.AddSegment(Segment{End: Point{Z: Abs(Num(float64(step)))}})
			case Pathways:
				_, err = d.AddPathway([]int{1, step + 1})
			case Monitors:
				_, err = d.AddMonitor(1, MonitorKind(rng.IntN(len(monitorTokens))))
			case Launches:
				_, err = d.AddLaunch(1, LaunchKind(rng.IntN(len(launchTokens))))
			}
			if err != nil {
				t.Fatalf("trial %d step %d (%s): %v", trial, step, zone, err)
			}

			assertOrdered(t, d)
			// the mirrored launch_type symbol is a second insertion ahead of the zone
			if zone == Launches && d.Count(Launches) == 1 {
				continue
			}
			if got := d.Tail(zone); got != tailBefore {
				t.Fatalf("trial %d step %d: tail of %s changed across insertion", trial, step, zone)
			}
			if d.Len() <= lenBefore {
				t.Fatalf("document did not grow")
			}
		}
	}
}

func TestZonesKeepTheirOrder(t *testing.T) {
	d := newDoc(t)
	// insert in reverse zone order; serialized order must still follow zones
	_, _ = d.AddLaunch(1, LaunchCompMode)
	_, _ = d.AddMonitor(1, MonitorTotalPower)
	_, _ = d.AddPathway([]int{1})
	_, _ = d.AddSegment(Segment{})
	_, _ = d.DefineSymbol("Lta", "300")

	text := d.String()
	order := []string{"Lta = 300", "segment 1", "pathway 1", "monitor 1", "launch_field 1"}
	last := -1
	for _, marker := range order {
		i := strings.Index(text, marker)
		if i < 0 || i < last {
			t.Fatalf("%q out of order in:\n%s", marker, text)
		}
		last = i
	}
}

func TestWriteToAndSave(t *testing.T) {
	d := newDoc(t)
	_, _ = d.DefineSymbol("Gap", "2.5")

	var buf bytes.Buffer
	n, err := d.WriteTo(&buf)
	if err != nil || int(n) != d.Len() {
		t.Fatalf("WriteTo = %d, %v", n, err)
	}

	path := filepath.Join(t.TempDir(), "nested", "mmi.ind")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Error("saved file differs from WriteTo output")
	}
}

func TestDefineSymbolValidation(t *testing.T) {
	d := newDoc(t)
	for _, bad := range []string{"", "a b", "x=y"} {
		if _, err := d.DefineSymbol(bad, "1"); !errors.Is(err, ErrValidation) {
			t.Errorf("name %q: expected ErrValidation, got %v", bad, err)
		}
	}
	_, _ = d.DefineSymbol("Lta", "100")
	_, _ = d.DefineSymbol("Lta", "200")
	if strings.Count(d.String(), "Lta = ") != 2 {
		t.Error("redefinition should append a second line")
	}
}

func TestParseVocabulary(t *testing.T) {
	if k, err := ParseMonitorKind("wgmode_power"); err != nil || k != MonitorWGModePower {
		t.Errorf("ParseMonitorKind = %v, %v", k, err)
	}
	if k, err := ParseLaunchKind("LAUNCH_COMPMODE"); err != nil || k != LaunchCompMode {
		t.Errorf("ParseLaunchKind = %v, %v", k, err)
	}
	if k, err := ParseTaper("quadratic"); err != nil || k != TaperQuadratic {
		t.Errorf("ParseTaper = %v, %v", k, err)
	}
	if _, err := ParseLaunchKind("laser"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
