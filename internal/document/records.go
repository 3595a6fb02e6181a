package document

import (
	"fmt"
	"strings"
)

// Vertex names an end of an anchor segment
type Vertex string

const (
	Begin Vertex = "begin"
	End   Vertex = "end"
)

// PositionKind tags how one axis coordinate is expressed
type PositionKind int

const (
	Absolute PositionKind = iota
	RelativeOffset
	RelativeAngle
)

func (k PositionKind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case RelativeOffset:
		return "offset"
	case RelativeAngle:
		return "angle"
	}
	return fmt.Sprintf("PositionKind(%d)", int(k))
}

// Position is one axis coordinate. Vertex and Anchor only apply to the
// relative kinds.
type Position struct {
	Kind   PositionKind
	Value  Expr
	Vertex Vertex
	Anchor int
}

// Abs places an axis at an absolute coordinate
func Abs(v Expr) Position { return Position{Kind: Absolute, Value: v} }

// Offset places an axis relative to a vertex of another segment
func Offset(v Expr, vertex Vertex, anchor int) Position {
	return Position{Kind: RelativeOffset, Value: v, Vertex: vertex, Anchor: anchor}
}

// Angle places an axis by angle relative to a vertex of another segment
func Angle(v Expr, vertex Vertex, anchor int) Position {
	return Position{Kind: RelativeAngle, Value: v, Vertex: vertex, Anchor: anchor}
}

func (p Position) validate(field string) error {
	switch p.Kind {
	case Absolute:
		if p.Vertex != "" && p.Vertex != Begin && p.Vertex != End {
			return &ValidationError{Field: field, Value: string(p.Vertex), Reason: "vertex must be begin or end"}
		}
	case RelativeOffset, RelativeAngle:
		if p.Vertex != Begin && p.Vertex != End {
			return &ValidationError{Field: field, Value: string(p.Vertex), Reason: "vertex must be begin or end"}
		}
	default:
		return &ValidationError{Field: field, Value: p.Kind.String(), Reason: "unknown position kind"}
	}
	return nil
}

func (p Position) render() string {
	v := p.Value.or("0")
	switch p.Kind {
	case RelativeOffset:
		return fmt.Sprintf("%s rel %s segment %d", v, p.Vertex, p.Anchor)
	case RelativeAngle:
		return fmt.Sprintf("%s deg rel %s segment %d", v, p.Vertex, p.Anchor)
	default:
		return v
	}
}

// Point is a segment vertex: three axes plus the cross-section there.
// Empty Width and Height fall back to the header's width and height symbols.
type Point struct {
	X, Y, Z       Position
	Width, Height Expr
}

func (pt Point) validate(prefix string) error {
	for _, ax := range []struct {
		name string
		pos  Position
	}{{"x", pt.X}, {"y", pt.Y}, {"z", pt.Z}} {
		if err := ax.pos.validate(prefix + "." + ax.name); err != nil {
			return err
		}
	}
	return nil
}

func (pt Point) writeAxes(b *strings.Builder, prefix string) {
	fmt.Fprintf(b, "\t%s.x = %s\n", prefix, pt.X.render())
	fmt.Fprintf(b, "\t%s.y = %s\n", prefix, pt.Y.render())
	fmt.Fprintf(b, "\t%s.z = %s\n", prefix, pt.Z.render())
}

func (pt Point) writeSize(b *strings.Builder, prefix string) {
	fmt.Fprintf(b, "\t%s.width = %s\n", prefix, pt.Width.or("width"))
	fmt.Fprintf(b, "\t%s.height = %s\n", prefix, pt.Height.or("height"))
}

// Segment is a straight directed element
type Segment struct {
	Taper      Taper
	Begin, End Point
}

func (s Segment) validate() error {
	if err := s.Begin.validate("begin"); err != nil {
		return err
	}
	if err := s.End.validate("end"); err != nil {
		return err
	}
	return validTaper(s.Taper)
}

func (s Segment) render(id int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "segment %d\n", id)
	fmt.Fprintf(&b, "\twidth_taper = %s\n", s.Taper)
	s.Begin.writeAxes(&b, "begin")
	s.Begin.writeSize(&b, "begin")
	s.End.writeAxes(&b, "end")
	s.End.writeSize(&b, "end")
	b.WriteString("end segment\n\n")
	return b.String()
}

// Arc is a circular segment anchored at its begin vertex; the end position
// follows from radius and angles.
type Arc struct {
	Taper      Taper
	Begin      Point
	Radius     Expr
	StartAngle Expr
	EndAngle   Expr
	EndWidth   Expr
	EndHeight  Expr
}

func (a Arc) validate() error {
	if err := a.Begin.validate("begin"); err != nil {
		return err
	}
	if strings.TrimSpace(string(a.Radius)) == "" {
		return &ValidationError{Field: "arc_radius", Value: "", Reason: "radius is required"}
	}
	return validTaper(a.Taper)
}

func (a Arc) render(id int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "segment %d\n", id)
	fmt.Fprintf(&b, "\twidth_taper = %s\n", a.Taper)
	b.WriteString("\tposition_taper = TAPER_ARC\n")
	b.WriteString("\tarc_type = ARC_FREE\n")
	fmt.Fprintf(&b, "\tarc_radius = %s\n", a.Radius)
	fmt.Fprintf(&b, "\tarc_iangle = %s\n", a.StartAngle.or("0"))
	fmt.Fprintf(&b, "\tarc_fangle = %s\n", a.EndAngle.or("0"))
	a.Begin.writeAxes(&b, "begin")
	a.Begin.writeSize(&b, "begin")
	Point{Width: a.EndWidth, Height: a.EndHeight}.writeSize(&b, "end")
	b.WriteString("end segment\n\n")
	return b.String()
}

func validTaper(t Taper) error {
	if t < 0 || int(t) >= len(taperTokens) {
		return &ValidationError{Field: "width_taper", Value: t.String(), Reason: "unknown taper"}
	}
	return nil
}

func renderPathway(id int, segments []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pathway %d\n", id)
	for _, s := range segments {
		fmt.Fprintf(&b, "\t%d\n", s)
	}
	b.WriteString("end pathway\n\n")
	return b.String()
}

func renderMonitor(id, pathway int, kind MonitorKind) string {
	return fmt.Sprintf("monitor %d\n\tpathway = %d\n\tmonitor_type = %s\n\tmonitor_tilt = 1\nend monitor\n\n",
		id, pathway, kind)
}

func renderLaunch(id, pathway int, kind LaunchKind) string {
	return fmt.Sprintf("launch_field %d\n\tlaunch_pathway = %d\n\tlaunch_type = %s\nend launch_field\n\n",
		id, pathway, kind)
}
