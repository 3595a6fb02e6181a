// Package layout reads circuit layouts written in HCL and replays them, in
// source order, onto a document.
package layout

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/material"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// Layout is a decoded layout file ready to be built
type Layout struct {
	Filename string
	Header   document.Options
	ops      []op
}

type op struct {
	rng   hcl.Range
	what  string
	apply func(b *builder) error
}

type builder struct {
	doc      *document.Document
	segments map[string]int
	pathways map[string]int
}

// Load reads and decodes a layout file
func Load(path string) (*Layout, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes layout source. Every block is validated here; label
// references are resolved when the layout is built.
func Parse(src []byte, filename string) (*Layout, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse layout %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode layout %s: %w", filename, diags)
	}

	headers := content.Blocks.OfType("document")
	if len(headers) != 1 {
		return nil, fmt.Errorf("layout %s: expected exactly one document block, found %d", filename, len(headers))
	}
	var h hclHeader
	if diags := gohcl.DecodeBody(headers[0].Body, nil, &h); diags.HasErrors() {
		return nil, fmt.Errorf("layout %s: %w", filename, diags)
	}

	l := &Layout{
		Filename: filename,
		Header: document.Options{
			Dimension:          h.Dimension,
			Wavelength:         h.Wavelength,
			BackgroundMaterial: h.Background,
			Delta:              h.Delta,
			Width:              h.Width,
		},
	}

	seen := map[string]bool{}
	for _, block := range content.Blocks {
		if block.Type == "document" {
			continue
		}
		if block.Type == "segment" || block.Type == "arc" || block.Type == "pathway" {
			key := block.Type + "/" + block.Labels[0]
			if block.Type == "arc" {
				key = "segment/" + block.Labels[0]
			}
			if seen[key] {
				return nil, fmt.Errorf("layout %s: %w", filename,
					diagError(block.DefRange, "Duplicate label", fmt.Sprintf("%s %q is already defined", block.Type, block.Labels[0])))
			}
			seen[key] = true
		}

		o, diags := decodeBlock(block)
		if diags.HasErrors() {
			return nil, fmt.Errorf("layout %s: %w", filename, diags)
		}
		l.ops = append(l.ops, o...)
	}
	return l, nil
}

func decodeBlock(block *hcl.Block) ([]op, hcl.Diagnostics) {
	switch block.Type {
	case "symbols":
		return decodeSymbols(block)
	case "material":
		return decodeMaterial(block)
	case "segment":
		var s hclSegment
		if diags := gohcl.DecodeBody(block.Body, nil, &s); diags.HasErrors() {
			return nil, diags
		}
		return []op{{rng: block.DefRange, what: "segment " + block.Labels[0], apply: func(b *builder) error {
			seg, err := b.segment(&s)
			if err != nil {
				return err
			}
			id, err := b.doc.AddSegment(seg)
			b.segments[block.Labels[0]] = id
			return err
		}}}, nil
	case "arc":
		var a hclArc
		if diags := gohcl.DecodeBody(block.Body, nil, &a); diags.HasErrors() {
			return nil, diags
		}
		return []op{{rng: block.DefRange, what: "arc " + block.Labels[0], apply: func(b *builder) error {
			arc, err := b.arc(&a)
			if err != nil {
				return err
			}
			id, err := b.doc.AddArc(arc)
			b.segments[block.Labels[0]] = id
			return err
		}}}, nil
	case "pathway":
		var p hclPathway
		if diags := gohcl.DecodeBody(block.Body, nil, &p); diags.HasErrors() {
			return nil, diags
		}
		return []op{{rng: block.DefRange, what: "pathway " + block.Labels[0], apply: func(b *builder) error {
			ids := make([]int, 0, len(p.Segments))
			for _, s := range p.Segments {
				id, err := resolve(b.segments, "segment", s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			id, err := b.doc.AddPathway(ids)
			b.pathways[block.Labels[0]] = id
			return err
		}}}, nil
	case "monitor":
		var m hclAttachment
		if diags := gohcl.DecodeBody(block.Body, nil, &m); diags.HasErrors() {
			return nil, diags
		}
		kind, err := document.ParseMonitorKind(m.Kind)
		if err != nil {
			return nil, diagError(block.DefRange, "Invalid monitor kind", err.Error())
		}
		return []op{{rng: block.DefRange, what: "monitor", apply: func(b *builder) error {
			pid, err := resolve(b.pathways, "pathway", m.Pathway)
			if err != nil {
				return err
			}
			_, err = b.doc.AddMonitor(pid, kind)
			return err
		}}}, nil
	case "launch":
		var m hclAttachment
		if diags := gohcl.DecodeBody(block.Body, nil, &m); diags.HasErrors() {
			return nil, diags
		}
		kind, err := document.ParseLaunchKind(m.Kind)
		if err != nil {
			return nil, diagError(block.DefRange, "Invalid launch kind", err.Error())
		}
		return []op{{rng: block.DefRange, what: "launch", apply: func(b *builder) error {
			pid, err := resolve(b.pathways, "pathway", m.Pathway)
			if err != nil {
				return err
			}
			_, err = b.doc.AddLaunch(pid, kind)
			return err
		}}}, nil
	}
	return nil, diagError(block.DefRange, "Unsupported block", block.Type)
}

func decodeSymbols(block *hcl.Block) ([]op, hcl.Diagnostics) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	sorted := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Start.Byte < sorted[j].Range.Start.Byte })

	ops := make([]op, 0, len(sorted))
	for _, a := range sorted {
		v, vd := a.Expr.Value(nil)
		if vd.HasErrors() {
			return nil, vd
		}
		e, err := exprOf(v)
		if err != nil {
			return nil, diagError(a.Range, "Invalid symbol value", err.Error())
		}
		name := a.Name
		ops = append(ops, op{rng: a.Range, what: "symbol " + name, apply: func(b *builder) error {
			_, err := b.doc.DefineSymbol(name, e)
			return err
		}})
	}
	return ops, nil
}

func decodeMaterial(block *hcl.Block) ([]op, hcl.Diagnostics) {
	if _, diags := block.Body.JustAttributes(); diags.HasErrors() {
		return nil, diags
	}
	cat, err := material.ParseCategory(block.Labels[0])
	if err != nil {
		return nil, diagError(block.DefRange, "Unknown material category", err.Error())
	}
	ref, err := material.Lookup(cat, block.Labels[1])
	if err != nil {
		return nil, diagError(block.DefRange, "Unknown material", err.Error())
	}
	return []op{{rng: block.DefRange, what: "material " + ref.String(), apply: func(b *builder) error {
		_, err := b.doc.AddMaterial(ref)
		return err
	}}}, nil
}

// Build creates a document from the header and replays every block onto it
func (l *Layout) Build(materials document.MaterialSource) (*document.Document, error) {
	doc, err := document.New(l.Header, materials)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", l.Filename, err)
	}
	b := &builder{doc: doc, segments: map[string]int{}, pathways: map[string]int{}}
	for _, o := range l.ops {
		if err := o.apply(b); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", o.rng, o.what, err)
		}
	}
	logger.Debug("layout built", "file", l.Filename, "records", len(l.ops),
		"segments", doc.Count(document.Segments), "pathways", doc.Count(document.Pathways))
	return doc, nil
}

func resolve(labels map[string]int, kind, ref string) (int, error) {
	if id, ok := labels[ref]; ok {
		return id, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n > 0 {
		return n, nil
	}
	return 0, fmt.Errorf("unknown %s %q", kind, ref)
}

func (b *builder) point(p *hclPoint) (document.Point, error) {
	var pt document.Point
	if p == nil {
		return pt, nil
	}
	axes := map[string]*document.Position{"x": &pt.X, "y": &pt.Y, "z": &pt.Z}
	for name, v := range map[string]cty.Value{"x": p.X, "y": p.Y, "z": p.Z} {
		e, err := exprOf(v)
		if err != nil {
			return pt, fmt.Errorf("%s: %w", name, err)
		}
		*axes[name] = document.Abs(e)
	}

	set := func(rels []*hclRelative, kind document.PositionKind) error {
		for _, r := range rels {
			dst, ok := axes[r.Axis]
			if !ok {
				return fmt.Errorf("unknown axis %q", r.Axis)
			}
			if dst.Value != "" || dst.Kind != document.Absolute {
				return fmt.Errorf("axis %s is set more than once", r.Axis)
			}
			anchor, err := resolve(b.segments, "segment", r.From)
			if err != nil {
				return err
			}
			val, err := exprOf(r.Value)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Axis, err)
			}
			*dst = document.Position{Kind: kind, Value: val, Vertex: document.Vertex(r.Vertex), Anchor: anchor}
		}
		return nil
	}
	if err := set(p.Offsets, document.RelativeOffset); err != nil {
		return pt, err
	}
	if err := set(p.Angles, document.RelativeAngle); err != nil {
		return pt, err
	}

	var err error
	if pt.Width, err = exprOf(p.Width); err != nil {
		return pt, fmt.Errorf("width: %w", err)
	}
	if pt.Height, err = exprOf(p.Height); err != nil {
		return pt, fmt.Errorf("height: %w", err)
	}
	return pt, nil
}

func taperOf(s *string) (document.Taper, error) {
	if s == nil {
		return document.TaperLinear, nil
	}
	return document.ParseTaper(*s)
}

func (b *builder) segment(s *hclSegment) (document.Segment, error) {
	var seg document.Segment
	var err error
	if seg.Taper, err = taperOf(s.Taper); err != nil {
		return seg, err
	}
	if seg.Begin, err = b.point(s.Begin); err != nil {
		return seg, fmt.Errorf("begin: %w", err)
	}
	if seg.End, err = b.point(s.End); err != nil {
		return seg, fmt.Errorf("end: %w", err)
	}
	return seg, nil
}

func (b *builder) arc(a *hclArc) (document.Arc, error) {
	var arc document.Arc
	var err error
	if arc.Taper, err = taperOf(a.Taper); err != nil {
		return arc, err
	}
	if arc.Begin, err = b.point(a.Begin); err != nil {
		return arc, fmt.Errorf("begin: %w", err)
	}
	for _, f := range []struct {
		dst *document.Expr
		v   cty.Value
		n   string
	}{
		{&arc.Radius, a.Radius, "radius"},
		{&arc.StartAngle, a.StartAngle, "start_angle"},
		{&arc.EndAngle, a.EndAngle, "end_angle"},
		{&arc.EndWidth, a.EndWidth, "end_width"},
		{&arc.EndHeight, a.EndHeight, "end_height"},
	} {
		if *f.dst, err = exprOf(f.v); err != nil {
			return arc, fmt.Errorf("%s: %w", f.n, err)
		}
	}
	return arc, nil
}
