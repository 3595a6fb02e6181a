package layout

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "document"},
		{Type: "symbols"},
		{Type: "material", LabelNames: []string{"category", "name"}},
		{Type: "segment", LabelNames: []string{"name"}},
		{Type: "arc", LabelNames: []string{"name"}},
		{Type: "pathway", LabelNames: []string{"name"}},
		{Type: "monitor"},
		{Type: "launch"},
	},
}

type hclHeader struct {
	Dimension  int     `hcl:"dimension"`
	Wavelength float64 `hcl:"wavelength"`
	Background string  `hcl:"background"`
	Delta      float64 `hcl:"delta"`
	Width      float64 `hcl:"width"`
}

type hclRelative struct {
	Axis   string    `hcl:"axis,label"`
	From   string    `hcl:"from"`
	Vertex string    `hcl:"vertex"`
	Value  cty.Value `hcl:"value,optional"`
}

type hclPoint struct {
	X       cty.Value      `hcl:"x,optional"`
	Y       cty.Value      `hcl:"y,optional"`
	Z       cty.Value      `hcl:"z,optional"`
	Width   cty.Value      `hcl:"width,optional"`
	Height  cty.Value      `hcl:"height,optional"`
	Offsets []*hclRelative `hcl:"offset,block"`
	Angles  []*hclRelative `hcl:"angle,block"`
}

type hclSegment struct {
	Taper *string   `hcl:"taper,optional"`
	Begin *hclPoint `hcl:"begin,block"`
	End   *hclPoint `hcl:"end,block"`
}

type hclArc struct {
	Taper      *string   `hcl:"taper,optional"`
	Radius     cty.Value `hcl:"radius"`
	StartAngle cty.Value `hcl:"start_angle,optional"`
	EndAngle   cty.Value `hcl:"end_angle,optional"`
	EndWidth   cty.Value `hcl:"end_width,optional"`
	EndHeight  cty.Value `hcl:"end_height,optional"`
	Begin      *hclPoint `hcl:"begin,block"`
}

type hclPathway struct {
	Segments []string `hcl:"segments"`
}

type hclAttachment struct {
	Pathway string `hcl:"pathway"`
	Kind    string `hcl:"kind"`
}

// exprOf turns a literal into a document value: numbers are rendered, strings
// pass through as engine expressions, a missing attribute yields "".
func exprOf(v cty.Value) (document.Expr, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is not known")
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return document.Num(f), nil
	case cty.String:
		return document.Expr(v.AsString()), nil
	default:
		return "", fmt.Errorf("expected number or string, got %s", v.Type().FriendlyName())
	}
}

func diagError(rng hcl.Range, summary, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}
