package scene

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/goccy/go-graphviz"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/ninepatch"
)

// Layer names a render surface.
type Layer string

const (
	LayerMain    Layer = "main"
	LayerOverlay Layer = "overlay"
)

// Step is one draw call. Dst is the affected area in canvas pixels; for
// rotated decorations it is the bounding box of the rotated square.
type Step struct {
	Layer    Layer           `json:"layer"`
	Kind     string          `json:"kind"`
	Label    string          `json:"label"`
	Src      image.Rectangle `json:"src"`
	Dst      image.Rectangle `json:"dst"`
	Rotation float64         `json:"rotation,omitempty"`
}

// DrawPlan lists the draw calls Render would make for a snapshot, in order.
type DrawPlan struct {
	Canvas image.Point `json:"canvas"`
	Steps  []Step      `json:"steps"`
}

// Plan returns the draw calls for s without drawing anything. It applies
// the same skip rules as Render.
func Plan(s editor.Snapshot) DrawPlan {
	p := DrawPlan{Canvas: s.Canvas}

	if img := s.Image.Raster; img != nil && !s.Photo.Empty() {
		if dst := pixelRect(s.Photo); !dst.Empty() && !img.Bounds().Empty() {
			p.Steps = append(p.Steps, Step{Layer: LayerMain, Kind: "photo", Label: s.Image.Ref, Src: img.Bounds(), Dst: dst})
		}
	}

	if b := s.Border; b.Active && b.Raster != nil {
		src := b.Raster.Bounds()
		slices := b.Config.Slices(src.Dx(), src.Dy())
		for _, reg := range ninepatch.Plan(src, slices, s.Layout.Widths, s.Canvas) {
			p.Steps = append(p.Steps, Step{Layer: LayerMain, Kind: "border", Label: reg.Kind.String(), Src: reg.Src, Dst: reg.Dst})
		}
	}

	if s.Canvas.X > 0 && s.Canvas.Y > 0 {
		w, h := float64(s.Canvas.X), float64(s.Canvas.Y)
		for _, d := range s.Decorations {
			img := sticker(s, d)
			if img == nil {
				continue
			}
			p.Steps = append(p.Steps, Step{
				Layer:    LayerMain,
				Kind:     "decoration",
				Label:    d.ID,
				Src:      img.Bounds(),
				Dst:      bounds(d, w, h),
				Rotation: d.Rotation,
			})
		}
		if d, ok := s.Selected(); ok && s.Mode == editor.ModeDecoration && d.Size() > 0 {
			p.Steps = append(p.Steps, Step{Layer: LayerOverlay, Kind: "outline", Label: d.ID, Dst: bounds(d, w, h), Rotation: d.Rotation})
		}
	}
	return p
}

// bounds is the pixel bounding box of d's rotated square.
func bounds(d decoration.Decoration, w, h float64) image.Rectangle {
	corners := decoration.Corners(d, w, h)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minX, maxX = math.Min(minX, c[0]), math.Max(maxX, c[0])
		minY, maxY = math.Min(minY, c[1]), math.Max(maxY, c[1])
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Count returns the number of steps of the given kind.
func (p DrawPlan) Count(kind string) int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func fmtRect(r image.Rectangle) string {
	return fmt.Sprintf("%d,%d %dx%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// DOT converts the plan to Graphviz DOT. Steps are chained in draw order
// and grouped into one cluster per layer.
func (p DrawPlan) DOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph plan {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	fmt.Fprintf(&buf, "  canvas [label=%q, shape=note];\n", fmt.Sprintf("canvas %dx%d", p.Canvas.X, p.Canvas.Y))

	for _, layer := range []Layer{LayerMain, LayerOverlay} {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%s {\n", layer)
		fmt.Fprintf(&buf, "    label=%q;\n", layer)
		for i, s := range p.Steps {
			if s.Layer != layer {
				continue
			}
			label := fmt.Sprintf("%s %s\n%s", s.Kind, s.Label, fmtRect(s.Dst))
			attrs := fmt.Sprintf("label=%q", label)
			if s.Kind == "outline" {
				attrs += ", style=\"rounded,dashed\", color=\"" + SelectionColor + "\""
			}
			fmt.Fprintf(&buf, "    s%d [%s];\n", i, attrs)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	prev := "canvas"
	for i := range p.Steps {
		fmt.Fprintf(&buf, "  %s -> s%d;\n", prev, i)
		prev = fmt.Sprintf("s%d", i)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderPlanSVG renders DOT produced by DrawPlan.DOT to SVG.
func RenderPlanSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
