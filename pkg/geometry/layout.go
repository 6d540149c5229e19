package geometry

import "math"

// Defaults applied when a border asset omits a value.
const (
	// DefaultWidths is the base edge width shorthand used when a border
	// settings file has no "width" key.
	DefaultWidths = "40"

	// DefaultOutsets is the outset shorthand used when "outset" is missing.
	DefaultOutsets = "0"

	// DefaultWidthRatio is the border thickness as a fraction of the
	// canvas' shorter side.
	DefaultWidthRatio = 0.1
)

// Layout is the per-edge result of a layout pass. All values are canvas
// pixels and never negative.
type Layout struct {
	Widths  Edges `json:"widths"`
	Outsets Edges `json:"outsets"`
	Padding Edges `json:"padding"`
}

// Rect is a float rectangle in canvas pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether r has no drawable area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// ComputeLayout derives final edge widths, outsets and padding for a canvas
// of canvasW x canvasH. widthRatio is clamped to be non-negative.
func ComputeLayout(canvasW, canvasH, widthRatio float64, base, outsets Edges) Layout {
	thickness := math.Max(math.Min(canvasW, canvasH), 0) * math.Max(widthRatio, 0)
	maxBase := math.Max(base.Max(), 1)

	b := base.Array()
	o := outsets.Array()
	var widths, outs, pads [4]float64
	for i := range b {
		widths[i] = thickness * b[i] / maxBase
		if b[i] > 0 {
			outs[i] = widths[i] * o[i] / b[i]
		}
		pads[i] = math.Max(widths[i]-outs[i], 0)
	}

	return Layout{
		Widths:  edgesFromArray(widths),
		Outsets: edgesFromArray(outs),
		Padding: edgesFromArray(pads),
	}
}

// PhotoRect returns where the photo is drawn: the canvas minus padding on
// each side. Width and height clamp to 0 when the padding eats the canvas.
func (l Layout) PhotoRect(canvasW, canvasH float64) Rect {
	p := l.Padding
	return Rect{
		X: p.Left,
		Y: p.Top,
		W: math.Max(canvasW-p.Left-p.Right, 0),
		H: math.Max(canvasH-p.Top-p.Bottom, 0),
	}
}
