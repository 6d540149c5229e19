// Package ninepatch stretches a border image onto a canvas of any size using
// nine-patch slicing.
//
// The source image is cut into a 3x3 grid by four slice widths measured
// inward from each edge. The four corners land in destination rectangles
// sized by the final edge widths, the top and bottom edges stretch
// horizontally, the left and right edges stretch vertically, and the center
// cell is never drawn so the photo underneath shows through.
//
//	+----+------------+----+
//	| TL |    Top     | TR |
//	+----+------------+----+
//	|Left|  (center)  |Rght|
//	+----+------------+----+
//	| BL |   Bottom   | BR |
//	+----+------------+----+
//
// Any region whose source or destination has no area is skipped, so tiny
// canvases and zero-width slices degrade to partial borders instead of
// failing.
package ninepatch

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/catxpapa/catxframeup/pkg/geometry"
)

// DefaultSliceFraction is the slice width, as a fraction of the source
// image's dimension, used for border art with no slice configuration.
const DefaultSliceFraction = 0.25

// Kind identifies one of the eight drawn cells.
type Kind int

const (
	TopLeft Kind = iota
	TopRight
	BottomLeft
	BottomRight
	Top
	Bottom
	Left
	Right
)

var kindNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right", "top", "bottom", "left", "right"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Region is one source-to-destination blit.
type Region struct {
	Kind Kind
	Src  image.Rectangle
	Dst  image.Rectangle
}

// DefaultSlices returns the fallback slice widths for a w x h source image.
func DefaultSlices(w, h int) geometry.Edges {
	return geometry.Edges{
		Top:    float64(h) * DefaultSliceFraction,
		Right:  float64(w) * DefaultSliceFraction,
		Bottom: float64(h) * DefaultSliceFraction,
		Left:   float64(w) * DefaultSliceFraction,
	}
}

// rect builds a rectangle without canonicalizing it, so inverted corners
// keep a negative size and get filtered out.
func rect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rectangle{Min: image.Point{X: x0, Y: y0}, Max: image.Point{X: x1, Y: y1}}
}

func px(v float64) int {
	return int(math.Round(v))
}

// Plan converts slice widths and edge widths into the blits that draw the
// border. src is the source image bounds and canvas the destination size.
// Regions with a non-positive source or destination width or height are
// omitted.
func Plan(src image.Rectangle, slices, edges geometry.Edges, canvas image.Point) []Region {
	o := src.Min
	imgW, imgH := src.Dx(), src.Dy()

	// Source cut lines, from widths.
	st := px(slices.Top)
	sr := imgW - px(slices.Right)
	sb := imgH - px(slices.Bottom)
	sl := px(slices.Left)

	// Destination cut lines.
	w, h := canvas.X, canvas.Y
	dt := px(edges.Top)
	dr := w - px(edges.Right)
	db := h - px(edges.Bottom)
	dl := px(edges.Left)

	all := [...]Region{
		{TopLeft, rect(0, 0, sl, st), rect(0, 0, dl, dt)},
		{TopRight, rect(sr, 0, imgW, st), rect(dr, 0, w, dt)},
		{BottomLeft, rect(0, sb, sl, imgH), rect(0, db, dl, h)},
		{BottomRight, rect(sr, sb, imgW, imgH), rect(dr, db, w, h)},
		{Top, rect(sl, 0, sr, st), rect(dl, 0, dr, dt)},
		{Bottom, rect(sl, sb, sr, imgH), rect(dl, db, dr, h)},
		{Left, rect(0, st, sl, sb), rect(0, dt, dl, db)},
		{Right, rect(sr, st, imgW, sb), rect(dr, dt, w, db)},
	}

	regions := make([]Region, 0, len(all))
	for _, r := range all {
		if r.Src.Dx() <= 0 || r.Src.Dy() <= 0 || r.Dst.Dx() <= 0 || r.Dst.Dy() <= 0 {
			continue
		}
		r.Src = r.Src.Add(o)
		regions = append(regions, r)
	}
	return regions
}

// Option configures Draw.
type Option func(*drawer)

type drawer struct {
	scaler xdraw.Scaler
}

// WithScaler sets the interpolator used for every blit (default
// draw.BiLinear).
func WithScaler(s xdraw.Scaler) Option {
	return func(d *drawer) {
		if s != nil {
			d.scaler = s
		}
	}
}

// Draw composites src onto dst as a nine-patch border sized to dst's bounds
// and returns the number of regions drawn. Callers without a slice
// configuration pass DefaultSlices.
func Draw(dst xdraw.Image, src image.Image, slices, edges geometry.Edges, opts ...Option) int {
	d := drawer{scaler: xdraw.BiLinear}
	for _, opt := range opts {
		opt(&d)
	}

	db := dst.Bounds()
	regions := Plan(src.Bounds(), slices, edges, db.Size())
	for _, r := range regions {
		d.scaler.Scale(dst, r.Dst.Add(db.Min), src, r.Src, xdraw.Over, nil)
	}
	return len(regions)
}
