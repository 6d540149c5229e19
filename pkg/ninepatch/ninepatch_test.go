package ninepatch

import (
	"image"
	"image/color"
	"testing"

	xdraw "golang.org/x/image/draw"

	"github.com/catxpapa/catxframeup/pkg/geometry"
)

// countingScaler records every blit it is asked to perform.
type countingScaler struct {
	calls []Region
}

func (c *countingScaler) Scale(dst xdraw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle, op xdraw.Op, opts *xdraw.Options) {
	c.calls = append(c.calls, Region{Src: sr, Dst: dr})
	xdraw.NearestNeighbor.Scale(dst, dr, src, sr, op, opts)
}

// gridImage returns a 3x3 image where each cell has a distinct opaque color.
func gridImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 100), G: uint8(y * 100), B: 50, A: 255})
		}
	}
	return img
}

func TestPlanFullBorder(t *testing.T) {
	regions := Plan(image.Rect(0, 0, 90, 90), geometry.Uniform(30), geometry.Uniform(10), image.Pt(200, 100))
	if len(regions) != 8 {
		t.Fatalf("Plan() returned %d regions, want 8", len(regions))
	}

	byKind := map[Kind]Region{}
	for _, r := range regions {
		byKind[r.Kind] = r
	}

	tests := []struct {
		kind Kind
		src  image.Rectangle
		dst  image.Rectangle
	}{
		{TopLeft, image.Rect(0, 0, 30, 30), image.Rect(0, 0, 10, 10)},
		{TopRight, image.Rect(60, 0, 90, 30), image.Rect(190, 0, 200, 10)},
		{BottomLeft, image.Rect(0, 60, 30, 90), image.Rect(0, 90, 10, 100)},
		{BottomRight, image.Rect(60, 60, 90, 90), image.Rect(190, 90, 200, 100)},
		{Top, image.Rect(30, 0, 60, 30), image.Rect(10, 0, 190, 10)},
		{Bottom, image.Rect(30, 60, 60, 90), image.Rect(10, 90, 190, 100)},
		{Left, image.Rect(0, 30, 30, 60), image.Rect(0, 10, 10, 90)},
		{Right, image.Rect(60, 30, 90, 60), image.Rect(190, 10, 200, 90)},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			r, ok := byKind[tt.kind]
			if !ok {
				t.Fatalf("region %v missing", tt.kind)
			}
			if r.Src != tt.src {
				t.Errorf("Src = %v, want %v", r.Src, tt.src)
			}
			if r.Dst != tt.dst {
				t.Errorf("Dst = %v, want %v", r.Dst, tt.dst)
			}
		})
	}
}

func TestPlanOffsetSourceBounds(t *testing.T) {
	regions := Plan(image.Rect(5, 5, 15, 15), geometry.Uniform(2), geometry.Uniform(2), image.Pt(20, 20))
	for _, r := range regions {
		if !r.Src.In(image.Rect(5, 5, 15, 15)) {
			t.Errorf("%v: Src %v outside source bounds", r.Kind, r.Src)
		}
	}
}

func TestPlanZeroSliceSkipsCorners(t *testing.T) {
	// Zero left/right slices leave only the top and bottom edges.
	regions := Plan(image.Rect(0, 0, 40, 40), geometry.ParseShorthand("10 0"), geometry.Uniform(5), image.Pt(100, 100))
	for _, r := range regions {
		switch r.Kind {
		case Top, Bottom:
		default:
			t.Errorf("unexpected region %v with zero horizontal slices", r.Kind)
		}
	}
	if len(regions) != 2 {
		t.Errorf("got %d regions, want 2", len(regions))
	}
}

func TestDrawSkipsDegenerateRegions(t *testing.T) {
	src := gridImage()

	tests := []struct {
		name   string
		canvas image.Rectangle
		slices geometry.Edges
		edges  geometry.Edges
	}{
		{"1x1 canvas with layout edges", image.Rect(0, 0, 1, 1), geometry.Uniform(1), geometry.ComputeLayout(1, 1, 0.1, geometry.Uniform(40), geometry.Edges{}).Widths},
		{"1x1 canvas with wide edges", image.Rect(0, 0, 1, 1), geometry.Uniform(1), geometry.Uniform(10)},
		{"zero slices", image.Rect(0, 0, 50, 50), geometry.Edges{}, geometry.Uniform(5)},
		{"slices past center", image.Rect(0, 0, 50, 50), geometry.Uniform(3), geometry.Uniform(5)},
		{"default slices on tiny source", image.Rect(0, 0, 1, 1), DefaultSlices(1, 1), geometry.Uniform(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := image.NewRGBA(tt.canvas)
			counter := &countingScaler{}
			n := Draw(dst, src, tt.slices, tt.edges, WithScaler(counter))

			if n != len(counter.calls) {
				t.Errorf("Draw() = %d, scaler saw %d calls", n, len(counter.calls))
			}
			for _, c := range counter.calls {
				if c.Src.Dx() <= 0 || c.Src.Dy() <= 0 || c.Dst.Dx() <= 0 || c.Dst.Dy() <= 0 {
					t.Errorf("blit with degenerate rect: src=%v dst=%v", c.Src, c.Dst)
				}
			}
		})
	}
}

func TestDrawLayoutEdgesOnTinyCanvasDrawsNothing(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	counter := &countingScaler{}
	edges := geometry.ComputeLayout(1, 1, 0.1, geometry.Uniform(40), geometry.Edges{}).Widths
	if n := Draw(dst, gridImage(), geometry.Uniform(1), edges, WithScaler(counter)); n != 0 {
		t.Errorf("Draw() = %d on 1x1 canvas, want 0", n)
	}
}

func TestDrawPixels(t *testing.T) {
	src := gridImage()
	dst := image.NewRGBA(image.Rect(0, 0, 5, 5))
	n := Draw(dst, src, geometry.Uniform(1), geometry.Uniform(1), WithScaler(xdraw.NearestNeighbor))
	if n != 8 {
		t.Fatalf("Draw() = %d, want 8", n)
	}

	tests := []struct {
		name  string
		x, y  int
		srcX  int
		srcY  int
		empty bool
	}{
		{"top-left corner", 0, 0, 0, 0, false},
		{"top-right corner", 4, 0, 2, 0, false},
		{"bottom-left corner", 0, 4, 0, 2, false},
		{"bottom-right corner", 4, 4, 2, 2, false},
		{"top edge", 2, 0, 1, 0, false},
		{"left edge", 0, 2, 0, 1, false},
		{"right edge", 4, 3, 2, 1, false},
		{"bottom edge", 1, 4, 1, 2, false},
		{"center untouched", 2, 2, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dst.RGBAAt(tt.x, tt.y)
			if tt.empty {
				if got.A != 0 {
					t.Errorf("pixel (%d,%d) = %v, want transparent", tt.x, tt.y, got)
				}
				return
			}
			want := src.RGBAAt(tt.srcX, tt.srcY)
			if got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, want)
			}
		})
	}
}

func TestDefaultSlices(t *testing.T) {
	got := DefaultSlices(200, 100)
	want := geometry.Edges{Top: 25, Right: 50, Bottom: 25, Left: 50}
	if got != want {
		t.Errorf("DefaultSlices(200, 100) = %v, want %v", got, want)
	}
}
