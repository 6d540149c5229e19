package scene

import (
	"image"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/geometry"
	"github.com/catxpapa/catxframeup/pkg/ninepatch"
)

// Selection outline style.
const (
	SelectionColor     = "#00aabb"
	SelectionLineWidth = 2
	SelectionDash      = 5
)

// Stats counts what a Render call drew.
type Stats struct {
	Photo         bool
	BorderRegions int
	Decorations   int
	Outline       bool
}

// Renderer owns the main and overlay surfaces.
type Renderer struct {
	mu      sync.Mutex
	main    *image.RGBA
	overlay *image.RGBA
	last    Stats
	logger  *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer returns a Renderer with empty surfaces.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		main:    image.NewRGBA(image.Rectangle{}),
		overlay: image.NewRGBA(image.Rectangle{}),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnStateChange implements editor.Subscriber.
func (r *Renderer) OnStateChange(s editor.Snapshot) {
	r.Render(s)
}

// Render clears both layers and paints s.
func (r *Renderer) Render(s editor.Snapshot) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset(s.Canvas)
	var st Stats
	st.Photo = r.drawPhoto(s)
	st.BorderRegions = r.drawBorder(s)
	st.Decorations = r.drawDecorations(s)
	st.Outline = r.drawOutline(s)
	r.last = st

	r.logger.Debug("Rendered frame",
		"canvas", s.Canvas,
		"photo", st.Photo,
		"border_regions", st.BorderRegions,
		"decorations", st.Decorations)
	return st
}

// Main returns the main layer. It must not be modified and is only valid
// until the next Render.
func (r *Renderer) Main() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.main
}

// Overlay returns the overlay layer, with the same caveats as Main.
func (r *Renderer) Overlay() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay
}

// LastStats returns the Stats of the most recent Render.
func (r *Renderer) LastStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// reset reallocates the layers when the canvas size changes and clears
// them otherwise.
func (r *Renderer) reset(size image.Point) {
	bounds := image.Rectangle{Max: size}
	if r.main.Bounds() != bounds {
		r.main = image.NewRGBA(bounds)
		r.overlay = image.NewRGBA(bounds)
		return
	}
	clear(r.main.Pix)
	clear(r.overlay.Pix)
}

// pixelRect rounds a canvas rectangle to whole pixels.
func pixelRect(g geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(g.X)),
		int(math.Round(g.Y)),
		int(math.Round(g.X+g.W)),
		int(math.Round(g.Y+g.H)),
	)
}

func (r *Renderer) drawPhoto(s editor.Snapshot) bool {
	img := s.Image.Raster
	if img == nil || s.Photo.Empty() {
		return false
	}
	dst := pixelRect(s.Photo)
	if dst.Empty() || img.Bounds().Empty() {
		return false
	}
	xdraw.CatmullRom.Scale(r.main, dst, img, img.Bounds(), xdraw.Over, nil)
	return true
}

func (r *Renderer) drawBorder(s editor.Snapshot) int {
	b := s.Border
	if !b.Active || b.Raster == nil {
		return 0
	}
	size := b.Raster.Bounds().Size()
	return ninepatch.Draw(r.main, b.Raster, b.Config.Slices(size.X, size.Y), s.Layout.Widths)
}

// sticker returns the raster for d, or nil when it cannot be drawn.
func sticker(s editor.Snapshot, d decoration.Decoration) image.Image {
	img := s.Stickers[d.Source]
	if img == nil || img.Bounds().Empty() || d.Size() <= 0 {
		return nil
	}
	return img
}

func (r *Renderer) drawDecorations(s editor.Snapshot) int {
	if len(s.Decorations) == 0 || s.Canvas.X == 0 || s.Canvas.Y == 0 {
		return 0
	}
	dc := gg.NewContextForRGBA(r.main)
	w, h := float64(s.Canvas.X), float64(s.Canvas.Y)

	n := 0
	for _, d := range s.Decorations {
		img := sticker(s, d)
		if img == nil {
			r.logger.Debug("Skipping decoration", "id", d.ID, "source", d.Source)
			continue
		}
		b := img.Bounds()
		size := d.Size()
		cx, cy := d.Center(w, h)

		dc.Push()
		dc.Translate(cx, cy)
		dc.Rotate(d.Radians())
		dc.Scale(size/float64(b.Dx()), size/float64(b.Dy()))
		// Centre in source pixels; DrawImageAnchored rounds the anchor to
		// whole pixels, which shifts odd-sized stickers.
		dc.Translate(-float64(b.Min.X)-float64(b.Dx())/2, -float64(b.Min.Y)-float64(b.Dy())/2)
		dc.DrawImage(img, 0, 0)
		dc.Pop()
		n++
	}
	return n
}

func (r *Renderer) drawOutline(s editor.Snapshot) bool {
	if s.Mode != editor.ModeDecoration {
		return false
	}
	d, ok := s.Selected()
	if !ok || d.Size() <= 0 || s.Canvas.X == 0 || s.Canvas.Y == 0 {
		return false
	}
	size := d.Size()
	cx, cy := d.Center(float64(s.Canvas.X), float64(s.Canvas.Y))

	dc := gg.NewContextForRGBA(r.overlay)
	dc.Translate(cx, cy)
	dc.Rotate(d.Radians())
	dc.DrawRectangle(-size/2, -size/2, size, size)
	dc.SetHexColor(SelectionColor)
	dc.SetLineWidth(SelectionLineWidth)
	dc.SetDash(SelectionDash, SelectionDash)
	dc.Stroke()
	return true
}

// HitTest returns the topmost decoration of s under canvas point (px, py).
func HitTest(s editor.Snapshot, px, py float64) (string, bool) {
	return decoration.HitTest(s.Decorations, px, py, float64(s.Canvas.X), float64(s.Canvas.Y))
}

// Transparent reports whether every pixel of img has zero alpha.
func Transparent(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return false
		}
	}
	return true
}
