package scene

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// framedScene is a 100x100 red photo with a 10px blue border and a 20px
// green sticker in the middle, rendered through a subscribed Renderer.
func framedScene(t *testing.T) (*editor.Store, *Renderer) {
	t.Helper()
	s := editor.NewStore()
	r := NewRenderer()
	s.Subscribe(r)

	s.SetImage("photo.png", solid(100, 100, red))
	cfg, err := frame.Parse([]byte(`{"width": "40"}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetBorder("blue", cfg, solid(30, 30, blue))
	s.AddDecoration(decoration.Decoration{ID: "star", Source: "decos/star/deco.png", X: 0.5, Y: 0.5, Scale: 1, BaseSize: 20}, solid(10, 10, green))
	return s, r
}

func near(got color.RGBA, want color.RGBA) bool {
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(got.R, want.R) < 8 && d(got.G, want.G) < 8 && d(got.B, want.B) < 8 && d(got.A, want.A) < 8
}

func TestRenderPhotoOnly(t *testing.T) {
	s := editor.NewStore()
	r := NewRenderer()
	s.Subscribe(r)
	s.SetImage("photo.png", solid(40, 30, red))

	main := r.Main()
	if main.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Fatalf("main bounds = %v, want 40x30", main.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {20, 15}, {39, 29}} {
		if got := main.RGBAAt(p.X, p.Y); !near(got, red) {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	if !Transparent(r.Overlay()) {
		t.Error("overlay not empty")
	}
	if st := r.LastStats(); !st.Photo || st.BorderRegions != 0 || st.Decorations != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRenderLayers(t *testing.T) {
	_, r := framedScene(t)
	main := r.Main()

	tests := []struct {
		name string
		p    image.Point
		want color.RGBA
	}{
		{"left border", image.Pt(5, 50), blue},
		{"top border", image.Pt(50, 5), blue},
		{"corner", image.Pt(2, 2), blue},
		{"photo", image.Pt(20, 20), red},
		{"sticker", image.Pt(50, 50), green},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := main.RGBAAt(tt.p.X, tt.p.Y); !near(got, tt.want) {
				t.Errorf("pixel %v = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	st := r.LastStats()
	if st.BorderRegions != 8 || st.Decorations != 1 {
		t.Errorf("stats = %+v, want 8 border regions and 1 decoration", st)
	}
}

func TestSelectionOutline(t *testing.T) {
	s, r := framedScene(t)

	if !Transparent(r.Overlay()) {
		t.Error("outline drawn outside decoration mode")
	}

	s.SetMode(editor.ModeDecoration)
	if Transparent(r.Overlay()) {
		t.Fatal("no outline for the selected decoration")
	}
	if !r.LastStats().Outline {
		t.Error("Stats.Outline = false")
	}

	// The outline lives on the overlay only.
	found := false
	ov := r.Overlay()
	for y := 0; y < 100 && !found; y++ {
		for x := 0; x < 100; x++ {
			c := ov.RGBAAt(x, y)
			if c.A == 255 && c.R == 0 && c.G == 0xaa && c.B == 0xbb {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no #00aabb pixel on the overlay")
	}
	if got := r.Main().RGBAAt(50, 50); !near(got, green) {
		t.Errorf("main changed under outline: %v", got)
	}

	s.Select("")
	if !Transparent(r.Overlay()) {
		t.Error("outline kept after deselect")
	}
}

func TestExport(t *testing.T) {
	s, r := framedScene(t)
	s.SetMode(editor.ModeDecoration)

	data, err := r.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Errorf("exported bounds = %v", img.Bounds())
	}

	main := r.Main()
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if got != main.RGBAAt(x, y) {
				t.Fatalf("exported pixel (%d,%d) = %v, main has %v", x, y, got, main.RGBAAt(x, y))
			}
		}
	}
}

func TestExportEmptyCanvas(t *testing.T) {
	r := NewRenderer()
	r.Render(editor.NewStore().Snapshot())

	if _, err := r.Export(); !errors.Is(err, errors.ErrCodeExport) {
		t.Errorf("Export() error = %v, want EXPORT_FAILED", err)
	}

	var buf bytes.Buffer
	if err := r.ExportPNG(&buf); err == nil {
		t.Error("ExportPNG succeeded on empty canvas")
	}
	if buf.Len() != 0 {
		t.Errorf("ExportPNG wrote %d bytes on failure", buf.Len())
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := r.ExportFile(path); err == nil {
		t.Error("ExportFile succeeded on empty canvas")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestExportFile(t *testing.T) {
	_, r := framedScene(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	if err := r.ExportFile(path); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.png" {
		t.Errorf("directory holds %v, want only out.png", entries)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}
}

func TestDegenerateCanvas(t *testing.T) {
	s := editor.NewStore()
	r := NewRenderer()
	s.Subscribe(r)

	s.SetImage("dot.png", solid(1, 1, red))
	s.SetBorder("b", frame.Config{}, solid(30, 30, blue))
	s.AddDecoration(decoration.New("d", "src", 1, 1), solid(4, 4, green))
	s.SetMode(editor.ModeDecoration)

	if st := r.LastStats(); st.BorderRegions != 0 {
		t.Errorf("1x1 canvas drew %d border regions", st.BorderRegions)
	}
	if _, err := r.Export(); err != nil {
		t.Errorf("Export on 1x1 canvas: %v", err)
	}
}

func TestRenderSkipsMissingSticker(t *testing.T) {
	s := editor.NewStore()
	r := NewRenderer()
	s.Subscribe(r)
	s.SetImage("p.png", solid(50, 50, red))
	s.AddDecoration(decoration.Decoration{ID: "ghost", Source: "missing", X: 0.5, Y: 0.5, Scale: 1, BaseSize: 10}, nil)

	if st := r.LastStats(); st.Decorations != 0 {
		t.Errorf("drew %d decorations without a raster", st.Decorations)
	}
}

func TestHitTest(t *testing.T) {
	s, _ := framedScene(t)
	snap := s.Snapshot()
	if id, ok := HitTest(snap, 50, 50); !ok || id != "star" {
		t.Errorf("HitTest(50,50) = %q, %v", id, ok)
	}
	if _, ok := HitTest(snap, 5, 5); ok {
		t.Error("HitTest(5,5) hit")
	}
}

func TestPlanMatchesRender(t *testing.T) {
	s, r := framedScene(t)
	s.SetMode(editor.ModeDecoration)

	p := Plan(s.Snapshot())
	st := r.LastStats()
	if p.Count("photo") != 1 || p.Count("border") != st.BorderRegions || p.Count("decoration") != st.Decorations || p.Count("outline") != 1 {
		t.Errorf("plan counts photo=%d border=%d decoration=%d outline=%d, stats %+v",
			p.Count("photo"), p.Count("border"), p.Count("decoration"), p.Count("outline"), st)
	}
	if p.Steps[0].Kind != "photo" || p.Steps[len(p.Steps)-1].Layer != LayerOverlay {
		t.Errorf("unexpected step order: first %q, last layer %q", p.Steps[0].Kind, p.Steps[len(p.Steps)-1].Layer)
	}
}

func TestPlanRotatedBounds(t *testing.T) {
	s := editor.NewStore()
	s.SetImage("p.png", solid(100, 100, red))
	s.AddDecoration(decoration.Decoration{ID: "d", Source: "src", X: 0.5, Y: 0.5, Scale: 1, BaseSize: 20, Rotation: 45}, solid(4, 4, green))

	p := Plan(s.Snapshot())
	var got image.Rectangle
	for _, step := range p.Steps {
		if step.Kind == "decoration" {
			got = step.Dst
		}
	}
	if want := image.Rect(35, 35, 65, 65); got != want {
		t.Errorf("rotated bounds = %v, want %v", got, want)
	}
}

func TestPlanDOT(t *testing.T) {
	s, _ := framedScene(t)
	s.SetMode(editor.ModeDecoration)
	dot := Plan(s.Snapshot()).DOT()

	for _, want := range []string{"digraph plan", "cluster_main", "cluster_overlay", "canvas -> s0", "top-left", "decoration star"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	svg, err := RenderPlanSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderPlanSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

// Odd-sized stickers must stay centred on the decoration: the covered span
// matches the size x size square that hit testing uses.
func TestStickerCentredForAnySourceSize(t *testing.T) {
	for _, n := range []int{1, 3, 4, 7} {
		t.Run(fmt.Sprintf("%dx%d", n, n), func(t *testing.T) {
			s := editor.NewStore()
			r := NewRenderer()
			s.Subscribe(r)
			s.SetImage("photo.png", image.NewRGBA(image.Rect(0, 0, 100, 100)))
			s.AddDecoration(decoration.Decoration{ID: "dot", Source: "decos/dot/deco.png", X: 0.5, Y: 0.5, Scale: 1, BaseSize: 50}, solid(n, n, red))

			main := r.Main()
			for _, y := range []int{25, 50, 74} {
				first, last := -1, -1
				for x := range 100 {
					if main.RGBAAt(x, y).A > 0 {
						if first < 0 {
							first = x
						}
						last = x
					}
				}
				if first != 25 || last != 74 {
					t.Errorf("row %d covered [%d,%d], want [25,74]", y, first, last)
				}
			}
			if a := main.RGBAAt(50, 24).A; a != 0 {
				t.Errorf("pixel above the square alpha = %d", a)
			}
		})
	}
}
