package project

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
)

// fakeLoader serves blank rasters for known refs and counts loads.
type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Point
	frames map[string]frame.Config
	loads  int
}

func (f *fakeLoader) LoadImage(_ context.Context, ref string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	size, ok := f.images[ref]
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetLoad, "load %s", ref)
	}
	return image.NewRGBA(image.Rectangle{Max: size}), nil
}

func (f *fakeLoader) LoadFrame(_ context.Context, id string) (assets.Frame, error) {
	cfg, ok := f.frames[id]
	if !ok {
		return assets.Frame{}, errors.New(errors.ErrCodeAssetLoad, "frame %s", id)
	}
	return assets.Frame{ID: id, Config: cfg, Raster: image.NewRGBA(image.Rect(0, 0, 30, 30))}, nil
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		images: map[string]image.Point{
			"uploads/photo.png":   {1000, 2000},
			"decos/star/deco.png": {10, 10},
		},
		frames: map[string]frame.Config{"wood": {}},
	}
}

const sample = `{
  "version": 1,
  "image": "uploads/photo.png",
  "border": {"id": "wood", "widthRatio": 0.1},
  "decorations": [
    {"id": "a", "source": "decos/star/deco.png", "x": 0.25, "y": 0.75, "scale": 0.2, "rotation": 30, "baseSize": 100},
    {"id": "b", "source": "decos/star/deco.png", "x": 0.5, "y": 0.5, "scale": 1, "rotation": 0, "baseSize": 100}
  ],
  "mode": "decoration"
}`

func TestRestoreReconstructsState(t *testing.T) {
	doc, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	loader := newFakeLoader()
	store := editor.NewStore()
	if err := Restore(context.Background(), doc, loader, store); err != nil {
		t.Fatal(err)
	}

	snap := store.Snapshot()
	if snap.Canvas != image.Pt(1000, 2000) {
		t.Errorf("canvas = %v", snap.Canvas)
	}
	if !snap.Border.Active || snap.Border.ID != "wood" || snap.Border.WidthRatio != 0.1 {
		t.Errorf("border = %+v", snap.Border)
	}
	if snap.Photo.X != 100 || snap.Photo.W != 800 {
		t.Errorf("photo rect = %+v", snap.Photo)
	}
	if len(snap.Decorations) != 2 || snap.Decorations[0].Rotation != 30 || snap.Mode != editor.ModeDecoration {
		t.Errorf("decorations = %+v, mode %s", snap.Decorations, snap.Mode)
	}
	if snap.Stickers["decos/star/deco.png"] == nil {
		t.Error("sticker raster not registered")
	}
	// photo + one shared sticker ref
	if loader.loads != 2 {
		t.Errorf("loads = %d, want 2", loader.loads)
	}

	// Round trip through FromSnapshot.
	again := FromSnapshot(snap)
	if again.Image != doc.Image || *again.Border != *doc.Border || len(again.Decorations) != 2 {
		t.Errorf("FromSnapshot = %+v", again)
	}
}

func TestRestoreIsAtomic(t *testing.T) {
	store := editor.NewStore()
	store.SetImage("uploads/old.png", image.NewRGBA(image.Rect(0, 0, 50, 50)))
	store.AddDecoration(decoration.Decoration{ID: "keep", Source: "decos/x.png", X: 0.5, Y: 0.5, Scale: 1, BaseSize: 5}, nil)
	before := store.Snapshot()

	doc, err := Decode(strings.NewReader(strings.Replace(sample, "uploads/photo.png", "uploads/gone.png", 1)))
	if err != nil {
		t.Fatal(err)
	}
	err = Restore(context.Background(), doc, newFakeLoader(), store)
	if !errors.Is(err, errors.ErrCodeAssetLoad) {
		t.Fatalf("err = %v, want ASSET_LOAD_FAILED", err)
	}

	after := store.Snapshot()
	if after.Image.Ref != before.Image.Ref || len(after.Decorations) != 1 || after.SelectedID != "keep" {
		t.Errorf("store changed after failed restore: %+v", after.State)
	}
}

func TestRestoreWithoutBorder(t *testing.T) {
	doc := Document{Image: "uploads/photo.png"}
	store := editor.NewStore()
	if err := Restore(context.Background(), doc, newFakeLoader(), store); err != nil {
		t.Fatal(err)
	}
	snap := store.Snapshot()
	if snap.Border.Active || snap.Photo.W != 1000 || snap.Mode != editor.ModeImage {
		t.Errorf("snapshot = %+v", snap)
	}
	if FromSnapshot(snap).Border != nil {
		t.Error("inactive border persisted")
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"malformed", `{"image":`, errors.ErrCodeInvalidInput},
		{"future version", `{"version": 99}`, errors.ErrCodeUnsupported},
		{"bad mode", `{"mode": "paint"}`, errors.ErrCodeInvalidMode},
		{"bad border id", `{"border": {"id": "../x"}}`, errors.ErrCodeInvalidInput},
		{"negative ratio", `{"border": {"id": "wood", "widthRatio": -1}}`, errors.ErrCodeInvalidInput},
		{"duplicate ids", `{"decorations": [{"id":"a","source":"s"},{"id":"a","source":"s"}]}`, errors.ErrCodeInvalidInput},
		{"missing source", `{"decorations": [{"id":"a"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc)); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Document{Image: "uploads/a.png"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"version": 1`, `"border": null`, `"decorations": []`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "saveTime") {
		t.Errorf("zero saveTime written:\n%s", out)
	}
}
