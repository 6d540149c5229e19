package editor

import (
	"image"
	"sync"
	"testing"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/frame"
	"github.com/catxpapa/catxframeup/pkg/geometry"
)

func raster(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) OnStateChange(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	if snap.Mode != ModeImage {
		t.Errorf("Mode = %q, want image", snap.Mode)
	}
	if snap.Border.Active {
		t.Error("new store has an active border")
	}
	if snap.Border.WidthRatio != geometry.DefaultWidthRatio {
		t.Errorf("WidthRatio = %v, want %v", snap.Border.WidthRatio, geometry.DefaultWidthRatio)
	}
	if snap.Canvas != (image.Point{}) {
		t.Errorf("Canvas = %v, want zero", snap.Canvas)
	}
	if got := snap.MinDimension(); got != decoration.FallbackMinDimension {
		t.Errorf("MinDimension() = %v, want fallback", got)
	}
}

func TestSetImageFitsCanvas(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantW      int
		wantH      int
		wantSameIm bool
	}{
		{"small photo kept", 800, 600, 800, 600, true},
		{"wide photo floored", 3000, 1000, 2048, 682, false},
		{"tall photo", 1000, 4096, 500, 2048, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			img := raster(tt.w, tt.h)
			s.SetImage("photo.jpg", img)
			snap := s.Snapshot()
			if snap.Canvas != image.Pt(tt.wantW, tt.wantH) {
				t.Errorf("Canvas = %v, want %dx%d", snap.Canvas, tt.wantW, tt.wantH)
			}
			if (snap.Image.Raster == img) != tt.wantSameIm {
				t.Errorf("raster reused = %v, want %v", snap.Image.Raster == img, tt.wantSameIm)
			}
			if snap.Image.Ref != "photo.jpg" {
				t.Errorf("Ref = %q", snap.Image.Ref)
			}
		})
	}
}

func TestSnapshotLayout(t *testing.T) {
	s := NewStore()
	s.SetImage("p.png", raster(1000, 2000))

	if got := s.Snapshot().Photo; got != (geometry.Rect{W: 1000, H: 2000}) {
		t.Errorf("Photo without border = %+v, want full canvas", got)
	}

	cfg, _ := frame.Parse([]byte(`{"width": "40", "outset": "0"}`))
	s.SetBorder("wood", cfg, raster(300, 300))
	snap := s.Snapshot()
	want := geometry.Rect{X: 100, Y: 100, W: 800, H: 1800}
	if snap.Photo != want {
		t.Errorf("Photo = %+v, want %+v", snap.Photo, want)
	}
	if !snap.Border.Active || snap.Border.ID != "wood" {
		t.Errorf("Border = %+v, want active wood", snap.Border)
	}

	s.SetWidthRatio(0)
	if got := s.Snapshot().Photo; got != (geometry.Rect{W: 1000, H: 2000}) {
		t.Errorf("Photo with zero ratio = %+v, want full canvas", got)
	}

	s.SetWidthRatio(-1)
	if got := s.Snapshot().Border.WidthRatio; got != 0 {
		t.Errorf("negative ratio stored as %v, want 0", got)
	}

	s.ClearBorder()
	snap = s.Snapshot()
	if snap.Border.Active {
		t.Error("ClearBorder left the border active")
	}
	if snap.Layout != (geometry.Layout{}) {
		t.Errorf("Layout = %+v after ClearBorder, want zero", snap.Layout)
	}
}

func TestBorderTickets(t *testing.T) {
	s := NewStore()
	cfg := frame.Config{}

	a := s.BeginBorderLoad("a")
	b := s.BeginBorderLoad("b")

	if !s.CommitBorder(b, cfg, raster(10, 10)) {
		t.Fatal("latest ticket rejected")
	}
	if s.CommitBorder(a, cfg, raster(10, 10)) {
		t.Error("stale ticket accepted")
	}
	if got := s.Snapshot().Border.ID; got != "b" {
		t.Errorf("Border.ID = %q, want b", got)
	}

	// Picking the same border twice still invalidates the first load.
	first := s.BeginBorderLoad("a")
	second := s.BeginBorderLoad("a")
	if s.CommitBorder(first, cfg, nil) {
		t.Error("superseded ticket for the same id accepted")
	}
	if !s.CommitBorder(second, cfg, nil) {
		t.Error("current ticket rejected")
	}

	pending := s.BeginBorderLoad("c")
	s.ClearBorder()
	if s.CommitBorder(pending, cfg, nil) {
		t.Error("ticket survived ClearBorder")
	}
	if s.CommitBorder(Ticket{}, cfg, nil) {
		t.Error("zero ticket accepted")
	}
}

func TestCommitBorderKeepsRatio(t *testing.T) {
	s := NewStore()
	s.SetWidthRatio(0.25)
	s.SetBorder("x", frame.Config{}, nil)
	if got := s.Snapshot().Border.WidthRatio; got != 0.25 {
		t.Errorf("WidthRatio = %v, want 0.25", got)
	}
}

func TestDecorationLifecycle(t *testing.T) {
	s := NewStore()
	rec := &recorder{}
	s.Subscribe(rec)

	a := s.AddDecoration(decoration.New("a", "decos/star/deco.png", 500, 0.1), raster(4, 4))
	if a != "a" {
		t.Errorf("AddDecoration returned %q, want a", a)
	}
	b := s.AddDecoration(decoration.Decoration{Source: "decos/heart/deco.png", Scale: 1, BaseSize: 50}, nil)
	if b == "" {
		t.Fatal("AddDecoration did not assign an id")
	}
	if got := rec.last().SelectedID; got != b {
		t.Errorf("SelectedID = %q, want newest %q", got, b)
	}
	if _, ok := rec.last().Stickers["decos/star/deco.png"]; !ok {
		t.Error("sticker raster not registered")
	}

	if !s.UpdateDecoration(a, func(d *decoration.Decoration) {
		d.Rotation = 45
		d.ID = "hijacked"
	}) {
		t.Fatal("UpdateDecoration(a) = false")
	}
	if d, ok := s.Snapshot().Decoration(a); !ok || d.Rotation != 45 {
		t.Errorf("decoration a = %+v, %v; want rotation 45 and id kept", d, ok)
	}

	if !s.Select(a) {
		t.Error("Select(a) = false")
	}
	if !s.RemoveDecoration(a) {
		t.Error("RemoveDecoration(a) = false")
	}
	snap := s.Snapshot()
	if snap.SelectedID != "" {
		t.Errorf("SelectedID = %q after removing the selected decoration", snap.SelectedID)
	}
	if len(snap.Decorations) != 1 || snap.Decorations[0].ID != b {
		t.Errorf("Decorations = %+v, want only %q", snap.Decorations, b)
	}

	s.ClearDecorations()
	if snap := s.Snapshot(); len(snap.Decorations) != 0 || snap.SelectedID != "" {
		t.Errorf("after ClearDecorations: %+v", snap.State)
	}
}

func TestStickersFollowDecorations(t *testing.T) {
	const star, heart = "decos/star/deco.png", "decos/heart/deco.png"
	s := NewStore()
	rec := &recorder{}
	s.Subscribe(rec)

	a := s.AddDecoration(decoration.New("a", star, 500, 0.1), raster(4, 4))
	b := s.AddDecoration(decoration.New("b", star, 500, 0.1), raster(4, 4))
	c := s.AddDecoration(decoration.New("c", heart, 500, 0.1), raster(4, 4))

	steps := []struct {
		name string
		do   func()
		want []string
	}{
		{"remove one of a shared source", func() { s.RemoveDecoration(a) }, []string{star, heart}},
		{"remove last user of a source", func() { s.RemoveDecoration(b) }, []string{heart}},
		{"change source", func() {
			s.UpdateDecoration(c, func(d *decoration.Decoration) { d.Source = star })
		}, []string{}},
		{"clear", func() {
			s.AddDecoration(decoration.New("d", heart, 500, 0.1), raster(4, 4))
			s.ClearDecorations()
		}, []string{}},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			step.do()
			got := rec.last().Stickers
			if len(got) != len(step.want) {
				t.Errorf("stickers = %v, want %v", got, step.want)
			}
			for _, src := range step.want {
				if _, ok := got[src]; !ok {
					t.Errorf("sticker %s missing", src)
				}
			}
		})
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s := NewStore()
	s.AddDecoration(decoration.New("a", "src", 500, 0), nil)
	rec := &recorder{}
	s.Subscribe(rec)

	if s.UpdateDecoration("missing", func(d *decoration.Decoration) { d.X = 0 }) {
		t.Error("UpdateDecoration(missing) = true")
	}
	if s.RemoveDecoration("missing") {
		t.Error("RemoveDecoration(missing) = true")
	}
	if s.Select("missing") {
		t.Error("Select(missing) = true")
	}
	if rec.count() != 0 {
		t.Errorf("no-op mutations notified %d times", rec.count())
	}
	if got := s.Snapshot().SelectedID; got != "a" {
		t.Errorf("SelectedID = %q, want a", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.AddDecoration(decoration.New("a", "src", 500, 0), raster(1, 1))

	snap := s.Snapshot()
	snap.Decorations[0].X = 0.9
	snap.Decorations = append(snap.Decorations, decoration.Decoration{ID: "b"})
	delete(snap.Stickers, "src")

	again := s.Snapshot()
	if len(again.Decorations) != 1 || again.Decorations[0].X != 0.5 {
		t.Errorf("store changed through a snapshot: %+v", again.Decorations)
	}
	if _, ok := again.Stickers["src"]; !ok {
		t.Error("sticker map shared with snapshot")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := NewStore()
	first, second := &recorder{}, &recorder{}
	var order []string
	unsub := s.Subscribe(SubscriberFunc(func(Snapshot) { order = append(order, "first") }))
	s.Subscribe(SubscriberFunc(func(Snapshot) { order = append(order, "second") }))
	s.Subscribe(first)
	s.Subscribe(second)

	s.SetMode(ModeFrame)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v", order)
	}
	if first.last().Mode != ModeFrame {
		t.Errorf("subscriber saw mode %q, want frame", first.last().Mode)
	}

	unsub()
	unsub()
	s.SetMode(ModeSave)
	if len(order) != 3 {
		t.Errorf("unsubscribed func still called: %v", order)
	}
	if second.count() != 2 {
		t.Errorf("second subscriber notified %d times, want 2", second.count())
	}
}

func TestSubscriberMayReadStore(t *testing.T) {
	s := NewStore()
	var seen Mode
	s.Subscribe(SubscriberFunc(func(Snapshot) {
		seen = s.Snapshot().Mode
	}))
	s.SetMode(ModeDecoration)
	if seen != ModeDecoration {
		t.Errorf("subscriber read mode %q, want decoration", seen)
	}
}

func TestReplaceAndReset(t *testing.T) {
	s := NewStore()
	st := NewState()
	st.Image = Image{Ref: "p.png", Raster: raster(3000, 1000)}
	st.Decorations = []decoration.Decoration{{ID: "a", Scale: 1, BaseSize: 10}}
	st.SelectedID = "gone"
	st.Mode = ModeDecoration
	s.Replace(st)

	snap := s.Snapshot()
	if snap.Canvas != image.Pt(2048, 682) {
		t.Errorf("Canvas = %v, want 2048x682", snap.Canvas)
	}
	if snap.SelectedID != "" {
		t.Errorf("dangling selection %q survived Replace", snap.SelectedID)
	}

	s.Reset()
	snap = s.Snapshot()
	if snap.Image.Raster != nil || len(snap.Decorations) != 0 || snap.Mode != ModeImage {
		t.Errorf("Reset left state %+v", snap.State)
	}
}

func TestConcurrentMutations(t *testing.T) {
	s := NewStore()
	rec := &recorder{}
	s.Subscribe(rec)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.AddDecoration(decoration.New("", "src", 500, 0), nil)
			s.UpdateDecoration(id, func(d *decoration.Decoration) { d.Rotation = 10 })
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if got := len(s.Snapshot().Decorations); got != n {
		t.Errorf("len(Decorations) = %d, want %d", got, n)
	}
	if rec.count() != 2*n {
		t.Errorf("notifications = %d, want %d", rec.count(), 2*n)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if got, _ := ParseMode(""); got != ModeImage {
		t.Errorf("ParseMode(\"\") = %q, want image", got)
	}
	if _, err := ParseMode("paint"); err == nil {
		t.Error("ParseMode(paint) succeeded")
	}
	if ModeSave.Next() != ModeImage {
		t.Errorf("ModeSave.Next() = %q, want image", ModeSave.Next())
	}
}
