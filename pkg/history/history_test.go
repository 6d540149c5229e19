package history

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/project"
)

func sampleDoc(image string) project.Document {
	return project.Document{
		Image:  image,
		Border: &project.Border{ID: "wood", WidthRatio: 0.2},
		Decorations: []decoration.Decoration{
			{ID: "a", Source: "decos/star/deco.png", X: 0.3, Y: 0.4, Scale: 0.5, Rotation: 15, BaseSize: 80},
		},
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	png := []byte("\x89PNG fake")

	first, err := s.Save(ctx, sampleDoc("uploads/one.png"), png)
	if err != nil {
		t.Fatal(err)
	}
	// Mongo stores millisecond timestamps.
	time.Sleep(2 * time.Millisecond)
	second, err := s.Save(ctx, sampleDoc("uploads/two.png"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID || first.SaveTime.IsZero() {
		t.Fatalf("entries = %+v, %+v", first, second)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.PNG, png) || !got.HasImage {
		t.Errorf("Get PNG = %q, hasImage %v", got.PNG, got.HasImage)
	}
	if got.Document.Image != "uploads/one.png" || got.Document.Border.WidthRatio != 0.2 || got.Document.Decorations[0].Rotation != 15 {
		t.Errorf("Get document = %+v", got.Document)
	}
	if got.Document.SaveTime.IsZero() {
		t.Error("document saveTime not stamped")
	}

	img, err := s.Image(ctx, first.ID)
	if err != nil || !bytes.Equal(img, png) {
		t.Errorf("Image = %q, %v", img, err)
	}
	if _, err := s.Image(ctx, second.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Image without png err = %v, want NOT_FOUND", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("List order = %+v", list)
	}
	if list[1].PNG != nil || !list[1].HasImage || list[0].HasImage {
		t.Errorf("List image flags = %v/%v", list[0].HasImage, list[1].HasImage)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, first.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get after Delete err = %v, want NOT_FOUND", err)
	}
	if err := s.Delete(ctx, first.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Delete err = %v, want NOT_FOUND", err)
	}

	n, err := s.Clear(ctx)
	if err != nil || n != 1 {
		t.Errorf("Clear = %d, %v, want 1", n, err)
	}
	if list, _ := s.List(ctx); len(list) != 0 {
		t.Errorf("List after Clear = %d entries", len(list))
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	e, err := s.Save(context.Background(), sampleDoc("uploads/x.png"), []byte("png"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, e.ID+".json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"id": "` + e.ID + `"`, `"saveTime"`, `"widthRatio": 0.2`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("entry file missing %s:\n%s", want, data)
		}
	}
	for _, name := range []string{e.ID + ".json", e.ID + ".png"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Error(err)
			continue
		}
		if runtime.GOOS != "windows" && fi.Mode().Perm() != 0o644 {
			t.Errorf("%s mode = %v, want 0644", name, fi.Mode().Perm())
		}
	}

	// Unparseable files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v, want 1 entry", list, err)
	}
	if _, err := s.Get(context.Background(), "../escape"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("traversal id err = %v", err)
	}
}

func TestSQLStore(t *testing.T) {
	s, err := NewSQLStore(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLStoreInMemory(t *testing.T) {
	s, err := NewSQLStore(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Save(context.Background(), sampleDoc("a.png"), nil); err != nil {
		t.Fatal(err)
	}
	if list, err := s.List(context.Background()); err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FRAMEUP_TEST_MONGO")
	if uri == "" {
		t.Skip("FRAMEUP_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "frameup_test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("default backend = %T, want *FileStore", s)
	}
	s, err = Open(ctx, Config{Backend: BackendSQLite})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if _, err := Open(ctx, Config{Backend: "postgres"}); err == nil {
		t.Error("unknown backend accepted")
	}
}
