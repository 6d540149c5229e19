// Package assets provides frames, decorations and uploaded photos.
//
// Assets live under a root with a fixed layout:
//
//	frames/<id>/frame.png       border image
//	frames/<id>/settings.json   width / outset / slice shorthands
//	decos/<id>/deco.png         decoration image
//	decos/<id>/settings.json    {"defaultScale": 0.1}, optional
//	uploads/<uuid>.<ext>        uploaded photos
//
// Components address files by ref, the slash-separated path under the
// root (e.g. "frames/wood/frame.png"). A [Source] lists and opens assets;
// [Library] implements it over any [Bucket] (local directory or S3) and
// adds uploads, and [HTTPSource] reads from a remote frameup server. The
// [Loader] decodes images with caching and request collapsing.
package assets

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/frame"
)

// Layout names.
const (
	FramesDir       = "frames"
	DecorationsDir  = "decos"
	UploadsDir      = "uploads"
	FrameImage      = "frame.png"
	DecorationImage = "deco.png"
	SettingsFile    = "settings.json"
)

// FrameRef returns the image ref of frame id.
func FrameRef(id string) string {
	return path.Join(FramesDir, id, FrameImage)
}

// DecorationRef returns the image ref of decoration id.
func DecorationRef(id string) string {
	return path.Join(DecorationsDir, id, DecorationImage)
}

// FrameSettingsRef returns the settings ref of frame id.
func FrameSettingsRef(id string) string {
	return path.Join(FramesDir, id, SettingsFile)
}

// DecorationSettingsRef returns the settings ref of decoration id.
func DecorationSettingsRef(id string) string {
	return path.Join(DecorationsDir, id, SettingsFile)
}

// URLPath returns the path under which the HTTP server serves ref.
func URLPath(ref string) string {
	return "/assets/" + ref
}

// FrameInfo describes one frame asset.
type FrameInfo struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Ref       string       `json:"ref"`
	ImagePath string       `json:"imagePath"`
	Settings  frame.Config `json:"settings"`
}

// DecorationInfo describes one decoration asset.
type DecorationInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Ref       string            `json:"ref"`
	ImagePath string            `json:"imagePath"`
	Settings  decoration.Config `json:"settings"`
}

// Versioner is implemented by sources that can stamp a file's current
// revision. The stamp changes whenever the file is rewritten.
type Versioner interface {
	Version(ctx context.Context, ref string) (string, error)
}

// Source provides asset listings, settings and raw files.
type Source interface {
	// Origin identifies the source in cache keys.
	Origin() string
	// ListFrames returns complete frames (image and settings present).
	ListFrames(ctx context.Context) ([]FrameInfo, error)
	// ListDecorations returns decorations that have an image.
	ListDecorations(ctx context.Context) ([]DecorationInfo, error)
	// FrameConfig returns a frame's settings. Unknown IDs and unreadable
	// settings are NOT_FOUND.
	FrameConfig(ctx context.Context, id string) (frame.Config, error)
	// DecorationConfig returns a decoration's settings. Missing or
	// malformed settings fall back to the defaults; only an unknown ID
	// is an error.
	DecorationConfig(ctx context.Context, id string) (decoration.Config, error)
	// Open opens the file at ref.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Kind is an upload category.
type Kind string

const (
	KindImage      Kind = "image"
	KindFrame      Kind = "frame"
	KindDecoration Kind = "decoration"
)

// ParseKind validates an upload kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindImage, KindFrame, KindDecoration:
		return k, true
	}
	return "", false
}

// Upload describes a stored upload.
type Upload struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Filename   string    `json:"filename"`
	Ref        string    `json:"ref"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	UploadTime time.Time `json:"uploadTime"`
}

// Writer stores uploads.
type Writer interface {
	// SaveUpload stores an uploaded image under a fresh ID. Frames
	// require settings; decorations merge settings over the defaults.
	SaveUpload(ctx context.Context, kind Kind, name string, r io.Reader, settings []byte) (Upload, error)
	// ListUploads lists uploaded photos, newest first.
	ListUploads(ctx context.Context) ([]Upload, error)
	// ClearUploads deletes every uploaded photo and returns the count.
	ClearUploads(ctx context.Context) (int, error)
}
