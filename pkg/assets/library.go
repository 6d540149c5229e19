package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
)

// MaxUploadSize caps an uploaded file.
const MaxUploadSize = 10 << 20

// Library implements Source and Writer on top of a Bucket.
type Library struct {
	bucket Bucket
	logger *log.Logger
}

// NewLibrary returns a Library over b. A nil logger discards output.
func NewLibrary(b Bucket, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Library{bucket: b, logger: logger}
}

// NewDirSource returns a Library over a local asset directory, creating
// the frames, decos and uploads subdirectories.
func NewDirSource(root string, logger *log.Logger) (*Library, error) {
	b, err := NewDirBucket(root)
	if err != nil {
		return nil, err
	}
	for _, d := range []string{FramesDir, DecorationsDir, UploadsDir} {
		if _, err := NewDirBucket(path.Join(b.Root(), d)); err != nil {
			return nil, err
		}
	}
	return NewLibrary(b, logger), nil
}

// NewS3Source returns a Library over an S3 bucket and key prefix.
func NewS3Source(ctx context.Context, bucket, prefix string, logger *log.Logger) (*Library, error) {
	b, err := NewS3Bucket(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	return NewLibrary(b, logger), nil
}

// Origin implements Source.
func (l *Library) Origin() string { return l.bucket.Origin() }

// Open implements Source.
func (l *Library) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return l.bucket.Open(ctx, ref)
}

// Version implements Versioner from the object's size and modification
// time.
func (l *Library) Version(ctx context.Context, ref string) (string, error) {
	obj, err := l.bucket.Stat(ctx, ref)
	if err != nil {
		return "", err
	}
	return stamp(obj.Size, obj.ModTime), nil
}

func stamp(size int64, mod time.Time) string {
	return strconv.FormatInt(size, 36) + "." + strconv.FormatInt(mod.UnixNano(), 36)
}

func (l *Library) read(ctx context.Context, ref string) ([]byte, error) {
	rc, err := l.bucket.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// FrameConfig implements Source.
func (l *Library) FrameConfig(ctx context.Context, id string) (frame.Config, error) {
	if err := errors.ValidateAssetID(id); err != nil {
		return frame.Config{}, err
	}
	if _, err := l.bucket.Stat(ctx, FrameRef(id)); err != nil {
		return frame.Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "frame %q not found", id)
	}
	data, err := l.read(ctx, FrameSettingsRef(id))
	if err != nil {
		return frame.Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "frame %q has no settings", id)
	}
	cfg, err := frame.Parse(data)
	if err != nil {
		return frame.Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "frame %q has invalid settings", id)
	}
	return cfg, nil
}

// DecorationConfig implements Source.
func (l *Library) DecorationConfig(ctx context.Context, id string) (decoration.Config, error) {
	if err := errors.ValidateAssetID(id); err != nil {
		return decoration.Config{}, err
	}
	if _, err := l.bucket.Stat(ctx, DecorationRef(id)); err != nil {
		return decoration.Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "decoration %q not found", id)
	}
	data, _ := l.read(ctx, DecorationSettingsRef(id))
	cfg, ok := decoration.ParseConfig(data)
	if !ok {
		l.logger.Warn("Decoration settings unusable, using defaults", "id", id, "defaultScale", cfg.DefaultScale)
	}
	return cfg, nil
}

// ListFrames implements Source. Incomplete frames are skipped with a
// warning.
func (l *Library) ListFrames(ctx context.Context) ([]FrameInfo, error) {
	ids, err := l.bucket.ListDirs(ctx, FramesDir)
	if err != nil {
		return nil, err
	}
	frames := []FrameInfo{}
	for _, id := range ids {
		cfg, err := l.FrameConfig(ctx, id)
		if err != nil {
			l.logger.Warn("Skipping incomplete frame", "id", id, "err", errors.UserMessage(err))
			continue
		}
		ref := FrameRef(id)
		frames = append(frames, FrameInfo{ID: id, Name: id, Ref: ref, ImagePath: URLPath(ref), Settings: cfg})
	}
	return frames, nil
}

// ListDecorations implements Source.
func (l *Library) ListDecorations(ctx context.Context) ([]DecorationInfo, error) {
	ids, err := l.bucket.ListDirs(ctx, DecorationsDir)
	if err != nil {
		return nil, err
	}
	decos := []DecorationInfo{}
	for _, id := range ids {
		cfg, err := l.DecorationConfig(ctx, id)
		if err != nil {
			l.logger.Warn("Skipping incomplete decoration", "id", id, "err", errors.UserMessage(err))
			continue
		}
		ref := DecorationRef(id)
		decos = append(decos, DecorationInfo{ID: id, Name: id, Ref: ref, ImagePath: URLPath(ref), Settings: cfg})
	}
	return decos, nil
}

// readUpload reads at most MaxUploadSize bytes and checks that they hold
// an image in a registered format.
func readUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
	}
	if len(data) > MaxUploadSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "upload exceeds %d MB", MaxUploadSize>>20)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "upload is not a supported image")
	}
	return data, nil
}

// decorationSettings merges raw settings over the defaults, keeping any
// extra keys. Malformed settings are replaced by the defaults.
func decorationSettings(raw []byte) []byte {
	m := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			m = map[string]any{}
		}
	}
	if v, ok := m["defaultScale"].(float64); !ok || v <= 0 {
		m["defaultScale"] = decoration.DefaultScale
	}
	out, _ := json.MarshalIndent(m, "", "  ")
	return out
}

// SaveUpload implements Writer.
func (l *Library) SaveUpload(ctx context.Context, kind Kind, name string, r io.Reader, settings []byte) (Upload, error) {
	if err := errors.ValidateImageFilename(name); err != nil {
		return Upload{}, err
	}

	var settingsOut []byte
	switch kind {
	case KindFrame:
		if len(bytes.TrimSpace(settings)) == 0 {
			return Upload{}, errors.New(errors.ErrCodeInvalidInput, "frame upload requires settings")
		}
		if !json.Valid(settings) {
			return Upload{}, errors.New(errors.ErrCodeInvalidInput, "frame settings are not valid JSON")
		}
		var indented bytes.Buffer
		if err := json.Indent(&indented, settings, "", "  "); err != nil {
			return Upload{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "frame settings")
		}
		settingsOut = indented.Bytes()
	case KindDecoration:
		settingsOut = decorationSettings(settings)
	case KindImage:
	default:
		return Upload{}, errors.New(errors.ErrCodeInvalidInput, "unknown upload kind %q", kind)
	}

	data, err := readUpload(r)
	if err != nil {
		return Upload{}, err
	}

	id := uuid.NewString()
	ext := strings.ToLower(path.Ext(name))
	var ref, settingsRef string
	switch kind {
	case KindImage:
		ref = path.Join(UploadsDir, id+ext)
	case KindFrame:
		ref = FrameRef(id)
		settingsRef = FrameSettingsRef(id)
	case KindDecoration:
		ref = DecorationRef(id)
		settingsRef = DecorationSettingsRef(id)
	}

	if settingsRef != "" {
		if err := l.bucket.Put(ctx, settingsRef, settingsOut); err != nil {
			return Upload{}, errors.Wrap(errors.ErrCodeInternal, err, "store settings")
		}
	}
	if err := l.bucket.Put(ctx, ref, data); err != nil {
		return Upload{}, errors.Wrap(errors.ErrCodeInternal, err, "store upload")
	}

	l.logger.Info("Stored upload", "kind", kind, "id", id, "size", len(data))
	return Upload{
		ID:         id,
		Kind:       kind,
		Filename:   path.Base(ref),
		Ref:        ref,
		Path:       URLPath(ref),
		Size:       int64(len(data)),
		UploadTime: time.Now().UTC(),
	}, nil
}

func isImageFile(name string) bool {
	return errors.ValidateImageFilename(name) == nil
}

// ListUploads implements Writer.
func (l *Library) ListUploads(ctx context.Context) ([]Upload, error) {
	objs, err := l.bucket.ListFiles(ctx, UploadsDir)
	if err != nil {
		return nil, err
	}
	uploads := []Upload{}
	for _, o := range objs {
		name := path.Base(o.Key)
		if !isImageFile(name) {
			continue
		}
		uploads = append(uploads, Upload{
			ID:         strings.TrimSuffix(name, path.Ext(name)),
			Kind:       KindImage,
			Filename:   name,
			Ref:        o.Key,
			Path:       URLPath(o.Key),
			Size:       o.Size,
			UploadTime: o.ModTime,
		})
	}
	slices.SortStableFunc(uploads, func(a, b Upload) int {
		return b.UploadTime.Compare(a.UploadTime)
	})
	return uploads, nil
}

// ClearUploads implements Writer.
func (l *Library) ClearUploads(ctx context.Context) (int, error) {
	objs, err := l.bucket.ListFiles(ctx, UploadsDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range objs {
		if err := l.bucket.Delete(ctx, o.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

var (
	_ Source = (*Library)(nil)
	_ Writer = (*Library)(nil)
)
