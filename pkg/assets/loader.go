package assets

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/catxpapa/catxframeup/pkg/cache"
	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
	"github.com/catxpapa/catxframeup/pkg/observability"
)

// LocalPrefix marks a ref as a path on the local filesystem. Such refs
// are only honoured by loaders built WithLocalFiles.
const LocalPrefix = "file:"

// Frame is a loaded border asset.
type Frame struct {
	ID     string
	Config frame.Config
	Raster image.Image
}

// Sticker is a loaded decoration asset.
type Sticker struct {
	ID     string
	Ref    string
	Config decoration.Config
	Raster image.Image
}

// Loader decodes images from a Source. Decoded images are memoized per
// ref and version, raw bytes go through an optional cache, and
// concurrent loads of one ref share a single fetch.
type Loader struct {
	src        Source
	cache      cache.Cache
	keyer      cache.Keyer
	logger     *log.Logger
	localFiles bool

	group singleflight.Group
	mu    sync.Mutex
	memo  map[string]memoEntry
}

type memoEntry struct {
	version string
	img     image.Image
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache stores raw asset bytes in c under keys built by keyer.
func WithCache(c cache.Cache, keyer cache.Keyer) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
		if keyer != nil {
			l.keyer = keyer
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLocalFiles allows "file:" refs. The CLI enables it; the server
// must not.
func WithLocalFiles() LoaderOption {
	return func(l *Loader) { l.localFiles = true }
}

// NewLoader returns a Loader over src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		src:    src,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		logger: log.New(io.Discard),
		memo:   make(map[string]memoEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the underlying source.
func (l *Loader) Source() Source { return l.src }

func loadErr(err error, format string, args ...any) error {
	if errors.Is(err, errors.ErrCodeAssetLoad) {
		return err
	}
	return errors.Wrap(errors.ErrCodeAssetLoad, err, format, args...)
}

// Version returns a stamp of ref's current revision: size and
// modification time for local files, the source's stamp when it is a
// Versioner. It is empty when the revision cannot be determined.
func (l *Loader) Version(ctx context.Context, ref string) string {
	if local, ok := strings.CutPrefix(ref, LocalPrefix); ok {
		if !l.localFiles {
			return ""
		}
		fi, err := os.Stat(local)
		if err != nil {
			return ""
		}
		return stamp(fi.Size(), fi.ModTime())
	}
	v, ok := l.src.(Versioner)
	if !ok {
		return ""
	}
	version, err := v.Version(ctx, ref)
	if err != nil {
		l.logger.Debug("Asset version unavailable", "ref", ref, "err", err)
		return ""
	}
	return version
}

func (l *Loader) assetKey(ref, version string) string {
	if version != "" {
		ref += "@" + version
	}
	return l.keyer.AssetKey(l.src.Origin(), ref)
}

// LoadBytes returns the raw bytes of ref, consulting the cache first.
// Cached bytes are keyed by the ref's version, so a rewritten file is
// fetched again.
func (l *Loader) LoadBytes(ctx context.Context, ref string) ([]byte, error) {
	return l.loadBytes(ctx, ref, l.Version(ctx, ref))
}

func (l *Loader) loadBytes(ctx context.Context, ref, version string) ([]byte, error) {
	if local, ok := strings.CutPrefix(ref, LocalPrefix); ok {
		if !l.localFiles {
			return nil, errors.New(errors.ErrCodeAssetLoad, "local file refs are disabled: %s", ref)
		}
		data, err := os.ReadFile(local)
		if err != nil {
			return nil, loadErr(err, "read %s", local)
		}
		return data, nil
	}

	key := l.assetKey(ref, version)
	if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	} else if err != nil {
		l.logger.Debug("Asset cache read failed", "ref", ref, "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	start := time.Now()
	data, err := l.fetch(ctx, ref)
	observability.Asset().OnAssetLoad(ctx, ref, len(data), time.Since(start), err)
	if err != nil {
		return nil, loadErr(err, "load %s", ref)
	}

	if err := l.cache.Set(ctx, key, data, cache.TTLAsset); err != nil {
		l.logger.Debug("Asset cache write failed", "ref", ref, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "asset", len(data))
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	rc, err := l.src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// LoadImage decodes the image at ref. Concurrent calls for one ref share
// a fetch, which runs under the first caller's context.
func (l *Loader) LoadImage(ctx context.Context, ref string) (image.Image, error) {
	version := l.Version(ctx, ref)
	l.mu.Lock()
	e, ok := l.memo[ref]
	l.mu.Unlock()
	if ok && e.version == version {
		return e.img, nil
	}

	v, err, shared := l.group.Do(ref+"@"+version, func() (any, error) {
		data, err := l.loadBytes(ctx, ref, version)
		if err != nil {
			return nil, err
		}
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, loadErr(err, "decode %s", ref)
		}
		l.logger.Debug("Decoded asset", "ref", ref, "format", format, "size", img.Bounds().Size())

		l.mu.Lock()
		l.memo[ref] = memoEntry{version: version, img: img}
		l.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("Collapsed duplicate load", "ref", ref)
	}
	return v.(image.Image), nil
}

// LoadFrame fetches a frame's settings and image concurrently.
func (l *Loader) LoadFrame(ctx context.Context, id string) (Frame, error) {
	f := Frame{ID: id}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := l.src.FrameConfig(gctx, id)
		if err != nil {
			return loadErr(err, "frame %s settings", id)
		}
		f.Config = cfg
		return nil
	})
	g.Go(func() error {
		img, err := l.LoadImage(gctx, FrameRef(id))
		f.Raster = img
		return err
	})
	if err := g.Wait(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// LoadDecoration fetches a decoration's settings and image concurrently.
func (l *Loader) LoadDecoration(ctx context.Context, id string) (Sticker, error) {
	s := Sticker{ID: id, Ref: DecorationRef(id)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := l.src.DecorationConfig(gctx, id)
		if err != nil {
			return loadErr(err, "decoration %s settings", id)
		}
		s.Config = cfg
		return nil
	})
	g.Go(func() error {
		img, err := l.LoadImage(gctx, s.Ref)
		s.Raster = img
		return err
	})
	if err := g.Wait(); err != nil {
		return Sticker{}, err
	}
	return s, nil
}

// Forget drops ref from the in-process memo and the byte cache, so the
// next load goes back to the source.
func (l *Loader) Forget(ctx context.Context, ref string) {
	l.mu.Lock()
	delete(l.memo, ref)
	l.mu.Unlock()
	if err := l.cache.Delete(ctx, l.assetKey(ref, l.Version(ctx, ref))); err != nil {
		l.logger.Debug("Asset cache delete failed", "ref", ref, "err", err)
	}
}

// Origin returns the source's origin.
func (l *Loader) Origin() string { return l.src.Origin() }
