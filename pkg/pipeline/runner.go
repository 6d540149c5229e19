package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/cache"
	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/geometry"
	"github.com/catxpapa/catxframeup/pkg/observability"
	"github.com/catxpapa/catxframeup/pkg/project"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

// Loader fetches assets for a render. *assets.Loader implements it.
type Loader interface {
	project.Loader
	LoadDecoration(ctx context.Context, id string) (assets.Sticker, error)
	// Origin distinguishes asset sources in cache keys.
	Origin() string
	// Version stamps a ref's current revision, or returns "" when the
	// revision is unknown.
	Version(ctx context.Context, ref string) string
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the loader, cache and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Loader Loader
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(loader Loader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Loader: loader,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// artifact is the cached form of a Result.
type artifact struct {
	PNG    []byte        `json:"png"`
	Canvas image.Point   `json:"canvas"`
	Photo  geometry.Rect `json:"photo"`
	Draw   scene.Stats   `json:"draw"`
}

// Execute loads the assets named by opts, composes them and exports a PNG.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	refs := []string{opts.Photo}
	if opts.Frame != "" {
		refs = append(refs, assets.FrameRef(opts.Frame), assets.FrameSettingsRef(opts.Frame))
	}
	for _, d := range opts.Decorations {
		refs = append(refs, assets.DecorationRef(d.Asset), assets.DecorationSettingsRef(d.Asset))
	}
	key := r.Keyer.ArtifactKey(r.sceneHash(ctx, struct {
		Photo       string           `json:"photo"`
		Frame       string           `json:"frame"`
		WidthRatio  float64          `json:"widthRatio"`
		Decorations []DecorationSpec `json:"decorations"`
	}{opts.Photo, opts.Frame, opts.WidthRatio, opts.Decorations}, refs), opts.ArtifactKeyOpts())

	return r.run(ctx, runSpec{
		label:     opts.Photo,
		key:       key,
		refresh:   opts.Refresh,
		maxCanvas: opts.MaxCanvas,
		logger:    opts.Logger,
		build: func(ctx context.Context, store *editor.Store) error {
			return r.apply(ctx, store, opts)
		},
	})
}

// RenderDocument renders a saved project. The document's decorations keep
// their stored placement and size.
func (r *Runner) RenderDocument(ctx context.Context, doc project.Document) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.SaveTime = time.Time{}
	opts := Options{Format: DefaultFormat, MaxCanvas: DefaultMaxCanvas}
	refs := []string{doc.Image}
	if doc.Border != nil {
		refs = append(refs, assets.FrameRef(doc.Border.ID), assets.FrameSettingsRef(doc.Border.ID))
	}
	for _, d := range doc.Decorations {
		refs = append(refs, d.Source)
	}

	return r.run(ctx, runSpec{
		label:     doc.Image,
		key:       r.Keyer.ArtifactKey(r.sceneHash(ctx, doc, refs), opts.ArtifactKeyOpts()),
		maxCanvas: opts.MaxCanvas,
		logger:    r.Logger,
		build: func(ctx context.Context, store *editor.Store) error {
			st, err := project.Load(ctx, doc, r.Loader)
			if err != nil {
				return err
			}
			store.Replace(st)
			return nil
		},
	})
}

// sceneHash digests a scene description together with the current
// versions of the files it reads, so editing an asset in place changes
// the artifact key.
func (r *Runner) sceneHash(ctx context.Context, v any, refs []string) string {
	versions := make(map[string]string, len(refs))
	for _, ref := range refs {
		if _, ok := versions[ref]; !ok && ref != "" {
			versions[ref] = r.Loader.Version(ctx, ref)
		}
	}
	data, _ := json.Marshal(struct {
		Origin   string            `json:"origin"`
		Scene    any               `json:"scene"`
		Versions map[string]string `json:"versions"`
	}{r.Loader.Origin(), v, versions})
	return cache.Hash(data)
}

type runSpec struct {
	label     string
	key       string
	refresh   bool
	maxCanvas int
	logger    *log.Logger
	build     func(ctx context.Context, store *editor.Store) error
}

func (r *Runner) run(ctx context.Context, spec runSpec) (result *Result, err error) {
	hooks := observability.Render()
	start := time.Now()
	hooks.OnRenderStart(ctx, spec.label)
	defer func() { hooks.OnRenderComplete(ctx, spec.label, time.Since(start), err) }()

	if !spec.refresh {
		if res, ok := r.cached(ctx, spec.key); ok {
			spec.logger.Debug("artifact cache hit", "photo", spec.label)
			return res, nil
		}
	}

	result = &Result{}
	store := editor.NewStore(editor.WithMaxCanvas(spec.maxCanvas), editor.WithLogger(spec.logger))

	loadStart := time.Now()
	if err := spec.build(ctx, store); err != nil {
		return nil, err
	}
	store.Select("")
	result.Stats.LoadTime = time.Since(loadStart)

	renderStart := time.Now()
	renderer := scene.NewRenderer(scene.WithLogger(spec.logger))
	snap := store.Snapshot()
	result.Stats.Draw = renderer.Render(snap)
	result.Stats.RenderTime = time.Since(renderStart)

	exportStart := time.Now()
	png, err := renderer.Export()
	if err != nil {
		return nil, err
	}
	result.Stats.ExportTime = time.Since(exportStart)
	result.PNG = png
	result.Canvas = snap.Canvas
	result.Photo = snap.Photo

	spec.logger.Info("rendered photo",
		"photo", spec.label,
		"canvas", snap.Canvas,
		"decorations", result.Stats.Draw.Decorations,
		"duration", time.Since(start))

	if data, err := json.Marshal(artifact{PNG: png, Canvas: snap.Canvas, Photo: snap.Photo, Draw: result.Stats.Draw}); err == nil {
		if err := r.Cache.Set(ctx, spec.key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return result, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil || len(a.PNG) == 0 {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return &Result{
		PNG:       a.PNG,
		Canvas:    a.Canvas,
		Photo:     a.Photo,
		Stats:     Stats{Draw: a.Draw},
		CacheInfo: CacheInfo{RenderHit: true},
	}, true
}

// apply loads every asset concurrently, then applies them in editor order:
// photo, border, decorations.
func (r *Runner) apply(ctx context.Context, store *editor.Store, opts Options) error {
	var ticket editor.Ticket
	if opts.Frame != "" {
		ticket = store.BeginBorderLoad(opts.Frame)
	}

	var (
		photo    image.Image
		border   assets.Frame
		stickers = make([]assets.Sticker, len(opts.Decorations))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := r.Loader.LoadImage(gctx, opts.Photo)
		photo = img
		return err
	})
	if opts.Frame != "" {
		g.Go(func() error {
			f, err := r.Loader.LoadFrame(gctx, opts.Frame)
			border = f
			return err
		})
	}
	for i, spec := range opts.Decorations {
		g.Go(func() error {
			s, err := r.Loader.LoadDecoration(gctx, spec.Asset)
			stickers[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	store.SetImage(opts.Photo, photo)
	store.SetWidthRatio(opts.WidthRatio)
	if opts.Frame != "" {
		store.CommitBorder(ticket, border.Config, border.Raster)
	}

	minDim := store.Snapshot().MinDimension()
	for i, spec := range opts.Decorations {
		s := stickers[i]
		d := decoration.New("", s.Ref, minDim, s.Config.DefaultScale)
		d.X, d.Y = decoration.Clamp01(spec.X), decoration.Clamp01(spec.Y)
		if spec.Scale > 0 {
			d.Scale = spec.Scale
		}
		d.Rotation = spec.Rotation
		store.AddDecoration(d, s.Raster)
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
