// Package pipeline renders framed photos without an interactive session.
//
// The pipeline loads assets, applies them to an [editor.Store] the same way
// the interactive editor does, renders the scene and exports a PNG. The
// CLI, the HTTP API and the TUI save path all go through it.
//
// # Usage
//
//	runner := pipeline.NewRunner(loader, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Photo:       "uploads/holiday.jpg",
//	    Frame:       "wood",
//	    WidthRatio:  0.12,
//	    Decorations: []pipeline.DecorationSpec{{Asset: "star", X: 0.8, Y: 0.2}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.png", result.PNG, 0o644)
//
// Saved projects render with [Runner.RenderDocument].
package pipeline

import (
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/catxpapa/catxframeup/pkg/cache"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/geometry"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFormat is the only export format.
	DefaultFormat = FormatPNG

	// DefaultMaxCanvas bounds the longer canvas side.
	DefaultMaxCanvas = geometry.MaxCanvasDimension

	// DefaultWidthRatio is the border thickness relative to the photo width.
	DefaultWidthRatio = geometry.DefaultWidthRatio
)

// FormatPNG is the PNG export format.
const FormatPNG = "png"

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// DecorationSpec places one decoration asset. X and Y are normalized
// center coordinates. A zero Scale uses the asset's defaultScale.
type DecorationSpec struct {
	Asset    string  `json:"asset"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
}

// ParseDecorationSpec parses "id[@x,y[,scale[,rotation]]]". The position
// defaults to the canvas center.
func ParseDecorationSpec(s string) (DecorationSpec, error) {
	id, rest, hasPos := strings.Cut(s, "@")
	spec := DecorationSpec{Asset: id, X: 0.5, Y: 0.5}
	if err := errors.ValidateAssetID(id); err != nil {
		return DecorationSpec{}, err
	}
	if !hasPos {
		return spec, nil
	}

	parts := strings.Split(rest, ",")
	if len(parts) < 2 || len(parts) > 4 {
		return DecorationSpec{}, errors.New(errors.ErrCodeInvalidInput, "decoration %q: want id@x,y[,scale[,rotation]]", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return DecorationSpec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoration %q", s)
		}
		vals[i] = v
	}
	spec.X, spec.Y = vals[0], vals[1]
	if len(vals) > 2 {
		spec.Scale = vals[2]
	}
	if len(vals) > 3 {
		spec.Rotation = vals[3]
	}
	return spec, nil
}

// String formats s in the form ParseDecorationSpec accepts.
func (s DecorationSpec) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	out := s.Asset + "@" + f(s.X) + "," + f(s.Y)
	if s.Scale != 0 || s.Rotation != 0 {
		out += "," + f(s.Scale)
	}
	if s.Rotation != 0 {
		out += "," + f(s.Rotation)
	}
	return out
}

// Options contains all configuration for one render.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Photo is the photo's asset ref.
	Photo string `json:"photo"`
	// Frame is the border asset ID; empty renders without a border.
	Frame string `json:"frame,omitempty"`
	// WidthRatio scales the border thickness; 0 means DefaultWidthRatio.
	WidthRatio  float64          `json:"widthRatio,omitempty"`
	Decorations []DecorationSpec `json:"decorations,omitempty"`
	MaxCanvas   int              `json:"maxCanvas,omitempty"`
	Format      string           `json:"format,omitempty"`
	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PNG is the exported image.
	PNG []byte
	// Canvas is the output size in pixels.
	Canvas image.Point
	// Photo is where the photo sits inside the canvas.
	Photo geometry.Rect
	// Stats contains timing and draw counts.
	Stats Stats
	// CacheInfo tracks cache hits.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Draw       scene.Stats
	LoadTime   time.Duration
	RenderTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether the PNG came from the artifact cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be png)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Photo == "" {
		return errors.New(errors.ErrCodeInvalidInput, "photo is required")
	}
	if o.Frame != "" {
		if err := errors.ValidateAssetID(o.Frame); err != nil {
			return err
		}
	}
	if o.WidthRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width ratio must not be negative (got %g)", o.WidthRatio)
	}
	if o.WidthRatio == 0 {
		o.WidthRatio = DefaultWidthRatio
	}
	for _, d := range o.Decorations {
		if err := errors.ValidateAssetID(d.Asset); err != nil {
			return err
		}
		if d.Scale < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "decoration %s: scale must not be negative", d.Asset)
		}
	}
	if o.MaxCanvas < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max canvas must not be negative (got %d)", o.MaxCanvas)
	}
	if o.MaxCanvas == 0 {
		o.MaxCanvas = DefaultMaxCanvas
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    o.Format,
		MaxCanvas: o.MaxCanvas,
	}
}
