// Package decoration models stickers placed on the canvas and the geometry
// used to manipulate them.
//
// A decoration's position is its center in normalized canvas coordinates,
// so (0.5, 0.5) is the middle of the canvas at any resolution. It is drawn
// as a size x size square, size = BaseSize * Scale, rotated by Rotation
// degrees about that center. Decorations later in a list are drawn on top.
package decoration

import (
	"math"

	"github.com/oklog/ulid/v2"
)

// Defaults for newly added decorations.
const (
	// DefaultScale is used when a decoration asset has no defaultScale.
	DefaultScale = 0.1

	// BaseSizeFraction ties BaseSize to the canvas' shorter side at add time.
	BaseSizeFraction = 0.1

	// FallbackMinDimension stands in for the canvas' shorter side when no
	// photo is loaded yet.
	FallbackMinDimension = 500
)

// Decoration is one placed sticker.
type Decoration struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	BaseSize float64 `json:"baseSize"`
}

// New creates a decoration centered on the canvas. minDim is the canvas'
// shorter side (FallbackMinDimension is used when it is <= 0) and
// defaultScale the asset's default scale (DefaultScale when <= 0).
func New(id, source string, minDim, defaultScale float64) Decoration {
	if minDim <= 0 {
		minDim = FallbackMinDimension
	}
	if defaultScale <= 0 {
		defaultScale = DefaultScale
	}
	return Decoration{
		ID:       id,
		Source:   source,
		X:        0.5,
		Y:        0.5,
		Scale:    defaultScale,
		BaseSize: minDim * BaseSizeFraction,
	}
}

// Size returns the rendered edge length in canvas pixels.
func (d Decoration) Size() float64 {
	return d.BaseSize * d.Scale
}

// Center returns the decoration's center in canvas pixels.
func (d Decoration) Center(canvasW, canvasH float64) (float64, float64) {
	return d.X * canvasW, d.Y * canvasH
}

// Radians returns Rotation converted to radians.
func (d Decoration) Radians() float64 {
	return d.Rotation * math.Pi / 180
}

// NewID returns a unique, time-ordered decoration ID.
func NewID() string {
	return ulid.Make().String()
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
