// Package frame describes border ("frame") assets: the settings.json that
// ships next to each frame image and the layout helpers derived from it.
//
// A settings file looks like:
//
//	{
//	  "width":  "40 40 60 40",
//	  "outset": "10",
//	  "slice":  "120 120 160 120"
//	}
//
// width holds the relative edge widths, outset the part of each edge that
// overhangs the photo, and slice the nine-patch slice widths in source
// image pixels. Every key accepts the 1 to 4 value shorthand and may be
// omitted.
package frame

import (
	"encoding/json"

	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/geometry"
	"github.com/catxpapa/catxframeup/pkg/ninepatch"
)

// Config is a parsed frame settings file.
type Config struct {
	Width  geometry.Shorthand `json:"width" toml:"width"`
	Outset geometry.Shorthand `json:"outset" toml:"outset"`
	Slice  geometry.Shorthand `json:"slice" toml:"slice"`
}

// Parse decodes a settings file. Malformed JSON returns a CONFIG_PARSE error
// alongside the zero Config, whose accessors yield the defaults.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigParse, err, "invalid frame settings")
	}
	return c, nil
}

// Widths returns the base edge widths, defaulting to geometry.DefaultWidths.
func (c Config) Widths() geometry.Edges {
	return c.Width.Or(geometry.DefaultWidths)
}

// Outsets returns the base outsets, defaulting to geometry.DefaultOutsets.
func (c Config) Outsets() geometry.Edges {
	return c.Outset.Or(geometry.DefaultOutsets)
}

// HasSlices reports whether the settings carry an explicit slice value.
func (c Config) HasSlices() bool {
	return c.Slice.Set
}

// Slices returns the nine-patch slice widths for a source image of
// imgW x imgH, falling back to ninepatch.DefaultSlices.
func (c Config) Slices(imgW, imgH int) geometry.Edges {
	if c.Slice.Set {
		return c.Slice.Edges
	}
	return ninepatch.DefaultSlices(imgW, imgH)
}

// Layout runs the border layout calculator for a canvas.
func (c Config) Layout(canvasW, canvasH, widthRatio float64) geometry.Layout {
	return geometry.ComputeLayout(canvasW, canvasH, widthRatio, c.Widths(), c.Outsets())
}
