// Package editor holds the single source of truth for one editing session.
//
// A [Store] owns the [State]: the photo, the active border, the ordered
// decoration list, the selection and the UI mode. Mutations go through
// Store methods, which recompute derived layout and then hand every
// [Subscriber] a full [Snapshot]. Pointer input is turned into mutations
// by the pure [Reduce] function, applied through [Store.Dispatch].
package editor

import (
	"image"
	"slices"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
	"github.com/catxpapa/catxframeup/pkg/geometry"
)

// Mode is the editor's current tool.
type Mode string

const (
	ModeImage      Mode = "image"
	ModeFrame      Mode = "frame"
	ModeDecoration Mode = "decoration"
	ModeSave       Mode = "save"
)

// Modes lists every mode in UI order.
var Modes = []Mode{ModeImage, ModeFrame, ModeDecoration, ModeSave}

// ParseMode converts s to a Mode. The empty string maps to ModeImage.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeImage, nil
	}
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (want image, frame, decoration or save)", s)
	}
	return m, nil
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	i := slices.Index(Modes, m)
	return Modes[(i+1)%len(Modes)]
}

// Image is the loaded photo. Raster is nil until a photo is set.
type Image struct {
	Ref    string
	Raster image.Image
}

// Border is the selected frame. Active is false when no border is shown;
// the remaining fields are kept so a restore can reactivate it.
type Border struct {
	ID         string
	Config     frame.Config
	Raster     image.Image
	WidthRatio float64
	Active     bool
}

// State is the mutable editor state.
type State struct {
	Image       Image
	Border      Border
	Decorations []decoration.Decoration
	// Stickers maps a decoration Source ref to its decoded raster.
	Stickers   map[string]image.Image
	SelectedID string
	Mode       Mode
}

// NewState returns the initial state: no photo, no border, image mode.
func NewState() State {
	return State{
		Border:   Border{WidthRatio: geometry.DefaultWidthRatio},
		Stickers: map[string]image.Image{},
		Mode:     ModeImage,
	}
}

func (st State) clone() State {
	c := st
	c.Decorations = slices.Clone(st.Decorations)
	c.Stickers = make(map[string]image.Image, len(st.Stickers))
	for k, v := range st.Stickers {
		c.Stickers[k] = v
	}
	return c
}

func (st State) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(st.Decorations, func(d decoration.Decoration) bool { return d.ID == id })
}

// fixSelection drops a selection that no longer names a decoration.
func (st *State) fixSelection() {
	if st.index(st.SelectedID) < 0 {
		st.SelectedID = ""
	}
}

// pruneStickers drops rasters no decoration references.
func (st *State) pruneStickers() {
	for src := range st.Stickers {
		if !slices.ContainsFunc(st.Decorations, func(d decoration.Decoration) bool { return d.Source == src }) {
			delete(st.Stickers, src)
		}
	}
}

// Snapshot is an immutable copy of State plus the values derived from it.
// Rasters are shared and must be treated as read-only.
type Snapshot struct {
	State

	// Canvas is the authoritative canvas size: the photo's size after the
	// canvas sizing policy, or zero with no photo.
	Canvas image.Point
	// Layout is the border layout; zero when no border is active.
	Layout geometry.Layout
	// Photo is where the photo is drawn.
	Photo geometry.Rect
}

func derive(st State) Snapshot {
	snap := Snapshot{State: st.clone()}
	if st.Image.Raster != nil {
		b := st.Image.Raster.Bounds()
		snap.Canvas = image.Pt(b.Dx(), b.Dy())
	}
	w, h := float64(snap.Canvas.X), float64(snap.Canvas.Y)
	if st.Border.Active {
		snap.Layout = st.Border.Config.Layout(w, h, st.Border.WidthRatio)
	}
	snap.Photo = snap.Layout.PhotoRect(w, h)
	return snap
}

// Decoration returns the decoration with the given ID.
func (s Snapshot) Decoration(id string) (decoration.Decoration, bool) {
	i := s.index(id)
	if i < 0 {
		return decoration.Decoration{}, false
	}
	return s.Decorations[i], true
}

// Selected returns the selected decoration, if any.
func (s Snapshot) Selected() (decoration.Decoration, bool) {
	return s.Decoration(s.SelectedID)
}

// MinDimension returns the canvas' shorter side, or
// decoration.FallbackMinDimension with no photo.
func (s Snapshot) MinDimension() float64 {
	return geometry.MinDimension(s.Canvas.X, s.Canvas.Y, decoration.FallbackMinDimension)
}
