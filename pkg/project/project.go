// Package project saves and restores an editing session as a JSON
// document.
//
// A document references assets by ref and ID only; rasters are reloaded
// on restore:
//
//	{
//	  "version": 1,
//	  "image": "uploads/3f0c….jpg",
//	  "border": {"id": "wood", "widthRatio": 0.1},
//	  "decorations": [
//	    {"id": "01J…", "source": "decos/star/deco.png",
//	     "x": 0.5, "y": 0.5, "scale": 0.1, "rotation": 0, "baseSize": 50}
//	  ],
//	  "mode": "decoration",
//	  "saveTime": "2025-01-01T12:00:00Z"
//	}
package project

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/errors"
)

// Version is the document format written by Encode.
const Version = 1

// Border is the persisted border selection.
type Border struct {
	ID         string  `json:"id"`
	WidthRatio float64 `json:"widthRatio"`
}

// Document is a persisted project.
type Document struct {
	Version     int                     `json:"version"`
	Image       string                  `json:"image,omitempty"`
	Border      *Border                 `json:"border"`
	Decorations []decoration.Decoration `json:"decorations"`
	Mode        editor.Mode             `json:"mode,omitempty"`
	SaveTime    time.Time               `json:"saveTime,omitzero"`
}

// FromSnapshot captures the persistable part of snap. An inactive border
// is stored as null.
func FromSnapshot(snap editor.Snapshot) Document {
	doc := Document{
		Version:     Version,
		Image:       snap.Image.Ref,
		Decorations: append([]decoration.Decoration{}, snap.Decorations...),
		Mode:        snap.Mode,
	}
	if snap.Border.Active {
		doc.Border = &Border{ID: snap.Border.ID, WidthRatio: snap.Border.WidthRatio}
	}
	return doc
}

// Validate checks the fields Restore depends on.
func (d Document) Validate() error {
	if d.Version > Version {
		return errors.New(errors.ErrCodeUnsupported, "project version %d is newer than supported version %d", d.Version, Version)
	}
	if _, err := editor.ParseMode(string(d.Mode)); err != nil {
		return err
	}
	if d.Border != nil {
		if err := errors.ValidateAssetID(d.Border.ID); err != nil {
			return err
		}
		if d.Border.WidthRatio < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "negative border width ratio %g", d.Border.WidthRatio)
		}
	}
	seen := make(map[string]bool, len(d.Decorations))
	for _, deco := range d.Decorations {
		if deco.ID == "" || seen[deco.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "decoration ids must be unique and non-empty (got %q)", deco.ID)
		}
		seen[deco.ID] = true
		if deco.Source == "" {
			return errors.New(errors.ErrCodeInvalidInput, "decoration %s has no source", deco.ID)
		}
	}
	return nil
}

// Decode reads and validates a document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid project document")
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	if doc.Decorations == nil {
		doc.Decorations = []decoration.Decoration{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Loader fetches the rasters a document references. *assets.Loader
// implements it.
type Loader interface {
	LoadImage(ctx context.Context, ref string) (image.Image, error)
	LoadFrame(ctx context.Context, id string) (assets.Frame, error)
}

// Restore loads every asset doc references and swaps the resulting state
// into store in a single mutation. If any asset fails to load the store is
// left unchanged.
func Restore(ctx context.Context, doc Document, loader Loader, store *editor.Store) error {
	st, err := Load(ctx, doc, loader)
	if err != nil {
		return err
	}
	store.Replace(st)
	return nil
}

// Load builds the editor state for doc without touching any store.
func Load(ctx context.Context, doc Document, loader Loader) (editor.State, error) {
	if err := doc.Validate(); err != nil {
		return editor.State{}, err
	}

	st := editor.NewState()
	st.Decorations = append([]decoration.Decoration{}, doc.Decorations...)
	if doc.Mode != "" {
		st.Mode = doc.Mode
	}

	var refs []string
	seen := make(map[string]bool)
	for _, d := range doc.Decorations {
		if !seen[d.Source] {
			seen[d.Source] = true
			refs = append(refs, d.Source)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if doc.Image != "" {
		g.Go(func() error {
			img, err := loader.LoadImage(gctx, doc.Image)
			if err != nil {
				return err
			}
			st.Image = editor.Image{Ref: doc.Image, Raster: img}
			return nil
		})
	}
	if doc.Border != nil {
		g.Go(func() error {
			f, err := loader.LoadFrame(gctx, doc.Border.ID)
			if err != nil {
				return err
			}
			st.Border = editor.Border{
				ID:         f.ID,
				Config:     f.Config,
				Raster:     f.Raster,
				WidthRatio: doc.Border.WidthRatio,
				Active:     true,
			}
			return nil
		})
	}
	rasters := make([]image.Image, len(refs))
	for i, ref := range refs {
		g.Go(func() error {
			img, err := loader.LoadImage(gctx, ref)
			if err != nil {
				return err
			}
			rasters[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return editor.State{}, err
	}

	for i, ref := range refs {
		st.Stickers[ref] = rasters[i]
	}
	return st, nil
}
