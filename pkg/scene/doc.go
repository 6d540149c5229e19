// Package scene paints editor snapshots onto raster surfaces.
//
// A [Renderer] keeps two RGBA layers at the canvas size. The main layer
// holds the composed artwork (photo, nine-patch border, decorations) and
// is what [Renderer.ExportPNG] writes. The overlay layer holds editing
// chrome, currently the dashed outline around the selected decoration.
//
// The renderer subscribes to an [editor.Store] and repaints both layers
// from scratch on every change:
//
//	r := scene.NewRenderer()
//	store.Subscribe(r)
//	store.SetImage(ref, img) // r now holds the new frame
//
// [Plan] describes the same frame as data, for debugging with Graphviz.
package scene
