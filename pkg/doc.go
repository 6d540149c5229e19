// Package pkg provides the core libraries for frameup photo framing.
//
// # Overview
//
// frameup composes a photo with a nine-patch border frame and freely placed
// sticker decorations, then exports the result as a PNG. The pkg directory
// is organized into three main areas:
//
//  1. Domain logic (geometry, nine-patch slicing, decorations, editor state)
//  2. Infrastructure (asset sources, caching, project history)
//  3. Orchestration (load → compose → export) shared by the CLI and server
//
// # Architecture
//
// The typical data flow through frameup:
//
//	Photo + frame + decorations (dir, S3 or HTTP asset source)
//	         ↓
//	    [assets] package (fetch, cache and decode)
//	         ↓
//	    [editor] package (single source of truth, derived layout)
//	         ↓
//	    [scene] package (draw photo, border regions and stickers)
//	         ↓
//	    PNG output, optionally saved to [history]
//
// # Quick Start
//
// Frame a photo from a local asset directory:
//
//	import (
//	    "context"
//	    "github.com/catxpapa/catxframeup/pkg/assets"
//	    "github.com/catxpapa/catxframeup/pkg/pipeline"
//	)
//
//	src, _ := assets.NewDirSource("./library", nil)
//	runner := pipeline.NewRunner(assets.NewLoader(src), nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Photo: "uploads/cat.jpg",
//	    Frame: "wood",
//	    Decorations: []pipeline.DecorationSpec{{Asset: "star", X: 0.2, Y: 0.2}},
//	})
//	os.WriteFile("cat-framed.png", res.PNG, 0o644)
//
// # Main Packages
//
// ## Domain Logic
//
// [geometry] - Canvas sizing policy, border width computation and the
// nine-region layout of a framed canvas.
//
// [frame] - Frame settings (slice insets, outset, fill mode) and the
// conversion from settings to a geometry layout.
//
// [ninepatch] - Slices a border raster into corners, edges and center and
// draws them, stretched or tiled, into a layout.
//
// [decoration] - Sticker decorations: normalized placement, hit testing and
// drag sessions.
//
// [editor] - The editing session store. Mutations notify subscribers with a
// full snapshot; pointer input flows through a pure reducer.
//
// [scene] - Renders snapshots to an image, exports PNG and plans draw steps.
//
// ## Infrastructure
//
// [assets] - Asset sources (local directory, S3, read-only HTTP) and a
// caching loader that collapses duplicate fetches.
//
// [cache] - File, Redis and null caches with a key scheme for assets and
// rendered artifacts.
//
// [history] - Saved projects in a directory, SQLite or MongoDB.
//
// [project] - The JSON project document and its restore into an editor.
//
// ## Orchestration
//
// [pipeline] - Complete render pipeline (load → compose → export) used by
// both the CLI and the HTTP server.
//
// [observability] - Hooks for render, asset, cache and HTTP events.
//
// [errors] - Coded errors and input validation shared by every package.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/editor/...             # Specific package
//	go test -run Example                 # Examples only
//
// [geometry]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/geometry
// [frame]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/frame
// [ninepatch]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/ninepatch
// [decoration]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/decoration
// [editor]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/editor
// [scene]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/scene
// [assets]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/assets
// [cache]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/cache
// [history]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/history
// [project]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/project
// [pipeline]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/pipeline
// [observability]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/observability
// [errors]: https://pkg.go.dev/github.com/catxpapa/catxframeup/pkg/errors
package pkg
