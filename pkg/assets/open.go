package assets

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/catxpapa/catxframeup/pkg/httputil"
)

// Backend names accepted by Open.
const (
	BackendDir  = "dir"
	BackendS3   = "s3"
	BackendHTTP = "http"
)

// Config selects and configures an asset backend.
type Config struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`
	URL     string `toml:"url"`
}

// DefaultDir is the asset root used when Config.Dir is empty.
const DefaultDir = "assets"

// Open creates the source named by cfg.Backend. An empty backend means
// BackendDir. The returned Writer is nil for the read-only HTTP backend.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Source, Writer, error) {
	switch cfg.Backend {
	case "", BackendDir:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}
		lib, err := NewDirSource(dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return lib, lib, nil
	case BackendS3:
		lib, err := NewS3Source(ctx, cfg.Bucket, cfg.Prefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return lib, lib, nil
	case BackendHTTP:
		src, err := NewHTTPSource(cfg.URL, httputil.NewClient(0))
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown asset backend %q (want dir, s3 or http)", cfg.Backend)
	}
}
