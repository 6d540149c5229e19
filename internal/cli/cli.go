// Package cli implements the frameup command-line interface.
//
// Commands compose photos with frames and decorations (render, project,
// edit, plan), browse the asset library and saved works (assets,
// history), and run the HTTP API (serve). Backends are chosen by the
// TOML config file; see [Config].
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/buildinfo"
	"github.com/catxpapa/catxframeup/pkg/cache"
	"github.com/catxpapa/catxframeup/pkg/history"
	"github.com/catxpapa/catxframeup/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "frameup"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configFlag string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level. At debug level the pipeline,
// loader and cache hooks are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "frameup puts photos in decorative frames",
		Long:         `frameup composes a photo with a nine-patch border frame and sticker decorations, and exports the result as PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configFlag)
			if err != nil {
				return err
			}
			c.Config = cfg
			if p := cfg.Path(); p != "" {
				c.Logger.Debug("Loaded config", "path", p)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/frameup/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.projectCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.assetsCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factories
// =============================================================================

// openAssets opens the configured asset source.
func (c *CLI) openAssets(ctx context.Context) (assets.Source, assets.Writer, error) {
	return assets.Open(ctx, c.Config.Assets, c.Logger)
}

// openCache opens the configured cache, or a NullCache when noCache is set.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ch, err := cache.Open(ctx, c.Config.Cache)
	if err != nil {
		c.Logger.Warn("Cache unavailable, continuing without", "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// newRunner creates a pipeline runner over the configured assets and cache.
// local enables "file:" photo refs.
func (c *CLI) newRunner(ctx context.Context, noCache, local bool) (*pipeline.Runner, error) {
	src, _, err := c.openAssets(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(c.newLoader(src, ch, local), ch, c.Config.Cache.Keyer(), c.Logger), nil
}

func (c *CLI) newLoader(src assets.Source, ch cache.Cache, local bool) *assets.Loader {
	opts := []assets.LoaderOption{
		assets.WithCache(ch, c.Config.Cache.Keyer()),
		assets.WithLogger(c.Logger),
	}
	if local {
		opts = append(opts, assets.WithLocalFiles())
	}
	return assets.NewLoader(src, opts...)
}

func (c *CLI) openHistory(ctx context.Context) (history.Store, error) {
	return history.Open(ctx, c.Config.History)
}

// localRef turns an existing file path into a "file:" ref. Anything else
// is taken as an asset ref.
func localRef(arg string) string {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	return assets.LocalPrefix + abs
}
