package cli

import (
	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/internal/server"
	"github.com/catxpapa/catxframeup/pkg/pipeline"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the web editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, w, err := c.openAssets(ctx)
			if err != nil {
				return err
			}
			hist, err := c.openHistory(ctx)
			if err != nil {
				return err
			}
			defer hist.Close()

			ch, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			// Remote clients must not read server-local files, so no WithLocalFiles.
			runner := pipeline.NewRunner(c.newLoader(src, ch, false), ch, c.Config.Cache.Keyer(), c.Logger)
			defer runner.Close()

			cfg := c.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}
			s := server.New(src, w, hist, runner, cfg, c.Logger.WithPrefix("http"))
			c.Logger.Info("Serving", "assets", src.Origin(), "history", c.Config.History.Backend, "uploads", w != nil)
			return s.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :3000)")
	return cmd
}
