package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/pipeline"
	"github.com/catxpapa/catxframeup/pkg/project"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	frame     string
	ratio     float64
	decos     []string
	maxCanvas int
	noCache   bool
	refresh   bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <photo>",
		Short: "Frame and decorate a photo and write a PNG",
		Long: `Render composes a photo with an optional frame and decorations.

The photo is a local file or an asset ref such as uploads/cat.jpg.
Decorations are given as id[@x,y[,scale[,rotation]]] with x and y in
0..1 canvas coordinates; the default position is the center.`,
		Example: `  frameup render cat.jpg --frame wood
  frameup render cat.jpg --frame gold --ratio 0.05 --deco star@0.2,0.2 --deco heart@0.8,0.8,0.2,30 -o card.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <photo>-framed.png)")
	cmd.Flags().StringVarP(&opts.frame, "frame", "f", "", "frame id")
	cmd.Flags().Float64VarP(&opts.ratio, "ratio", "r", 0, "border width ratio (default from config)")
	cmd.Flags().StringArrayVarP(&opts.decos, "deco", "d", nil, "decoration id[@x,y[,scale[,rotation]]] (repeatable)")
	cmd.Flags().IntVar(&opts.maxCanvas, "max-canvas", 0, "longest canvas edge in pixels (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")

	return cmd
}

// defaultOutput derives "<name>-framed.png" from a photo argument.
func defaultOutput(photo string) string {
	base := filepath.Base(photo)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-framed.png"
}

func (c *CLI) runRender(ctx context.Context, photo string, opts renderOpts) error {
	popts := pipeline.Options{
		Photo:      localRef(photo),
		Frame:      opts.frame,
		WidthRatio: opts.ratio,
		MaxCanvas:  opts.maxCanvas,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	}
	if popts.WidthRatio == 0 {
		popts.WidthRatio = c.Config.Render.WidthRatio
	}
	if popts.MaxCanvas == 0 {
		popts.MaxCanvas = c.Config.Render.MaxCanvas
	}
	for _, s := range opts.decos {
		spec, err := pipeline.ParseDecorationSpec(s)
		if err != nil {
			return err
		}
		popts.Decorations = append(popts.Decorations, spec)
	}

	runner, err := c.newRunner(ctx, opts.noCache, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = defaultOutput(photo)
	}
	if err := scene.WriteFileAtomic(output, res.PNG); err != nil {
		return err
	}
	prog.done("Rendered " + photo)

	printResult(res, output)
	return nil
}

func printResult(res *pipeline.Result, output string) {
	printSuccess("Rendered %dx%d canvas", res.Canvas.X, res.Canvas.Y)
	printFile(output)
	printStats([]string{
		fmt.Sprintf("%d border regions", res.Stats.Draw.BorderRegions),
		fmt.Sprintf("%d decorations", res.Stats.Draw.Decorations),
		fmt.Sprintf("%d KB", (len(res.PNG)+1023)/1024),
	}, res.CacheInfo.RenderHit)
}

// =============================================================================
// project
// =============================================================================

func (c *CLI) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect and render saved project documents",
	}
	cmd.AddCommand(c.projectRenderCommand())
	cmd.AddCommand(c.projectShowCommand())
	return cmd
}

// readProject decodes and validates the document at path.
func readProject(path string) (project.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return project.Document{}, err
	}
	defer f.Close()
	return project.Decode(f)
}

func (c *CLI) projectRenderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "render <project.json>",
		Short: "Render a project document to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readProject(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), noCache, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			res, err := runner.RenderDocument(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0])
			}
			if err := scene.WriteFileAtomic(output, res.PNG); err != nil {
				return err
			}
			prog.done("Rendered " + args[0])
			printResult(res, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <project>-framed.png)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) projectShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project.json>",
		Short: "Summarize a project document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readProject(args[0])
			if err != nil {
				return err
			}
			showDocument(doc)
			return nil
		},
	}
}

func showDocument(doc project.Document) {
	printKeyValue("Version", fmt.Sprint(doc.Version))
	printKeyValue("Photo", orDash(doc.Image))
	if doc.Border != nil {
		printKeyValue("Frame", fmt.Sprintf("%s (ratio %g)", doc.Border.ID, doc.Border.WidthRatio))
	} else {
		printKeyValue("Frame", "-")
	}
	printKeyValue("Mode", orDash(string(doc.Mode)))
	if !doc.SaveTime.IsZero() {
		printKeyValue("Saved", doc.SaveTime.Local().Format("2006-01-02 15:04:05"))
	}
	printKeyValue("Decorations", fmt.Sprint(len(doc.Decorations)))

	if len(doc.Decorations) == 0 {
		return
	}
	rows := make([][]string, 0, len(doc.Decorations))
	for _, d := range doc.Decorations {
		rows = append(rows, []string{
			d.ID,
			d.Source,
			fmt.Sprintf("%.3f, %.3f", d.X, d.Y),
			fmt.Sprintf("%g", d.Scale),
			fmt.Sprintf("%g°", d.Rotation),
		})
	}
	printTable([]string{"ID", "Source", "Position", "Scale", "Rotation"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
