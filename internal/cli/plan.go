package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/project"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

func (c *CLI) planCommand() *cobra.Command {
	var (
		svgOut string
		dotOut bool
	)
	cmd := &cobra.Command{
		Use:   "plan <project.json>",
		Short: "Show the draw calls a project renders to",
		Long: `Plan restores a project and lists every draw call in paint order
without rasterizing anything. Use --svg to render the plan as a Graphviz
diagram or --dot to print the DOT source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readProject(args[0])
			if err != nil {
				return err
			}
			src, _, err := c.openAssets(ctx)
			if err != nil {
				return err
			}
			ch, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			st, err := project.Load(ctx, doc, c.newLoader(src, ch, true))
			if err != nil {
				return err
			}
			store := editor.NewStore(editor.WithMaxCanvas(c.Config.Render.MaxCanvas), editor.WithLogger(c.Logger))
			store.Replace(st)
			plan := scene.Plan(store.Snapshot())

			switch {
			case dotOut:
				fmt.Print(plan.DOT())
				return nil
			case svgOut != "":
				svg, err := scene.RenderPlanSVG(ctx, plan.DOT())
				if err != nil {
					return err
				}
				if err := os.WriteFile(svgOut, svg, 0o644); err != nil {
					return err
				}
				printSuccess("Wrote plan with %d steps", len(plan.Steps))
				printFile(svgOut)
				return nil
			}

			printKeyValue("Canvas", fmt.Sprintf("%dx%d", plan.Canvas.X, plan.Canvas.Y))
			rows := make([][]string, 0, len(plan.Steps))
			for i, s := range plan.Steps {
				rot := ""
				if s.Rotation != 0 {
					rot = fmt.Sprintf("%g°", s.Rotation)
				}
				rows = append(rows, []string{
					fmt.Sprint(i + 1),
					string(s.Layer),
					s.Kind,
					s.Label,
					fmt.Sprintf("%dx%d", s.Src.Dx(), s.Src.Dy()),
					fmt.Sprintf("%d,%d %dx%d", s.Dst.Min.X, s.Dst.Min.Y, s.Dst.Dx(), s.Dst.Dy()),
					rot,
				})
			}
			printTable([]string{"#", "Layer", "Kind", "Label", "Source", "Dest", "Rotation"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&svgOut, "svg", "", "render the plan to an SVG file")
	cmd.Flags().BoolVar(&dotOut, "dot", false, "print the plan as Graphviz DOT")
	return cmd
}
