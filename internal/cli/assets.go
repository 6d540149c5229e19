package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
)

func (c *CLI) assetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List frames, decorations and uploaded photos",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "frames",
		Short: "List frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := c.openAssets(cmd.Context())
			if err != nil {
				return err
			}
			frames, err := src.ListFrames(cmd.Context())
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				printInfo("No frames in %s", src.Origin())
				return nil
			}
			rows := make([][]string, 0, len(frames))
			for _, f := range frames {
				s := f.Settings
				rows = append(rows, []string{f.ID, s.Widths().String(), s.Outsets().String(), sliceLabel(s)})
			}
			printTable([]string{"ID", "Width", "Outset", "Slice"}, rows)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "decos",
		Aliases: []string{"decorations"},
		Short:   "List decorations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := c.openAssets(cmd.Context())
			if err != nil {
				return err
			}
			decos, err := src.ListDecorations(cmd.Context())
			if err != nil {
				return err
			}
			if len(decos) == 0 {
				printInfo("No decorations in %s", src.Origin())
				return nil
			}
			rows := make([][]string, 0, len(decos))
			for _, d := range decos {
				rows = append(rows, []string{d.ID, d.Ref, fmt.Sprintf("%g", d.Settings.DefaultScale)})
			}
			printTable([]string{"ID", "Image", "Default scale"}, rows)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "uploads",
		Short: "List uploaded photos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, w, err := c.openAssets(cmd.Context())
			if err != nil {
				return err
			}
			if w == nil {
				return errors.New(errors.ErrCodeUnsupported, "the %s asset backend has no uploads", c.Config.Assets.Backend)
			}
			ups, err := w.ListUploads(cmd.Context())
			if err != nil {
				return err
			}
			if len(ups) == 0 {
				printInfo("No uploads")
				return nil
			}
			rows := make([][]string, 0, len(ups))
			for _, u := range ups {
				rows = append(rows, []string{u.Ref, fmt.Sprintf("%d KB", (u.Size+1023)/1024), u.UploadTime.Local().Format("2006-01-02 15:04")})
			}
			printTable([]string{"Ref", "Size", "Uploaded"}, rows)
			return nil
		},
	})
	return cmd
}

func sliceLabel(s frame.Config) string {
	if !s.HasSlices() {
		return "default"
	}
	return s.Slice.Edges.String()
}
