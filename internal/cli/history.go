package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/project"
	"github.com/catxpapa/catxframeup/pkg/scene"
)

func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage saved works",
	}
	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyClearCommand())
	return cmd
}

func (c *CLI) historyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved works, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No saved works")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				frame := "-"
				if e.Document.Border != nil {
					frame = e.Document.Border.ID
				}
				img := "no"
				if e.HasImage {
					img = "yes"
				}
				rows = append(rows, []string{
					e.ID,
					e.SaveTime.Local().Format("2006-01-02 15:04:05"),
					orDash(e.Document.Image),
					frame,
					fmt.Sprint(len(e.Document.Decorations)),
					img,
				})
			}
			printTable([]string{"ID", "Saved", "Photo", "Frame", "Decos", "PNG"}, rows)
			return nil
		},
	}
}

func (c *CLI) historyShowCommand() *cobra.Command {
	var (
		pngOut  string
		jsonOut string
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved work and optionally export it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("ID", e.ID)
			showDocument(e.Document)

			if jsonOut != "" {
				f, err := os.Create(jsonOut)
				if err != nil {
					return err
				}
				if err := project.Encode(f, e.Document); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				printFile(jsonOut)
			}
			if pngOut != "" {
				png, err := store.Image(cmd.Context(), e.ID)
				if err != nil {
					return err
				}
				if err := scene.WriteFileAtomic(pngOut, png); err != nil {
					return err
				}
				printFile(pngOut)
			}
			if jsonOut != "" {
				printNextStep("Edit it", "frameup edit "+jsonOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pngOut, "png", "", "write the saved image to this file")
	cmd.Flags().StringVar(&jsonOut, "json", "", "write the project document to this file")
	return cmd
}

func (c *CLI) historyClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				printWarning("This deletes all saved works; rerun with --yes to confirm")
				return nil
			}
			store, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Deleted %d saved works", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}
