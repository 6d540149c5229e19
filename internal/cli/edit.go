package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/catxpapa/catxframeup/pkg/editor"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/project"
)

func (c *CLI) editCommand() *cobra.Command {
	var photo string
	cmd := &cobra.Command{
		Use:   "edit <project.json>",
		Short: "Edit a project interactively in the terminal",
		Long: `Edit opens a project document in an interactive editor. Frames and
decorations come from the configured asset library; s writes the document
back to the same file.

Pass --photo to start a new project at a path that does not exist yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			var doc project.Document
			switch _, err := os.Stat(path); {
			case err == nil:
				if doc, err = readProject(path); err != nil {
					return err
				}
			case os.IsNotExist(err) && photo != "":
				doc = project.Document{Version: project.Version, Image: localRef(photo)}
			case os.IsNotExist(err):
				return errors.New(errors.ErrCodeNotFound, "%s does not exist (use --photo to start a new project)", path)
			default:
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
			loader := c.newLoader(src, ch, true)

			// The editor logs through the TUI status line; a logger writing
			// to the terminal would corrupt the screen.
			store := editor.NewStore(editor.WithMaxCanvas(c.Config.Render.MaxCanvas))
			if err := project.Restore(ctx, doc, loader, store); err != nil {
				return err
			}

			frames, err := src.ListFrames(ctx)
			if err != nil {
				return err
			}
			decos, err := src.ListDecorations(ctx)
			if err != nil {
				return err
			}
			frameIDs := make([]string, len(frames))
			for i, f := range frames {
				frameIDs[i] = f.ID
			}
			decoIDs := make([]string, len(decos))
			for i, d := range decos {
				decoIDs[i] = d.ID
			}

			m := newEditorModel(ctx, store, loader, path, frameIDs, decoIDs)
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(editorModel); ok && fm.dirty {
				printWarning("Unsaved changes to %s were discarded", path)
				return nil
			}
			printSuccess("Closed %s", path)
			printNextStep("Render it", "frameup project render "+path)
			return nil
		},
	}
	cmd.Flags().StringVar(&photo, "photo", "", "photo for a new project (local file or asset ref)")
	return cmd
}
