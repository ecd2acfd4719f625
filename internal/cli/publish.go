package cli

import (
	"path/filepath"
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var to string
	var overwrite, skipNotes bool

	cmd := &cobra.Command{
		Use:   "publish [line-or-folder-id]",
		Short: "Write lines as markdown files (default: the white and black roots)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, errUsage("missing --to"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			opt := publish.WriteOptions{Overwrite: overwrite, SkipNotes: skipNotes}

			if len(args) == 1 {
				id := strings.TrimSpace(args[0])
				var res publish.WriteResult
				switch {
				case t.HasLine(id):
					res, err = publish.WriteLine(t, id, to, opt)
				case t.HasFolder(id):
					res, err = publish.WriteFolder(t, id, to, opt)
				default:
					return writeErr(cmd, errNotFound("line or folder", id))
				}
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			written := []string{}
			for _, root := range []model.ID{model.RootWhite, model.RootBlack} {
				res, err := publish.WriteFolder(t, root, filepath.Join(to, root), opt)
				if err != nil {
					return writeErr(cmd, err)
				}
				written = append(written, res.Written...)
			}
			return writeOut(cmd, app, map[string]any{"data": publish.WriteResult{Written: written}})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&skipNotes, "no-notes", false, "Leave out per-ply notes")
	return cmd
}
