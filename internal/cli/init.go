package cli

import (
	"repertoire-cli/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, s, err := loadWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(ctx, ws.Tree()); err != nil {
				return writeErr(cmd, err)
			}

			// If we're in workspace mode but no current workspace is set, set it.
			if app.Workspace != "" {
				cfg, err := store.LoadConfig()
				if err == nil && cfg.CurrentWorkspace == "" {
					cfg.CurrentWorkspace = app.Workspace
					if err := store.SaveConfig(cfg); err != nil {
						log.Warn().Err(err).Msg("could not record current workspace")
					}
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        app.Dir,
					"workspace":  app.Workspace,
					"sqlitePath": s.SQLitePath(),
					"folders":    ws.Tree().FolderCount(),
					"lines":      ws.Tree().LineCount(),
				},
			})
		},
	}
	return cmd
}
