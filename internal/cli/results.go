package cli

import (
	"github.com/spf13/cobra"
)

func newResultsCmd(app *App) *cobra.Command {
	var limit int
	var line string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Training history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List training runs (newest-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			rs, err := s.ReadResults(cmd.Context(), line, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			completed, mistakes := 0, 0
			for _, r := range rs {
				if r.Completed {
					completed++
				}
				mistakes += r.Mistakes
			}
			return writeOut(cmd, app, map[string]any{
				"data": rs,
				"meta": map[string]any{"runs": len(rs), "completed": completed, "mistakes": mistakes},
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Max runs to return (0 = all)")
	listCmd.Flags().StringVar(&line, "line", "", "Only runs of this line")

	cmd.AddCommand(listCmd)
	return cmd
}
