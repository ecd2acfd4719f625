package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
	"repertoire-cli/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the repertoire as JSON (stdout or --out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			if strings.TrimSpace(out) == "" {
				if err := store.EncodeRepertoire(cmd.OutOrStdout(), t, app.Pretty); err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}
			var buf bytes.Buffer
			if err := store.EncodeRepertoire(&buf, t, true); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteFileAtomic(out, buf.Bytes()); err != nil {
				return writeErr(cmd, err)
			}
			log.Info().Str("path", out).Msg("exported repertoire")
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":    out,
					"folders": t.FolderCount(),
					"lines":   t.LineCount(),
				},
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the repertoire with an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}
			t, err := store.DecodeRepertoire(r)
			if err != nil {
				return writeErr(cmd, err)
			}

			ws, s, err := loadWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if cur := ws.Tree(); (cur.LineCount() > 0 || cur.FolderCount() > 2) && !force {
				return writeErr(cmd, errors.New("workspace is not empty (pass --force to replace it)"))
			}
			if err := s.Persist(ctx, t, repertoire.Change{
				Type:     "repertoire.import",
				EntityID: model.RepertoireEntity,
				Payload: map[string]any{
					"source":  args[0],
					"folders": t.FolderCount(),
					"lines":   t.LineCount(),
				},
			}); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"folders": t.FolderCount(),
					"lines":   t.LineCount(),
				},
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace a non-empty repertoire")
	return cmd
}
