package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"repertoire-cli/internal/format"
	"repertoire-cli/internal/repertoire"
	"repertoire-cli/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type App struct {
	Dir       string
	Workspace string
	Pretty    bool
	Format    string
	LogLevel  string

	cfg *store.GlobalConfig
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "repertoire",
		Short:        "Chess opening repertoire CLI + trainer",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a folder under the white root and add a line to it
  repertoire folders create --name "Italian" --parent w
  repertoire lines create --parent <folder-id> --player w --pgn "1. e4 e5 2. Nf3 Nc6 3. Bc4"

  # Drill every line below a folder in the interactive trainer
  repertoire train <folder-id> --shuffle

  # Direct line lookup (shortcut for: repertoire lines show <line-id>)
  repertoire <line-id>
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if app.Format == "" {
			app.Format = cfg.Format
		}
		if app.Format == "" {
			app.Format = "json"
		}
		if !format.Valid(app.Format) {
			return writeErr(cmd, fmt.Errorf("invalid --format: %q (expected json|yaml)", app.Format))
		}
		if app.LogLevel == "" {
			app.LogLevel = cfg.LogLevel
		}
		if app.LogLevel == "" {
			app.LogLevel = "warn"
		}
		if err := setupLogging(cmd.ErrOrStderr(), app.LogLevel); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("REPERTOIRE_DIR", ""), "Path to workspace dir (overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("REPERTOIRE_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("REPERTOIRE_FORMAT", ""), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("REPERTOIRE_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newLinesCmd(app))
	cmd.AddCommand(newTrainCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newResultsCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newWebCmd(app))

	return cmd
}

// setupLogging points the global zerolog logger at w.
func setupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     w,
		NoColor: os.Getenv("NO_COLOR") != "",
	}).With().Timestamp().Logger()
	return nil
}

func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}

	// 1) --workspace
	// 2) config currentWorkspace
	// 3) default workspace ("default")
	name := app.Workspace
	if name == "" && app.cfg != nil {
		name = app.cfg.CurrentWorkspace
	}
	if name == "" {
		name = "default"
	}
	d, err := store.WorkspaceDir(name)
	if err != nil {
		return "", err
	}
	app.Workspace = name
	app.Dir = d
	return d, nil
}

// loadWorkspace opens the stored repertoire behind a Workspace that persists
// every change back to the same store.
func loadWorkspace(ctx context.Context, app *App) (*repertoire.Workspace, store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, store.Store{}, err
	}
	s := store.Store{Dir: dir}
	t, err := s.Load(ctx)
	if err != nil {
		return nil, s, err
	}
	return repertoire.NewWorkspace(t, s), s, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
