package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repertoire-cli/internal/gitrepo"
	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
	"repertoire-cli/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// snapshotFile is the git-tracked copy of the repertoire. state.sqlite stays local.
const snapshotFile = "repertoire.json"

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Keep the workspace in a git repository",
	}
	cmd.AddCommand(newSyncInitCmd(app))
	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncRunCmd(app))
	return cmd
}

func newSyncInitCmd(app *App) *cobra.Command {
	var remoteName, remoteURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Turn the workspace dir into a git repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, s, err := loadWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			st, err := gitrepo.GetStatus(ctx, s.Dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !st.IsRepo {
				if err := gitrepo.Init(ctx, s.Dir); err != nil {
					return writeErr(cmd, err)
				}
			}
			ignore := filepath.Join(s.Dir, ".gitignore")
			if _, err := os.Stat(ignore); errors.Is(err, os.ErrNotExist) {
				if err := store.WriteFileAtomic(ignore, []byte("state.sqlite*\n")); err != nil {
					return writeErr(cmd, err)
				}
			}
			if err := writeSnapshot(s, ws.Tree()); err != nil {
				return writeErr(cmd, err)
			}
			committed, err := gitrepo.CommitPaths(ctx, s.Dir, []string{".gitignore", snapshotFile}, "repertoire: init")
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(remoteURL) != "" {
				if err := gitrepo.SetRemoteURL(ctx, s.Dir, remoteName, remoteURL); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"dir": s.Dir, "committed": committed},
				"_hints": []string{
					"git -C " + s.Dir + " push -u " + remoteName + " HEAD",
					"repertoire sync run",
				},
			})
		},
	}
	cmd.Flags().StringVar(&remoteName, "remote", "origin", "Remote name")
	cmd.Flags().StringVar(&remoteURL, "remote-url", "", "Remote URL to configure")
	return cmd
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show git status of the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := gitrepo.GetStatus(cmd.Context(), dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st})
		},
	}
}

func newSyncRunCmd(app *App) *cobra.Command {
	var message string
	var push bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Commit the repertoire, pull --rebase and push",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, s, err := loadWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := gitrepo.GetStatus(ctx, s.Dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !st.IsRepo {
				return writeErr(cmd, errors.New("workspace is not a git repository (run `repertoire sync init`)"))
			}
			if st.Blocked() {
				return writeErr(cmd, fmt.Errorf("git %s in progress in %s; resolve it first", st.InProgressKind, s.Dir))
			}

			t := ws.Tree()
			if err := writeSnapshot(s, t); err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(message) == "" {
				message = fmt.Sprintf("repertoire: %d folders, %d lines", t.FolderCount(), t.LineCount())
			}
			committed, err := gitrepo.CommitPaths(ctx, s.Dir, []string{snapshotFile}, message)
			if err != nil {
				return writeErr(cmd, err)
			}

			pulled, pushed, reloaded := false, false, false
			if st.Upstream != "" {
				if err := gitrepo.PullRebase(ctx, s.Dir); err != nil {
					return writeErr(cmd, err)
				}
				pulled = true
				reloaded, err = reloadSnapshot(ctx, s, t)
				if err != nil {
					return writeErr(cmd, err)
				}
				if push {
					err := gitrepo.Push(ctx, s.Dir)
					if gitrepo.IsNonFastForwardPushErr(err) {
						log.Info().Msg("push rejected; pulling once more")
						if err := gitrepo.PullRebase(ctx, s.Dir); err != nil {
							return writeErr(cmd, err)
						}
						if _, err := reloadSnapshot(ctx, s, t); err != nil {
							return writeErr(cmd, err)
						}
						err = gitrepo.Push(ctx, s.Dir)
					}
					if err != nil {
						return writeErr(cmd, err)
					}
					pushed = true
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"committed": committed,
					"pulled":    pulled,
					"pushed":    pushed,
					"reloaded":  reloaded,
				},
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Commit message")
	cmd.Flags().BoolVar(&push, "push", false, "Push after pulling")
	return cmd
}

func writeSnapshot(s store.Store, t *repertoire.Tree) error {
	var buf bytes.Buffer
	if err := store.EncodeRepertoire(&buf, t, true); err != nil {
		return err
	}
	return store.WriteFileAtomic(filepath.Join(s.Dir, snapshotFile), buf.Bytes())
}

// reloadSnapshot replaces the local state when a pull changed repertoire.json.
func reloadSnapshot(ctx context.Context, s store.Store, cur *repertoire.Tree) (bool, error) {
	f, err := os.Open(filepath.Join(s.Dir, snapshotFile))
	if err != nil {
		return false, err
	}
	defer f.Close()
	t, err := store.DecodeRepertoire(f)
	if err != nil {
		return false, fmt.Errorf("pulled %s: %w", snapshotFile, err)
	}
	if repertoire.Equal(t, cur) {
		return false, nil
	}
	if err := s.Persist(ctx, t, repertoire.Change{
		Type:     "repertoire.sync",
		EntityID: model.RepertoireEntity,
		Payload: map[string]any{
			"folders": t.FolderCount(),
			"lines":   t.LineCount(),
		},
	}); err != nil {
		return false, err
	}
	log.Info().Int("folders", t.FolderCount()).Int("lines", t.LineCount()).Msg("reloaded repertoire from git")
	return true, nil
}
