package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CommitPaths stages the given workspace-relative paths and commits them.
// Missing paths are skipped. Returns committed=false when nothing changed.
func CommitPaths(ctx context.Context, dir string, paths []string, message string) (committed bool, err error) {
	dir = filepath.Clean(dir)

	st, err := GetStatus(ctx, dir)
	if err != nil {
		return false, err
	}
	if !st.IsRepo {
		return false, errors.New("workspace is not a git repository (run `repertoire sync init`)")
	}
	if st.Blocked() {
		return false, errors.New("git repo has an in-progress merge/rebase; resolve first")
	}

	args := []string{"add", "--"}
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(dir, p)); err == nil {
			args = append(args, p)
		}
	}
	if len(args) == 2 {
		return false, nil
	}
	if _, err := git(ctx, dir, args...); err != nil {
		return false, err
	}

	out, err := git(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("repertoire: update (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	if _, err := git(ctx, dir, "commit", "-m", msg); err != nil {
		return false, err
	}
	return true, nil
}
