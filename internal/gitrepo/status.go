package gitrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

type Status struct {
	IsRepo bool   `json:"isRepo" yaml:"isRepo"`
	Root   string `json:"root,omitempty" yaml:"root,omitempty"`

	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Upstream string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Head     string `json:"head,omitempty" yaml:"head,omitempty"`

	// DirtyTracked ignores untracked files such as the local SQLite state.
	DirtyTracked bool `json:"dirtyTracked" yaml:"dirtyTracked"`
	Unmerged     bool `json:"unmerged" yaml:"unmerged"`

	InProgress     bool   `json:"inProgress" yaml:"inProgress"`
	InProgressKind string `json:"inProgressKind,omitempty" yaml:"inProgressKind,omitempty"` // merge|rebase|cherry-pick|revert

	Ahead  int `json:"ahead,omitempty" yaml:"ahead,omitempty"`
	Behind int `json:"behind,omitempty" yaml:"behind,omitempty"`
}

// Blocked reports whether a merge or conflict has to be resolved by hand first.
func (s Status) Blocked() bool { return s.Unmerged || s.InProgress }

func GetStatus(ctx context.Context, dir string) (Status, error) {
	root, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		// Not a repository.
		return Status{IsRepo: false}, nil
	}
	if strings.TrimSpace(root) == "" {
		return Status{}, errors.New("git rev-parse returned empty root")
	}

	branch, _ := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	head, _ := git(ctx, dir, "rev-parse", "--short", "HEAD")
	upstream, _ := git(ctx, dir, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")

	porcelain, _ := git(ctx, dir, "status", "--porcelain=v1", "--untracked-files=no")
	dirty, unmerged := parsePorcelain(porcelain)
	inProgress, kind := detectInProgress(ctx, dir)

	ahead, behind := 0, 0
	if strings.TrimSpace(upstream) != "" {
		if counts, err := git(ctx, dir, "rev-list", "--left-right", "--count", "HEAD...@{u}"); err == nil {
			if a, b, ok := parseAheadBehind(counts); ok {
				ahead, behind = a, b
			}
		}
	}

	return Status{
		IsRepo:         true,
		Root:           strings.TrimSpace(root),
		Branch:         strings.TrimSpace(branch),
		Upstream:       strings.TrimSpace(upstream),
		Head:           strings.TrimSpace(head),
		DirtyTracked:   dirty,
		Unmerged:       unmerged,
		InProgress:     inProgress,
		InProgressKind: kind,
		Ahead:          ahead,
		Behind:         behind,
	}, nil
}

func parsePorcelain(out string) (dirty bool, unmerged bool) {
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if len(ln) < 2 {
			continue
		}
		xy := ln[:2]
		if strings.TrimSpace(xy) == "" {
			continue
		}
		dirty = true
		if isUnmergedXY(xy) {
			unmerged = true
		}
	}
	return dirty, unmerged
}

func isUnmergedXY(xy string) bool {
	switch xy {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return xy[0] == 'U' || xy[1] == 'U'
}

func detectInProgress(ctx context.Context, dir string) (bool, string) {
	for _, c := range []struct{ ref, kind string }{
		{"MERGE_HEAD", "merge"},
		{"REBASE_HEAD", "rebase"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"REVERT_HEAD", "revert"},
	} {
		if gitRefExists(ctx, dir, c.ref) {
			return true, c.kind
		}
	}
	return false, ""
}

// parseAheadBehind reads `git rev-list --left-right --count HEAD...@{u}`.
func parseAheadBehind(out string) (ahead int, behind int, ok bool) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(fields[0])
	b, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return a, b, true
}
