package repertoire

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"

	"github.com/benbjohnson/immutable"
)

type InvariantError struct {
	Problems []string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("repertoire invariants violated: %s", strings.Join(e.Problems, "; "))
}

// FromSnapshot hydrates a tree from persisted state. Missing roots are added and
// roots still tagged either are pinned to folders; anything else that breaks an
// invariant is reported as an InvariantError.
func FromSnapshot(rep model.Repertoire) (*Tree, error) {
	t := New()
	for id, f := range rep.Folders {
		f.Children = append([]model.ID{}, f.Children...)
		if model.IsRoot(id) && f.Contains == model.ContainsEither {
			f.Contains = model.ContainsFolders
		}
		t.folders = t.folders.Set(id, f)
	}
	for id, l := range rep.Lines {
		l.Notes = append([]string{}, l.Notes...)
		t.lines = t.lines.Set(id, l)
	}
	// Deterministic index build: folders in sorted id order.
	ids := make([]model.ID, 0, len(rep.Folders))
	for id := range rep.Folders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f, _ := t.folders.Get(id)
		for _, ch := range f.Children {
			if _, dup := t.parents.Get(ch); dup {
				continue
			}
			t.parents = t.parents.Set(ch, id)
		}
	}
	if problems := t.Check(); len(problems) > 0 {
		return nil, InvariantError{Problems: problems}
	}
	return t, nil
}

// Check verifies every structural invariant and returns human-readable problems.
func (t *Tree) Check() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, root := range []model.ID{model.RootWhite, model.RootBlack} {
		f, ok := t.folders.Get(root)
		if !ok {
			add("root %s missing", root)
			continue
		}
		if f.Contains != model.ContainsFolders {
			add("root %s contains %s (must be folders)", root, f.Contains)
		}
	}

	itr := t.folders.Iterator()
	for !itr.Done() {
		id, f, _ := itr.Next()
		seen := map[model.ID]bool{}
		for _, ch := range f.Children {
			if seen[ch] {
				add("folder %s lists child %s twice", id, ch)
			}
			seen[ch] = true
			_, isFolder := t.folders.Get(ch)
			_, isLine := t.lines.Get(ch)
			switch {
			case !isFolder && !isLine:
				add("folder %s has dangling child %s", id, ch)
			case f.Contains == model.ContainsFolders && !isFolder:
				add("folder %s contains folders but child %s is a line", id, ch)
			case f.Contains == model.ContainsLines && !isLine:
				add("folder %s contains lines but child %s is a folder", id, ch)
			}
		}
		switch f.Contains {
		case model.ContainsEither:
			if len(f.Children) > 0 {
				add("folder %s is either but has %d children", id, len(f.Children))
			}
		case model.ContainsFolders, model.ContainsLines:
			if len(f.Children) == 0 && !model.IsRoot(id) {
				add("folder %s is %s but empty", id, f.Contains)
			}
		default:
			add("folder %s has unknown contains %q", id, f.Contains)
		}

		if model.IsRoot(id) {
			if _, ok := t.parents.Get(id); ok {
				add("root %s has a parent", id)
			}
			continue
		}
		t.checkOwner(id, add)
		if t.hasCycle(id) {
			add("folder %s is its own descendant", id)
		}
	}

	li := t.lines.Iterator()
	for !li.Done() {
		id, l, _ := li.Next()
		t.checkOwner(id, add)
		if !l.Player.Valid() {
			add("line %s has invalid player %q", id, l.Player)
		}
		n, err := engine.CountPlies(l.StartingFEN, l.PGN)
		if err != nil {
			add("line %s: %v", id, err)
			continue
		}
		if len(l.Notes) != n+1 {
			add("line %s has %d notes for %d plies", id, len(l.Notes), n)
		}
	}

	sort.Strings(problems)
	return problems
}

func (t *Tree) checkOwner(id model.ID, add func(string, ...any)) {
	owners := t.scanParent(id)
	switch len(owners) {
	case 0:
		add("%s is orphaned", id)
		return
	case 1:
	default:
		sort.Strings(owners)
		add("%s has %d parents (%s)", id, len(owners), strings.Join(owners, ", "))
		return
	}
	if p, ok := t.parents.Get(id); !ok || p != owners[0] {
		add("%s parent index out of sync (index %q, scan %q)", id, p, owners[0])
	}
}

func (t *Tree) hasCycle(id model.ID) bool {
	steps := 0
	limit := t.folders.Len() + 1
	cur := id
	for {
		p, ok := t.parents.Get(cur)
		if !ok {
			return false
		}
		if p == id {
			return true
		}
		cur = p
		steps++
		if steps > limit {
			return true
		}
	}
}

// Equal reports whether two trees hold the same folders and lines.
func Equal(a, b *Tree) bool {
	if a.folders.Len() != b.folders.Len() || a.lines.Len() != b.lines.Len() {
		return false
	}
	return mapsEqual(a.folders, b.folders, foldersEqual) && mapsEqual(a.lines, b.lines, linesEqual)
}

func mapsEqual[V any](a, b *immutable.Map[model.ID, V], eq func(x, y V) bool) bool {
	itr := a.Iterator()
	for !itr.Done() {
		k, av, _ := itr.Next()
		bv, ok := b.Get(k)
		if !ok || !eq(av, bv) {
			return false
		}
	}
	return true
}

func foldersEqual(x, y model.Folder) bool {
	return x.Name == y.Name && x.Contains == y.Contains && slices.Equal(x.Children, y.Children)
}

func linesEqual(x, y model.Line) bool {
	return x.Player == y.Player && x.StartingFEN == y.StartingFEN && x.PGN == y.PGN && slices.Equal(x.Notes, y.Notes)
}
