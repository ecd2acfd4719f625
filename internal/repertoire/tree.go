// Package repertoire holds the two-rooted folder/line tree and every structural
// mutation on it.
//
// A Tree is an immutable value. Mutations return a new Tree and leave the
// receiver untouched; unchanged folders, lines and index entries are shared
// between the two values. Expected refusals (root protection, type
// incompatibility, cycles, non-empty deletes) are reported with ok=false.
package repertoire

import (
	"strings"

	"repertoire-cli/internal/model"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

type Tree struct {
	folders *immutable.Map[model.ID, model.Folder]
	lines   *immutable.Map[model.ID, model.Line]
	// parents maps every non-root folder and every line to its owning folder.
	parents *immutable.Map[model.ID, model.ID]

	newID func() model.ID
}

func defaultNewID() model.ID { return uuid.NewString() }

// New returns a tree holding only the two empty roots.
func New() *Tree {
	t := &Tree{
		folders: immutable.NewMap[model.ID, model.Folder](nil),
		lines:   immutable.NewMap[model.ID, model.Line](nil),
		parents: immutable.NewMap[model.ID, model.ID](nil),
		newID:   defaultNewID,
	}
	t.folders = t.folders.Set(model.RootWhite, model.Folder{Name: "White", Contains: model.ContainsFolders, Children: []model.ID{}})
	t.folders = t.folders.Set(model.RootBlack, model.Folder{Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}})
	return t
}

// WithIDGenerator returns a copy of t that mints ids with gen. Used by tests
// that need stable ids.
func (t *Tree) WithIDGenerator(gen func() model.ID) *Tree {
	next := t.clone()
	if gen == nil {
		gen = defaultNewID
	}
	next.newID = gen
	return next
}

func (t *Tree) clone() *Tree {
	cp := *t
	return &cp
}

func (t *Tree) Folder(id model.ID) (model.Folder, bool) {
	f, ok := t.folders.Get(strings.TrimSpace(id))
	if !ok {
		return model.Folder{}, false
	}
	f.Children = append([]model.ID(nil), f.Children...)
	return f, true
}

func (t *Tree) Line(id model.ID) (model.Line, bool) {
	l, ok := t.lines.Get(strings.TrimSpace(id))
	if !ok {
		return model.Line{}, false
	}
	l.Notes = append([]string(nil), l.Notes...)
	return l, true
}

func (t *Tree) HasFolder(id model.ID) bool {
	_, ok := t.folders.Get(id)
	return ok
}

func (t *Tree) HasLine(id model.ID) bool {
	_, ok := t.lines.Get(id)
	return ok
}

// Children returns a copy of a folder's child ids (nil if the folder is missing).
func (t *Tree) Children(id model.ID) []model.ID {
	f, ok := t.Folder(id)
	if !ok {
		return nil
	}
	return f.Children
}

func (t *Tree) FolderCount() int { return t.folders.Len() }
func (t *Tree) LineCount() int   { return t.lines.Len() }

// FindParentFolder resolves the folder that owns id.
func (t *Tree) FindParentFolder(id model.ID) (model.ID, bool) {
	return t.parents.Get(strings.TrimSpace(id))
}

// scanParent is the index-free owner lookup: every folder whose children include
// id and whose contains tag is not either.
func (t *Tree) scanParent(id model.ID) []model.ID {
	var out []model.ID
	itr := t.folders.Iterator()
	for !itr.Done() {
		fid, f, _ := itr.Next()
		if f.Contains == model.ContainsEither {
			continue
		}
		for _, ch := range f.Children {
			if ch == id {
				out = append(out, fid)
				break
			}
		}
	}
	return out
}

// IsDescendant reports whether id sits anywhere below ancestor.
func (t *Tree) IsDescendant(id, ancestor model.ID) bool {
	cur := id
	for {
		p, ok := t.parents.Get(cur)
		if !ok {
			return false
		}
		if p == ancestor {
			return true
		}
		cur = p
	}
}

// Path returns the folder ids from the owning root down to id (inclusive).
func (t *Tree) Path(id model.ID) []model.ID {
	id = strings.TrimSpace(id)
	if !t.HasFolder(id) && !t.HasLine(id) {
		return nil
	}
	out := []model.ID{id}
	cur := id
	for {
		p, ok := t.parents.Get(cur)
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Walk visits folderID and everything below it depth-first in child order.
// isLine tells which map id belongs to. Returning false stops descent into a folder.
func (t *Tree) Walk(folderID model.ID, fn func(id model.ID, depth int, isLine bool) bool) {
	var visit func(id model.ID, depth int)
	visit = func(id model.ID, depth int) {
		if _, ok := t.lines.Get(id); ok {
			fn(id, depth, true)
			return
		}
		f, ok := t.folders.Get(id)
		if !ok {
			return
		}
		if !fn(id, depth, false) {
			return
		}
		for _, ch := range f.Children {
			visit(ch, depth+1)
		}
	}
	visit(strings.TrimSpace(folderID), 0)
}

// LinesUnder returns every line id in the subtree rooted at id, in child order.
// A line id yields itself.
func (t *Tree) LinesUnder(id model.ID) []model.ID {
	out := []model.ID{}
	t.Walk(id, func(x model.ID, _ int, isLine bool) bool {
		if isLine {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Snapshot exports the persisted shape.
func (t *Tree) Snapshot() model.Repertoire {
	out := model.Repertoire{
		Folders: make(map[model.ID]model.Folder, t.folders.Len()),
		Lines:   make(map[model.ID]model.Line, t.lines.Len()),
	}
	fi := t.folders.Iterator()
	for !fi.Done() {
		id, f, _ := fi.Next()
		f.Children = append([]model.ID{}, f.Children...)
		out.Folders[id] = f
	}
	li := t.lines.Iterator()
	for !li.Done() {
		id, l, _ := li.Next()
		l.Notes = append([]string{}, l.Notes...)
		out.Lines[id] = l
	}
	return out
}
