package repertoire

import (
	"slices"
	"strings"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"
)

// CreateFolder appends a new folder under parentID. The parent must be either
// or folders; an either parent is promoted to folders.
func (t *Tree) CreateFolder(name string, parentID model.ID) (*Tree, model.ID, bool) {
	parentID = strings.TrimSpace(parentID)
	parent, ok := t.folders.Get(parentID)
	if !ok || parent.Contains == model.ContainsLines {
		return t, "", false
	}
	id := t.mintID()
	next := t.clone()
	next.folders = next.folders.Set(id, model.Folder{
		Name:     strings.TrimSpace(name),
		Contains: model.ContainsEither,
		Children: []model.ID{},
	})
	next.attach(parentID, id, model.ContainsFolders)
	return next, id, true
}

// RenameFolder renames any existing folder, roots included.
func (t *Tree) RenameFolder(id model.ID, name string) (*Tree, bool) {
	id = strings.TrimSpace(id)
	f, ok := t.folders.Get(id)
	if !ok {
		return t, false
	}
	next := t.clone()
	f.Name = strings.TrimSpace(name)
	next.folders = next.folders.Set(id, f)
	return next, true
}

// MoveFolder reattaches id under newParentID.
// Refused for roots, self-targets, targets inside id's subtree and lines-typed targets.
func (t *Tree) MoveFolder(id, newParentID model.ID) (*Tree, bool) {
	id = strings.TrimSpace(id)
	newParentID = strings.TrimSpace(newParentID)
	if model.IsRoot(id) || id == newParentID {
		return t, false
	}
	if !t.HasFolder(id) {
		return t, false
	}
	target, ok := t.folders.Get(newParentID)
	if !ok || target.Contains == model.ContainsLines {
		return t, false
	}
	if t.IsDescendant(newParentID, id) {
		return t, false
	}
	cur, ok := t.parents.Get(id)
	if !ok {
		return t, false
	}
	if cur == newParentID {
		return t, true
	}
	next := t.clone()
	next.detach(cur, id)
	next.attach(newParentID, id, model.ContainsFolders)
	return next, true
}

// DeleteFolder removes an empty non-root folder.
func (t *Tree) DeleteFolder(id model.ID) (*Tree, bool) {
	id = strings.TrimSpace(id)
	if model.IsRoot(id) {
		return t, false
	}
	f, ok := t.folders.Get(id)
	if !ok || len(f.Children) > 0 {
		return t, false
	}
	next := t.clone()
	if p, ok := t.parents.Get(id); ok {
		next.detach(p, id)
	}
	next.folders = next.folders.Delete(id)
	next.parents = next.parents.Delete(id)
	return next, true
}

// CreateLine stores line under parentID, which must be either or lines.
func (t *Tree) CreateLine(line model.Line, parentID model.ID) (*Tree, model.ID, bool) {
	parentID = strings.TrimSpace(parentID)
	parent, ok := t.folders.Get(parentID)
	if !ok || parent.Contains == model.ContainsFolders {
		return t, "", false
	}
	id := t.mintID()
	next := t.clone()
	next.lines = next.lines.Set(id, normalizeLine(line))
	next.attach(parentID, id, model.ContainsLines)
	return next, id, true
}

// UpdateLine replaces a line's content. Tree shape is unchanged.
func (t *Tree) UpdateLine(id model.ID, line model.Line) (*Tree, bool) {
	id = strings.TrimSpace(id)
	if !t.HasLine(id) {
		return t, false
	}
	next := t.clone()
	next.lines = next.lines.Set(id, normalizeLine(line))
	return next, true
}

// MoveLine reattaches a line under a folder that is either or lines.
func (t *Tree) MoveLine(id, newParentID model.ID) (*Tree, bool) {
	id = strings.TrimSpace(id)
	newParentID = strings.TrimSpace(newParentID)
	if !t.HasLine(id) {
		return t, false
	}
	target, ok := t.folders.Get(newParentID)
	if !ok || target.Contains == model.ContainsFolders {
		return t, false
	}
	cur, ok := t.parents.Get(id)
	if !ok {
		return t, false
	}
	if cur == newParentID {
		return t, true
	}
	next := t.clone()
	next.detach(cur, id)
	next.attach(newParentID, id, model.ContainsLines)
	return next, true
}

// DeleteLine removes a line from its folder and from the line map.
func (t *Tree) DeleteLine(id model.ID) (*Tree, bool) {
	id = strings.TrimSpace(id)
	if !t.HasLine(id) {
		return t, false
	}
	next := t.clone()
	if p, ok := t.parents.Get(id); ok {
		next.detach(p, id)
	}
	next.lines = next.lines.Delete(id)
	next.parents = next.parents.Delete(id)
	return next, true
}

// attach and detach mutate the receiver's map pointers; only call them on a fresh clone.
func (t *Tree) attach(parentID, childID model.ID, kind model.Contains) {
	f, _ := t.folders.Get(parentID)
	children := make([]model.ID, 0, len(f.Children)+1)
	children = append(children, f.Children...)
	f.Children = append(children, childID)
	if f.Contains == model.ContainsEither {
		f.Contains = kind
	}
	t.folders = t.folders.Set(parentID, f)
	t.parents = t.parents.Set(childID, parentID)
}

func (t *Tree) detach(parentID, childID model.ID) {
	f, ok := t.folders.Get(parentID)
	if !ok {
		return
	}
	f.Children = slices.DeleteFunc(slices.Clone(f.Children), func(x model.ID) bool { return x == childID })
	if len(f.Children) == 0 && !model.IsRoot(parentID) {
		f.Contains = model.ContainsEither
	}
	t.folders = t.folders.Set(parentID, f)
	t.parents = t.parents.Delete(childID)
}

// mintIDAttempts bounds calls to a custom generator before falling back to uuids.
const mintIDAttempts = 16

func (t *Tree) mintID() model.ID {
	gen := t.newID
	if gen == nil {
		gen = defaultNewID
	}
	for i := 0; ; i++ {
		if i == mintIDAttempts {
			gen = defaultNewID
		}
		id := gen()
		if id != "" && !t.HasFolder(id) && !t.HasLine(id) {
			return id
		}
	}
}

// normalizeLine copies notes and pads or trims them to plies+1 entries.
// Unparsable lines keep their notes (at least one entry).
func normalizeLine(l model.Line) model.Line {
	notes := append([]string{}, l.Notes...)
	if n, err := engine.CountPlies(l.StartingFEN, l.PGN); err == nil {
		for len(notes) < n+1 {
			notes = append(notes, "")
		}
		notes = notes[:n+1]
	} else if len(notes) == 0 {
		notes = []string{""}
	}
	l.Notes = notes
	return l
}
