package repertoire

import (
	"context"
	"strings"

	"repertoire-cli/internal/model"
)

// Change describes one successful mutation, for event logs and persistence.
type Change struct {
	Type     string
	EntityID model.ID
	Payload  map[string]any
}

// Persister receives every new tree value. The tree never persists itself.
type Persister interface {
	Persist(ctx context.Context, t *Tree, ch Change) error
}

type PersisterFunc func(ctx context.Context, t *Tree, ch Change) error

func (f PersisterFunc) Persist(ctx context.Context, t *Tree, ch Change) error { return f(ctx, t, ch) }

// Workspace installs successive tree values and hands each one to a Persister.
// A refused mutation or a failed persist leaves the current tree in place.
type Workspace struct {
	cur       *Tree
	persister Persister
}

func NewWorkspace(t *Tree, p Persister) *Workspace {
	if t == nil {
		t = New()
	}
	return &Workspace{cur: t, persister: p}
}

func (w *Workspace) Tree() *Tree { return w.cur }

func (w *Workspace) install(ctx context.Context, next *Tree, ch Change) error {
	if w.persister != nil {
		if err := w.persister.Persist(ctx, next, ch); err != nil {
			return err
		}
	}
	w.cur = next
	return nil
}

func (w *Workspace) CreateFolder(ctx context.Context, name string, parentID model.ID) (model.ID, error) {
	next, id, ok := w.cur.CreateFolder(name, parentID)
	if !ok {
		return "", w.folderTargetError("folder.create", parentID, model.ContainsLines)
	}
	return id, w.install(ctx, next, Change{
		Type:     "folder.create",
		EntityID: id,
		Payload:  map[string]any{"name": strings.TrimSpace(name), "parent": parentID},
	})
}

func (w *Workspace) RenameFolder(ctx context.Context, id model.ID, name string) error {
	next, ok := w.cur.RenameFolder(id, name)
	if !ok {
		return NotFoundError{Kind: "folder", ID: id}
	}
	return w.install(ctx, next, Change{Type: "folder.rename", EntityID: id, Payload: map[string]any{"name": strings.TrimSpace(name)}})
}

func (w *Workspace) MoveFolder(ctx context.Context, id, newParentID model.ID) error {
	next, ok := w.cur.MoveFolder(id, newParentID)
	if !ok {
		return w.explainMoveFolder(id, newParentID)
	}
	from, _ := w.cur.FindParentFolder(id)
	return w.install(ctx, next, Change{Type: "folder.move", EntityID: id, Payload: map[string]any{"from": from, "to": newParentID}})
}

func (w *Workspace) DeleteFolder(ctx context.Context, id model.ID) error {
	next, ok := w.cur.DeleteFolder(id)
	if !ok {
		switch {
		case model.IsRoot(id):
			return RefusedError{Op: "folder.delete", ID: id, Reason: "root folders cannot be deleted"}
		case !w.cur.HasFolder(id):
			return NotFoundError{Kind: "folder", ID: id}
		default:
			return RefusedError{Op: "folder.delete", ID: id, Reason: "folder is not empty"}
		}
	}
	from, _ := w.cur.FindParentFolder(id)
	return w.install(ctx, next, Change{Type: "folder.delete", EntityID: id, Payload: map[string]any{"from": from}})
}

func (w *Workspace) CreateLine(ctx context.Context, line model.Line, parentID model.ID) (model.ID, error) {
	next, id, ok := w.cur.CreateLine(line, parentID)
	if !ok {
		return "", w.folderTargetError("line.create", parentID, model.ContainsFolders)
	}
	return id, w.install(ctx, next, Change{Type: "line.create", EntityID: id, Payload: map[string]any{"parent": parentID, "line": line}})
}

func (w *Workspace) UpdateLine(ctx context.Context, id model.ID, line model.Line) error {
	next, ok := w.cur.UpdateLine(id, line)
	if !ok {
		return NotFoundError{Kind: "line", ID: id}
	}
	return w.install(ctx, next, Change{Type: "line.update", EntityID: id, Payload: map[string]any{"line": line}})
}

func (w *Workspace) MoveLine(ctx context.Context, id, newParentID model.ID) error {
	next, ok := w.cur.MoveLine(id, newParentID)
	if !ok {
		if !w.cur.HasLine(id) {
			return NotFoundError{Kind: "line", ID: id}
		}
		return w.folderTargetError("line.move", newParentID, model.ContainsFolders)
	}
	from, _ := w.cur.FindParentFolder(id)
	return w.install(ctx, next, Change{Type: "line.move", EntityID: id, Payload: map[string]any{"from": from, "to": newParentID}})
}

func (w *Workspace) DeleteLine(ctx context.Context, id model.ID) error {
	from, _ := w.cur.FindParentFolder(id)
	next, ok := w.cur.DeleteLine(id)
	if !ok {
		return NotFoundError{Kind: "line", ID: id}
	}
	return w.install(ctx, next, Change{Type: "line.delete", EntityID: id, Payload: map[string]any{"from": from}})
}

func (w *Workspace) folderTargetError(op string, targetID model.ID, incompatible model.Contains) error {
	f, ok := w.cur.Folder(targetID)
	if !ok {
		return NotFoundError{Kind: "folder", ID: targetID}
	}
	if f.Contains == incompatible {
		return RefusedError{Op: op, ID: targetID, Reason: "target folder already contains " + string(incompatible)}
	}
	return RefusedError{Op: op, ID: targetID}
}

func (w *Workspace) explainMoveFolder(id, newParentID model.ID) error {
	switch {
	case model.IsRoot(id):
		return RefusedError{Op: "folder.move", ID: id, Reason: "root folders cannot be moved"}
	case !w.cur.HasFolder(id):
		return NotFoundError{Kind: "folder", ID: id}
	case id == newParentID:
		return RefusedError{Op: "folder.move", ID: id, Reason: "a folder cannot contain itself"}
	case w.cur.IsDescendant(newParentID, id):
		return RefusedError{Op: "folder.move", ID: id, Reason: "target is inside the moved folder"}
	}
	return w.folderTargetError("folder.move", newParentID, model.ContainsLines)
}
