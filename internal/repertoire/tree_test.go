package repertoire

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"repertoire-cli/internal/model"
)

func seqIDs() func() model.ID {
	n := 0
	return func() model.ID {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestTree() *Tree { return New().WithIDGenerator(seqIDs()) }

func sampleLine() model.Line {
	return model.Line{Player: model.White, PGN: "1. e4 e5 2. Nf3"}
}

func mustCheck(t *testing.T, tr *Tree) {
	t.Helper()
	if problems := tr.Check(); len(problems) > 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}

func TestNew_HasPinnedRoots(t *testing.T) {
	tr := New()
	for _, id := range []model.ID{model.RootWhite, model.RootBlack} {
		f, ok := tr.Folder(id)
		if !ok {
			t.Fatalf("expected root %s", id)
		}
		if f.Contains != model.ContainsFolders || len(f.Children) != 0 {
			t.Fatalf("unexpected root %s: %+v", id, f)
		}
	}
	mustCheck(t, tr)
}

func TestCreateFolder_PromotesEitherParent(t *testing.T) {
	tr := newTestTree()
	tr, openings, ok := tr.CreateFolder("Openings", model.RootWhite)
	if !ok {
		t.Fatalf("create under root refused")
	}
	f, _ := tr.Folder(openings)
	if f.Contains != model.ContainsEither {
		t.Fatalf("new folder should be either; got %s", f.Contains)
	}
	tr, _, ok = tr.CreateFolder("Italian", openings)
	if !ok {
		t.Fatalf("create under either refused")
	}
	f, _ = tr.Folder(openings)
	if f.Contains != model.ContainsFolders || len(f.Children) != 1 {
		t.Fatalf("expected promoted folder; got %+v", f)
	}
	mustCheck(t, tr)
}

func TestCreateFolder_RefusedUnderLinesFolder(t *testing.T) {
	tr := newTestTree()
	tr, f, _ := tr.CreateFolder("Lines", model.RootWhite)
	tr, _, ok := tr.CreateLine(sampleLine(), f)
	if !ok {
		t.Fatalf("create line refused")
	}
	next, id, ok := tr.CreateFolder("Nope", f)
	if ok || id != "" || next != tr {
		t.Fatalf("expected refusal; got ok=%v id=%q", ok, id)
	}
	if _, _, ok := tr.CreateFolder("x", "missing"); ok {
		t.Fatalf("expected refusal for missing parent")
	}
}

func TestCreateLine_RefusedUnderRootAndFoldersFolder(t *testing.T) {
	tr := newTestTree()
	if _, _, ok := tr.CreateLine(sampleLine(), model.RootWhite); ok {
		t.Fatalf("roots must never hold lines")
	}
	tr, parent, _ := tr.CreateFolder("P", model.RootBlack)
	tr, _, _ = tr.CreateFolder("C", parent)
	if _, _, ok := tr.CreateLine(sampleLine(), parent); ok {
		t.Fatalf("folders-typed folder must refuse lines")
	}
}

func TestCreateLine_NormalizesNotes(t *testing.T) {
	tr := newTestTree()
	tr, f, _ := tr.CreateFolder("F", model.RootWhite)
	tr, id, ok := tr.CreateLine(model.Line{Player: model.White, PGN: "1. d4 d5", Notes: []string{"start"}}, f)
	if !ok {
		t.Fatalf("create refused")
	}
	l, _ := tr.Line(id)
	if want := []string{"start", "", ""}; !reflect.DeepEqual(l.Notes, want) {
		t.Fatalf("notes = %#v, want %#v", l.Notes, want)
	}
	folder, _ := tr.Folder(f)
	if folder.Contains != model.ContainsLines {
		t.Fatalf("expected lines folder; got %s", folder.Contains)
	}
}

func TestRootProtection(t *testing.T) {
	tr := newTestTree()
	tr, f, _ := tr.CreateFolder("F", model.RootWhite)
	for _, root := range []model.ID{model.RootWhite, model.RootBlack} {
		if _, ok := tr.DeleteFolder(root); ok {
			t.Fatalf("deleted root %s", root)
		}
		for _, target := range []model.ID{model.RootWhite, model.RootBlack, f, "missing"} {
			if next, ok := tr.MoveFolder(root, target); ok || next != tr {
				t.Fatalf("moved root %s to %s", root, target)
			}
		}
	}
	tr, ok := tr.RenameFolder(model.RootWhite, "Mine")
	if !ok {
		t.Fatalf("roots may be renamed")
	}
	if f, _ := tr.Folder(model.RootWhite); f.Name != "Mine" {
		t.Fatalf("rename not applied: %q", f.Name)
	}
}

func TestDeleteFolder_NonEmptyRefused(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootWhite)
	tr, b, _ := tr.CreateFolder("B", a)
	before := tr.Snapshot()
	next, ok := tr.DeleteFolder(a)
	if ok {
		t.Fatalf("deleted non-empty folder")
	}
	if !reflect.DeepEqual(before, next.Snapshot()) {
		t.Fatalf("tree changed on refusal")
	}

	tr, ok = tr.DeleteFolder(b)
	if !ok {
		t.Fatalf("delete empty folder refused")
	}
	fa, _ := tr.Folder(a)
	if fa.Contains != model.ContainsEither || len(fa.Children) != 0 {
		t.Fatalf("parent should revert to either; got %+v", fa)
	}
	tr, ok = tr.DeleteFolder(a)
	if !ok {
		t.Fatalf("delete now-empty folder refused")
	}
	root, _ := tr.Folder(model.RootWhite)
	if root.Contains != model.ContainsFolders || len(root.Children) != 0 {
		t.Fatalf("root should stay folders when emptied; got %+v", root)
	}
	mustCheck(t, tr)
}

func TestMoveFolder_RefusesCyclesAndSelf(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootWhite)
	tr, b, _ := tr.CreateFolder("B", a)
	tr, c, _ := tr.CreateFolder("C", b)

	if _, ok := tr.MoveFolder(a, a); ok {
		t.Fatalf("moved folder into itself")
	}
	if _, ok := tr.MoveFolder(a, c); ok {
		t.Fatalf("moved folder into its grandchild")
	}
	if _, ok := tr.MoveFolder(a, b); ok {
		t.Fatalf("moved folder into its child")
	}

	tr, ok := tr.MoveFolder(c, model.RootBlack)
	if !ok {
		t.Fatalf("legal move refused")
	}
	if p, _ := tr.FindParentFolder(c); p != model.RootBlack {
		t.Fatalf("parent = %q", p)
	}
	fb, _ := tr.Folder(b)
	if fb.Contains != model.ContainsEither {
		t.Fatalf("old parent should revert to either; got %s", fb.Contains)
	}
	mustCheck(t, tr)
}

func TestMoveFolder_RefusesLinesTarget(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootWhite)
	tr, linesF, _ := tr.CreateFolder("L", model.RootWhite)
	tr, _, _ = tr.CreateLine(sampleLine(), linesF)
	if _, ok := tr.MoveFolder(a, linesF); ok {
		t.Fatalf("moved folder into lines folder")
	}
}

func TestMoveFolder_SameParentIsNoop(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootWhite)
	tr, _, _ = tr.CreateFolder("B", model.RootWhite)
	next, ok := tr.MoveFolder(a, model.RootWhite)
	if !ok {
		t.Fatalf("same-parent move refused")
	}
	if !Equal(tr, next) {
		t.Fatalf("same-parent move should keep order")
	}
}

func TestMoveLine(t *testing.T) {
	tr := newTestTree()
	tr, src, _ := tr.CreateFolder("Src", model.RootWhite)
	tr, dst, _ := tr.CreateFolder("Dst", model.RootWhite)
	tr, holder, _ := tr.CreateFolder("Holder", model.RootWhite)
	tr, _, _ = tr.CreateFolder("Sub", holder)
	tr, l, _ := tr.CreateLine(sampleLine(), src)

	if _, ok := tr.MoveLine(l, holder); ok {
		t.Fatalf("moved line into folders folder")
	}
	if _, ok := tr.MoveLine(l, model.RootWhite); ok {
		t.Fatalf("moved line into root")
	}
	tr, ok := tr.MoveLine(l, dst)
	if !ok {
		t.Fatalf("legal line move refused")
	}
	fs, _ := tr.Folder(src)
	fd, _ := tr.Folder(dst)
	if fs.Contains != model.ContainsEither || fd.Contains != model.ContainsLines {
		t.Fatalf("unexpected tags src=%s dst=%s", fs.Contains, fd.Contains)
	}
	if p, _ := tr.FindParentFolder(l); p != dst {
		t.Fatalf("parent = %q", p)
	}
	mustCheck(t, tr)
}

func TestDeleteLine(t *testing.T) {
	tr := newTestTree()
	tr, f, _ := tr.CreateFolder("F", model.RootWhite)
	tr, l, _ := tr.CreateLine(sampleLine(), f)
	tr, ok := tr.DeleteLine(l)
	if !ok {
		t.Fatalf("delete refused")
	}
	if tr.HasLine(l) {
		t.Fatalf("line still present")
	}
	if fo, _ := tr.Folder(f); fo.Contains != model.ContainsEither {
		t.Fatalf("folder should revert to either; got %s", fo.Contains)
	}
	if _, ok := tr.DeleteLine(l); ok {
		t.Fatalf("deleting a missing line should be refused")
	}
	mustCheck(t, tr)
}

func TestCreateThenUpdateIdentical_IsDeepEqual(t *testing.T) {
	tr := newTestTree()
	tr, f, _ := tr.CreateFolder("F", model.RootWhite)
	data := model.Line{Player: model.White, PGN: "1. e4 e5", Notes: []string{"a", "b", "c"}}
	afterCreate, id, _ := tr.CreateLine(data, f)
	afterUpdate, ok := afterCreate.UpdateLine(id, data)
	if !ok {
		t.Fatalf("update refused")
	}
	if !reflect.DeepEqual(afterCreate.Snapshot(), afterUpdate.Snapshot()) {
		t.Fatalf("round-trip changed the repertoire")
	}
	if !Equal(afterCreate, afterUpdate) {
		t.Fatalf("Equal disagrees with snapshot comparison")
	}
}

func TestSnapshotsAreImmutable(t *testing.T) {
	tr := newTestTree()
	before, f, _ := tr.CreateFolder("F", model.RootWhite)
	snap := before.Snapshot()
	after, _, _ := before.CreateLine(sampleLine(), f)
	after, _ = after.RenameFolder(f, "Renamed")

	if !reflect.DeepEqual(snap, before.Snapshot()) {
		t.Fatalf("mutation leaked into the previous tree")
	}
	if fo, _ := before.Folder(f); fo.Name != "F" || fo.Contains != model.ContainsEither {
		t.Fatalf("previous tree changed: %+v", fo)
	}
	if after.LineCount() != 1 {
		t.Fatalf("expected one line after create")
	}

	// Callers mutating returned slices must not affect the tree.
	children := before.Children(model.RootWhite)
	children[0] = "tampered"
	if before.Children(model.RootWhite)[0] != f {
		t.Fatalf("Children returned shared storage")
	}
}

func TestPathAndLinesUnder(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootBlack)
	tr, b, _ := tr.CreateFolder("B", a)
	tr, c, _ := tr.CreateFolder("C", a)
	tr, l1, _ := tr.CreateLine(sampleLine(), b)
	tr, l2, _ := tr.CreateLine(sampleLine(), c)
	tr, l3, _ := tr.CreateLine(sampleLine(), b)

	if got, want := tr.Path(l2), []model.ID{model.RootBlack, a, c, l2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Path = %v, want %v", got, want)
	}
	if got, want := tr.LinesUnder(a), []model.ID{l1, l3, l2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("LinesUnder = %v, want %v", got, want)
	}
	if got := tr.LinesUnder(l1); !reflect.DeepEqual(got, []model.ID{l1}) {
		t.Fatalf("LinesUnder(line) = %v", got)
	}
	if tr.Path("missing") != nil {
		t.Fatalf("expected nil path for missing id")
	}
}

func TestFromSnapshot_RoundTrip(t *testing.T) {
	tr := newTestTree()
	tr, a, _ := tr.CreateFolder("A", model.RootWhite)
	tr, _, _ = tr.CreateLine(sampleLine(), a)

	back, err := FromSnapshot(tr.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !Equal(tr, back) {
		t.Fatalf("hydrated tree differs")
	}
	if p, _ := back.FindParentFolder(a); p != model.RootWhite {
		t.Fatalf("parent index not rebuilt: %q", p)
	}
}

func TestFromSnapshot_EmptyYieldsRoots(t *testing.T) {
	tr, err := FromSnapshot(model.Repertoire{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !tr.HasFolder(model.RootWhite) || !tr.HasFolder(model.RootBlack) {
		t.Fatalf("roots missing")
	}
}

func TestFromSnapshot_RejectsBrokenTrees(t *testing.T) {
	cases := map[string]model.Repertoire{
		"shared child": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{"a", "c"}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
				"a": {Name: "A", Contains: model.ContainsFolders, Children: []model.ID{"c"}},
				"c": {Name: "C", Contains: model.ContainsEither, Children: []model.ID{}},
			},
		},
		"cycle": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
				"x": {Name: "X", Contains: model.ContainsFolders, Children: []model.ID{"y"}},
				"y": {Name: "Y", Contains: model.ContainsFolders, Children: []model.ID{"x"}},
			},
		},
		"type mismatch": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{"l"}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
			},
			Lines: map[model.ID]model.Line{
				"l": {Player: model.White, PGN: "1. e4", Notes: []string{"", ""}},
			},
		},
		"notes length": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{"f"}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
				"f": {Name: "F", Contains: model.ContainsLines, Children: []model.ID{"l"}},
			},
			Lines: map[model.ID]model.Line{
				"l": {Player: model.White, PGN: "1. e4 e5", Notes: []string{""}},
			},
		},
		"unreadable moves": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{"f"}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
				"f": {Name: "F", Contains: model.ContainsLines, Children: []model.ID{"l"}},
			},
			Lines: map[model.ID]model.Line{
				"l": {Player: model.White, PGN: "1. e5", Notes: []string{"", ""}},
			},
		},
		"either with children": {
			Folders: map[model.ID]model.Folder{
				"w": {Name: "White", Contains: model.ContainsFolders, Children: []model.ID{"f"}},
				"b": {Name: "Black", Contains: model.ContainsFolders, Children: []model.ID{}},
				"f": {Name: "F", Contains: model.ContainsEither, Children: []model.ID{"g"}},
				"g": {Name: "G", Contains: model.ContainsEither, Children: []model.ID{}},
			},
		},
	}
	for name, rep := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromSnapshot(rep); err == nil {
				t.Fatalf("expected invariant error")
			} else if _, ok := err.(InvariantError); !ok {
				t.Fatalf("expected InvariantError; got %T", err)
			}
		})
	}
}

// Random operation sequences never break the invariants, and refusals never change the tree.
func TestRandomOperations_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := newTestTree()

	pick := func(ids []model.ID) model.ID {
		if len(ids) == 0 {
			return "missing"
		}
		return ids[rng.Intn(len(ids))]
	}

	for step := 0; step < 400; step++ {
		snap := tr.Snapshot()
		folders := make([]model.ID, 0, len(snap.Folders))
		for id := range snap.Folders {
			folders = append(folders, id)
		}
		lines := make([]model.ID, 0, len(snap.Lines))
		for id := range snap.Lines {
			lines = append(lines, id)
		}
		sort.Strings(folders)
		sort.Strings(lines)

		var next *Tree
		var ok bool
		op := rng.Intn(6)
		switch op {
		case 0:
			next, _, ok = tr.CreateFolder("f", pick(folders))
		case 1:
			next, _, ok = tr.CreateLine(sampleLine(), pick(folders))
		case 2:
			next, ok = tr.MoveFolder(pick(folders), pick(folders))
		case 3:
			next, ok = tr.MoveLine(pick(lines), pick(folders))
		case 4:
			next, ok = tr.DeleteFolder(pick(folders))
		case 5:
			next, ok = tr.DeleteLine(pick(lines))
		}
		if !ok && !reflect.DeepEqual(snap, next.Snapshot()) {
			t.Fatalf("step %d op %d: refused op changed the tree", step, op)
		}
		if problems := next.Check(); len(problems) > 0 {
			t.Fatalf("step %d op %d: %v", step, op, problems)
		}
		if !reflect.DeepEqual(snap, tr.Snapshot()) {
			t.Fatalf("step %d op %d: previous snapshot mutated", step, op)
		}
		tr = next
	}
}

func TestMintID_FallsBackWhenGeneratorRepeats(t *testing.T) {
	tr := New().WithIDGenerator(func() model.ID { return "dup" })
	tr, first, ok := tr.CreateFolder("A", model.RootWhite)
	if !ok || first != "dup" {
		t.Fatalf("expected generator id, got %q", first)
	}
	tr, second, ok := tr.CreateFolder("B", model.RootWhite)
	if !ok || second == "" || second == first {
		t.Fatalf("expected a fresh fallback id, got %q", second)
	}
	if !tr.HasFolder(first) || !tr.HasFolder(second) {
		t.Fatalf("both folders should exist")
	}
}
