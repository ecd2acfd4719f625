package publish

import (
	"bytes"
	"fmt"
	"strings"

	"repertoire-cli/internal/editor"
	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
)

type RenderOptions struct {
	// SkipNotes leaves out the per-ply notes section.
	SkipNotes bool
}

// RenderLineMarkdown renders one line as a standalone markdown page.
func RenderLineMarkdown(t *repertoire.Tree, lineID model.ID, opt RenderOptions) (string, error) {
	if t == nil {
		return "", fmt.Errorf("missing repertoire")
	}
	lineID = strings.TrimSpace(lineID)
	line, ok := t.Line(lineID)
	if !ok {
		return "", repertoire.NotFoundError{Kind: "line", ID: lineID}
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + folderTitle(t, lineID))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + lineID)
	writeLn("- Side: " + sideName(line.Player))
	if strings.TrimSpace(line.StartingFEN) == "" {
		writeLn("- Start: standard position")
	} else {
		writeLn("- Start: `" + line.StartingFEN + "`")
	}

	s := editor.New(line)
	if s.InitialisationError() {
		writeLn("- Moves: unreadable")
		writeLn("")
		writeLn("```")
		writeLn(line.PGN)
		writeLn("```")
		return buf.String(), nil
	}
	writeLn(fmt.Sprintf("- Plies: %d", s.TotalPlies()))
	writeLn("")

	writeLn("## Moves")
	writeLn("")
	if mv := s.MoveListString(); mv != "" {
		writeLn(mv)
	} else {
		writeLn("_No moves yet._")
	}

	if opt.SkipNotes {
		return buf.String(), nil
	}
	labels := plyLabels(s)
	var notes []string
	for ply := 0; ply <= s.TotalPlies(); ply++ {
		s.ToNth(ply)
		note := strings.TrimSpace(s.Note())
		if note == "" {
			continue
		}
		notes = append(notes, "### "+labels[ply], "", note, "")
	}
	if len(notes) > 0 {
		writeLn("")
		writeLn("## Notes")
		writeLn("")
		for _, n := range notes {
			writeLn(n)
		}
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// RenderFolderIndexMarkdown lists every line below folderID, grouped by the
// folder that holds it. Links point at lines/<id>.md.
func RenderFolderIndexMarkdown(t *repertoire.Tree, folderID model.ID) (string, error) {
	if t == nil {
		return "", fmt.Errorf("missing repertoire")
	}
	folderID = strings.TrimSpace(folderID)
	if !t.HasFolder(folderID) {
		return "", repertoire.NotFoundError{Kind: "folder", ID: folderID}
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}
	writeLn("# " + folderTitle(t, folderID))

	count := 0
	t.Walk(folderID, func(id model.ID, _ int, isLine bool) bool {
		if isLine {
			return true
		}
		f, _ := t.Folder(id)
		if f.Contains != model.ContainsLines {
			return true
		}
		writeLn("")
		writeLn("## " + folderTitle(t, id))
		writeLn("")
		for _, lid := range f.Children {
			l, _ := t.Line(lid)
			label := strings.TrimSpace(l.PGN)
			if label == "" {
				label = "(empty line)"
			}
			writeLn(fmt.Sprintf("- [%s](lines/%s.md)", label, lid))
			count++
		}
		return true
	})
	if count == 0 {
		writeLn("")
		writeLn("_No lines yet._")
	}
	return buf.String(), nil
}

// plyLabels names each ply by move number and SAN, e.g. "2... Nc6".
// Index 0 is the starting position.
func plyLabels(s *editor.Session) []string {
	san := s.SAN()
	out := make([]string, len(san)+1)
	out[0] = "Start"
	for i, m := range san {
		s.ToNth(i)
		fields := strings.Fields(s.FEN())
		num, side := "?", "w"
		if len(fields) >= 6 {
			side, num = fields[1], fields[5]
		}
		if side == "w" {
			out[i+1] = num + ". " + m
		} else {
			out[i+1] = num + "... " + m
		}
	}
	return out
}

func folderTitle(t *repertoire.Tree, id model.ID) string {
	var names []string
	for _, p := range t.Path(id) {
		if f, ok := t.Folder(p); ok {
			names = append(names, f.Name)
		}
	}
	return strings.Join(names, " / ")
}

func sideName(c model.Colour) string {
	if c == model.Black {
		return "Black"
	}
	return "White"
}
