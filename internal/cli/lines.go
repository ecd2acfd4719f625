package cli

import (
	"fmt"
	"strings"

	"repertoire-cli/internal/editor"
	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

type lineView struct {
	ID          string       `json:"id" yaml:"id"`
	Parent      string       `json:"parent" yaml:"parent"`
	Path        []string     `json:"path" yaml:"path"`
	Player      model.Colour `json:"player" yaml:"player"`
	StartingFEN string       `json:"startingFEN" yaml:"startingFEN"`
	PGN         string       `json:"PGN" yaml:"PGN"`
	Notes       []string     `json:"notes" yaml:"notes"`
	Plies       int          `json:"plies" yaml:"plies"`
	FinalFEN    string       `json:"finalFEN,omitempty" yaml:"finalFEN,omitempty"`
}

type diffChunk struct {
	Op    string   `json:"op" yaml:"op"`
	Moves []string `json:"moves" yaml:"moves"`
}

func newLinesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lines",
		Aliases: []string{"line"},
		Short:   "Line commands",
	}
	cmd.AddCommand(newLinesCreateCmd(app))
	cmd.AddCommand(newLinesShowCmd(app))
	cmd.AddCommand(newLinesListCmd(app))
	cmd.AddCommand(newLinesUpdateCmd(app))
	cmd.AddCommand(newLinesMoveCmd(app))
	cmd.AddCommand(newLinesDeleteCmd(app))
	cmd.AddCommand(newLinesNoteCmd(app))
	cmd.AddCommand(newLinesExtendCmd(app))
	cmd.AddCommand(newLinesDiffCmd(app))
	return cmd
}

func newLinesCreateCmd(app *App) *cobra.Command {
	var parent, player, fen, pgn string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a line in a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(parent) == "" {
				return writeErr(cmd, errUsage("missing --parent"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			if _, err := requireFolder(t, parent); err != nil {
				return writeErr(cmd, err)
			}

			colour := sideOf(t, parent)
			if strings.TrimSpace(player) != "" {
				c, err := model.ParseColour(player)
				if err != nil {
					return writeErr(cmd, err)
				}
				colour = c
			}
			line, err := readableLine(model.Line{Player: colour, StartingFEN: strings.TrimSpace(fen), PGN: pgn})
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := ws.CreateLine(cmd.Context(), line, parent)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   describeLine(ws.Tree(), id),
				"_hints": []string{"repertoire train " + id},
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder id")
	cmd.Flags().StringVar(&player, "player", "", "Side trained, w|b (default: the parent's root)")
	cmd.Flags().StringVar(&fen, "fen", "", "Starting FEN (default: standard start)")
	cmd.Flags().StringVar(&pgn, "pgn", "", "Moves in SAN, e.g. \"1. e4 e5 2. Nf3\"")
	return cmd
}

func newLinesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <line-id>",
		Short: "Show a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := requireLine(ws.Tree(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeLine(ws.Tree(), strings.TrimSpace(args[0]))})
		},
	}
}

func newLinesListCmd(app *App) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lines (optionally below one folder)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			roots := []model.ID{model.RootWhite, model.RootBlack}
			if strings.TrimSpace(folder) != "" {
				if _, err := requireFolder(t, folder); err != nil {
					return writeErr(cmd, err)
				}
				roots = []model.ID{strings.TrimSpace(folder)}
			}
			out := []lineView{}
			for _, r := range roots {
				for _, id := range t.LinesUnder(r) {
					out = append(out, describeLine(t, id))
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"count": len(out)},
			})
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Only lines below this folder")
	return cmd
}

func newLinesUpdateCmd(app *App) *cobra.Command {
	var player, fen, pgn string

	cmd := &cobra.Command{
		Use:   "update <line-id>",
		Short: "Replace a line's moves, starting position or side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			line, err := requireLine(ws.Tree(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			changed := false
			if cmd.Flags().Changed("player") {
				c, err := model.ParseColour(player)
				if err != nil {
					return writeErr(cmd, err)
				}
				line.Player = c
				changed = true
			}
			if cmd.Flags().Changed("fen") {
				line.StartingFEN = strings.TrimSpace(fen)
				changed = true
			}
			if cmd.Flags().Changed("pgn") {
				line.PGN = pgn
				changed = true
			}
			if !changed {
				return writeErr(cmd, errUsage("nothing to update (pass --pgn, --fen or --player)"))
			}
			line, err = readableLine(line)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.UpdateLine(cmd.Context(), args[0], line); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeLine(ws.Tree(), strings.TrimSpace(args[0]))})
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "Side trained, w|b")
	cmd.Flags().StringVar(&fen, "fen", "", "Starting FEN (empty: standard start)")
	cmd.Flags().StringVar(&pgn, "pgn", "", "Moves in SAN")
	return cmd
}

func newLinesMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "move <line-id>",
		Short: "Move a line to another folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, errUsage("missing --to"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.MoveLine(cmd.Context(), args[0], to); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeLine(ws.Tree(), strings.TrimSpace(args[0]))})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target folder id")
	return cmd
}

func newLinesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <line-id>",
		Short: "Delete a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.DeleteLine(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[0], "deleted": true}})
		},
	}
}

func newLinesNoteCmd(app *App) *cobra.Command {
	var ply int
	var text string

	cmd := &cobra.Command{
		Use:   "note <line-id>",
		Short: "Set the note shown after a ply (0 = starting position)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			line, err := requireLine(ws.Tree(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			s := editor.New(line)
			if s.InitialisationError() {
				return writeErr(cmd, fmt.Errorf("line %s cannot be read; fix its moves first", args[0]))
			}
			if ply < 0 || ply > s.TotalPlies() {
				return writeErr(cmd, errUsage("--ply must be between 0 and %d", s.TotalPlies()))
			}
			s.ToNth(ply)
			s.SetNote(text)
			if err := ws.UpdateLine(cmd.Context(), args[0], s.Line()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeLine(ws.Tree(), strings.TrimSpace(args[0]))})
		},
	}
	cmd.Flags().IntVar(&ply, "ply", 0, "Ply the note belongs to")
	cmd.Flags().StringVar(&text, "text", "", "Note text (markdown; empty clears it)")
	return cmd
}

func newLinesExtendCmd(app *App) *cobra.Command {
	var moves string

	cmd := &cobra.Command{
		Use:   "extend <line-id>",
		Short: "Append coordinate moves to the end of a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseMoveList(moves)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(parsed) == 0 {
				return writeErr(cmd, errUsage("missing --moves"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			line, err := requireLine(ws.Tree(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			s := editor.New(line)
			if s.InitialisationError() {
				return writeErr(cmd, fmt.Errorf("line %s cannot be read; fix its moves first", args[0]))
			}
			s.ToEnd()
			for i, m := range parsed {
				if err := s.PlayMoveErr(m); err != nil {
					return writeErr(cmd, fmt.Errorf("move %d (%s): %w", i+1, m, err))
				}
			}
			if err := ws.UpdateLine(cmd.Context(), args[0], s.Line()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeLine(ws.Tree(), strings.TrimSpace(args[0]))})
		},
	}
	cmd.Flags().StringVar(&moves, "moves", "", "Comma or space separated moves, e.g. e2e4,e7e5")
	return cmd
}

func newLinesDiffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <line-a> <line-b>",
		Short: "Compare the moves of two lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var sessions [2]*editor.Session
			for i, id := range args {
				line, err := requireLine(ws.Tree(), id)
				if err != nil {
					return writeErr(cmd, err)
				}
				sessions[i] = editor.New(line)
				if sessions[i].InitialisationError() {
					return writeErr(cmd, fmt.Errorf("line %s cannot be read", id))
				}
			}
			a, b := sessions[0], sessions[1]
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"a":             a.MoveListString(),
					"b":             b.MoveListString(),
					"divergesAtPly": divergence(a, b),
					"diff":          diffMoves(a.SAN(), b.SAN()),
				},
			})
		},
	}
}

// readableLine checks that the engine can replay line and pads its notes.
func readableLine(line model.Line) (model.Line, error) {
	s := editor.New(line)
	if s.InitialisationError() {
		return model.Line{}, fmt.Errorf("cannot read moves %q from %s", line.PGN, startName(line.StartingFEN))
	}
	out := s.Line()
	out.Player = line.Player
	return out, nil
}

func startName(fen string) string {
	if strings.TrimSpace(fen) == "" {
		return "the standard start"
	}
	return "FEN " + fen
}

// sideOf returns the colour of the root a folder hangs from.
func sideOf(t *repertoire.Tree, folderID model.ID) model.Colour {
	if p := t.Path(folderID); len(p) > 0 && p[0] == model.RootBlack {
		return model.Black
	}
	return model.White
}

func describeLine(t *repertoire.Tree, id model.ID) lineView {
	l, _ := t.Line(id)
	parent, _ := t.FindParentFolder(id)
	v := lineView{
		ID:          id,
		Parent:      parent,
		Path:        pathNames(t, id),
		Player:      l.Player,
		StartingFEN: l.StartingFEN,
		PGN:         l.PGN,
		Notes:       append([]string{}, l.Notes...),
	}
	s := editor.New(l)
	if s.InitialisationError() {
		return v
	}
	s.ToEnd()
	v.Plies = s.TotalPlies()
	v.FinalFEN = s.FEN()
	return v
}

// parseMoveList splits "e2e4,e7e5" or "e2e4 e7e5" into moves.
func parseMoveList(raw string) ([]model.Move, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]model.Move, 0, len(fields))
	for _, f := range fields {
		m, err := model.ParseMove(f)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// divergence returns the first ply whose position differs, or -1 when one
// line is a prefix of the other.
func divergence(a, b *editor.Session) int {
	n := min(a.TotalPlies(), b.TotalPlies())
	for i := 0; i <= n; i++ {
		a.ToNth(i)
		b.ToNth(i)
		if a.FEN() != b.FEN() {
			return i
		}
	}
	return -1
}

// diffMoves diffs two SAN lists ply by ply.
func diffMoves(a, b []string) []diffChunk {
	dmp := diffmatchpatch.New()
	ca, cb, plies := dmp.DiffLinesToChars(joinPlies(a), joinPlies(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), plies)

	out := []diffChunk{}
	for _, d := range diffs {
		moves := strings.Fields(d.Text)
		if len(moves) == 0 {
			continue
		}
		op := "equal"
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "insert"
		case diffmatchpatch.DiffDelete:
			op = "delete"
		}
		out = append(out, diffChunk{Op: op, Moves: moves})
	}
	return out
}

func joinPlies(san []string) string {
	if len(san) == 0 {
		return ""
	}
	return strings.Join(san, "\n") + "\n"
}
