// Package editor holds a ply cursor over one line's moves and notes.
package editor

import (
	"errors"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"
)

// ErrOverwriteUndecided is returned when a move is played before the end of the line.
var ErrOverwriteUndecided = errors.New("playing a move before the end of the line is not supported")

// Session is an editing cursor over a line. It is not safe for concurrent use.
// Edits stay in the session until the caller saves Line() through the tree.
type Session struct {
	player  model.Colour
	fen     string
	game    *engine.Game
	notes   []string
	initErr bool
}

// New opens a session on line. A line the engine cannot read leaves the
// session on the standard start with InitialisationError reporting true.
func New(line model.Line) *Session {
	start, _ := engine.New("", "")
	s := &Session{player: line.Player, game: start, notes: []string{""}}
	if s.LoadNewPosition(line.StartingFEN, line.PGN) {
		s.notes = fitNotes(line.Notes, s.game.TotalPlies())
	}
	return s
}

// LoadNewPosition replaces the moves with movesText played from fen. Notes are
// reset. On failure nothing changes except the initialisation flag.
func (s *Session) LoadNewPosition(fen, movesText string) bool {
	g, err := engine.New(fen, movesText)
	if err != nil {
		s.initErr = true
		return false
	}
	s.initErr = false
	s.fen = fen
	s.game = g
	s.notes = fitNotes(nil, g.TotalPlies())
	s.game.ToNth(0)
	return true
}

func (s *Session) InitialisationError() bool { return s.initErr }

func (s *Session) Ply() int        { return s.game.Ply() }
func (s *Session) TotalPlies() int { return s.game.TotalPlies() }

func (s *Session) ToNth(n int) { s.game.ToNth(n) }
func (s *Session) ToNext()     { s.game.ToNext() }
func (s *Session) ToPrevious() { s.game.ToPrevious() }
func (s *Session) ToStart()    { s.game.ToNth(0) }
func (s *Session) ToEnd()      { s.game.ToNth(s.game.TotalPlies()) }

// PlayMove appends m at the end of the line. Illegal moves and moves played
// before the end are ignored.
func (s *Session) PlayMove(m model.Move) bool {
	return s.PlayMoveErr(m) == nil
}

func (s *Session) PlayMoveErr(m model.Move) error {
	if s.game.Ply() != s.game.TotalPlies() {
		return ErrOverwriteUndecided
	}
	if err := s.game.ApplyMove(m); err != nil {
		return err
	}
	s.notes = append(s.notes, "")
	return nil
}

// SetNote replaces the note attached to the current ply.
func (s *Session) SetNote(text string) { s.notes[s.game.Ply()] = text }

func (s *Session) Note() string { return s.notes[s.game.Ply()] }

// Position returns the placement and side-to-move fields at the cursor.
func (s *Session) Position() string { return engine.BoardFEN(s.game.FEN()) }

// FEN returns the full FEN at the cursor.
func (s *Session) FEN() string { return s.game.FEN() }

func (s *Session) MoveListString() string {
	return s.game.PGN(engine.PGNOptions{MovesOnly: true})
}

// SAN lists every move of the line in standard algebraic notation.
func (s *Session) SAN() []string { return s.game.SAN() }

func (s *Session) LegalMoves(square string) []string { return s.game.LegalMoves(square) }

// Line returns the edited content, ready for UpdateLine.
func (s *Session) Line() model.Line {
	notes := make([]string, len(s.notes))
	copy(notes, s.notes)
	return model.Line{
		Player:      s.player,
		StartingFEN: s.fen,
		PGN:         s.MoveListString(),
		Notes:       notes,
	}
}

func fitNotes(notes []string, plies int) []string {
	out := make([]string, plies+1)
	copy(out, notes)
	return out
}
