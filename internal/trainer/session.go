// Package trainer drills a stored line: the user plays their side's moves on
// a board while a hidden reference replays the recorded answers.
package trainer

import (
	"fmt"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"
)

type State int

const (
	AwaitingMove State = iota
	MoveAccepted
	MoveRejected
	LineComplete
)

func (s State) String() string {
	switch s {
	case AwaitingMove:
		return "awaiting-move"
	case MoveAccepted:
		return "move-accepted"
	case MoveRejected:
		return "move-rejected"
	case LineComplete:
		return "line-complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Verdict string

const (
	VerdictNone      Verdict = "none"
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictIllegal   Verdict = "illegal"
)

// InitError reports a line the engine cannot replay.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return "cannot start training: " + e.Err.Error() }
func (e *InitError) Unwrap() error { return e.Err }

// Session is not safe for concurrent use.
type Session struct {
	line      model.Line
	reference *engine.Game
	final     string
	startPly  int
	board     string

	state    State
	last     Verdict
	attempts int
	mistakes int
	opponent model.Move
}

func New(line model.Line) (*Session, error) {
	ref, err := engine.New(line.StartingFEN, line.PGN)
	if err != nil {
		return nil, &InitError{Err: err}
	}
	s := &Session{line: line, reference: ref, final: ref.FEN()}
	ref.ToNth(0)
	if ref.TotalPlies() > 0 && ref.Turn() != line.Player {
		s.startPly = 1
	}
	s.Restart()
	return s, nil
}

// Restart parks the reference where the user is first to move and clears counters.
func (s *Session) Restart() {
	s.reference.ToNth(s.startPly)
	s.opponent = model.Move{}
	if s.startPly > 0 {
		s.opponent, _ = s.reference.MoveAt(s.startPly)
	}
	s.board = s.reference.FEN()
	s.attempts, s.mistakes = 0, 0
	s.last = VerdictNone
	s.state = AwaitingMove
	if s.board == s.final {
		s.state = LineComplete
	}
}

// PlayMove checks candidate against the next recorded move by comparing the
// positions they lead to.
func (s *Session) PlayMove(candidate model.Move) Verdict {
	if s.state == LineComplete {
		return VerdictNone
	}
	scratch, err := engine.New(s.reference.FEN(), "")
	if err != nil {
		return VerdictIllegal
	}
	if err := scratch.ApplyMove(candidate); err != nil {
		return VerdictIllegal
	}
	s.attempts++

	s.reference.ToNext()
	if scratch.FEN() != s.reference.FEN() {
		s.reference.ToPrevious()
		s.mistakes++
		s.last = VerdictIncorrect
		s.state = MoveRejected
		return s.last
	}

	s.last = VerdictCorrect
	s.state = MoveAccepted
	s.opponent = model.Move{}
	if s.reference.Ply() < s.reference.TotalPlies() {
		s.reference.ToNext()
		s.opponent, _ = s.reference.MoveAt(s.reference.Ply())
	}
	s.board = s.reference.FEN()
	if s.board == s.final {
		s.state = LineComplete
	}
	return s.last
}

// Continue clears the last verdict once the caller has shown it.
func (s *Session) Continue() {
	if s.state == MoveAccepted || s.state == MoveRejected {
		s.state = AwaitingMove
	}
}

// Hint returns the piece letter (K Q R B N P) of the expected move.
func (s *Session) Hint() string {
	if s.state == LineComplete {
		return ""
	}
	p, _ := s.reference.NextMovePiece()
	return p
}

// Board returns the FEN the user sees.
func (s *Session) Board() string { return s.board }

// Expected returns the recorded move the user has to find.
func (s *Session) Expected() (model.Move, bool) {
	if s.state == LineComplete {
		return model.Move{}, false
	}
	return s.reference.MoveAt(s.reference.Ply() + 1)
}

// LastOpponentMove returns the reply auto-played after the last correct move.
func (s *Session) LastOpponentMove() (model.Move, bool) {
	return s.opponent, s.opponent.From != ""
}

// Note returns the note attached to the position on the board.
func (s *Session) Note() string {
	if p := s.reference.Ply(); p < len(s.line.Notes) {
		return s.line.Notes[p]
	}
	return ""
}

func (s *Session) State() State         { return s.state }
func (s *Session) LastVerdict() Verdict { return s.last }
func (s *Session) Attempts() int        { return s.attempts }
func (s *Session) Mistakes() int        { return s.mistakes }
func (s *Session) Ply() int             { return s.reference.Ply() }
func (s *Session) TotalPlies() int      { return s.reference.TotalPlies() }
func (s *Session) Player() model.Colour { return s.line.Player }
