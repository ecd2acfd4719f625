package editor

import (
	"errors"
	"testing"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"

	"github.com/stretchr/testify/require"
)

func ruyLopez() model.Line {
	return model.Line{
		Player: model.White,
		PGN:    "1. e4 e5 2. Nf3 Nc6 3. Bb5",
		Notes:  []string{"start", "", "", "", "", "the Spanish"},
	}
}

func TestNew_StartsAtFirstPlyWithNotes(t *testing.T) {
	s := New(ruyLopez())
	require.False(t, s.InitialisationError())
	require.Equal(t, 0, s.Ply())
	require.Equal(t, 5, s.TotalPlies())
	require.Equal(t, "start", s.Note())
	s.ToEnd()
	require.Equal(t, "the Spanish", s.Note())
}

func TestCursorClamps(t *testing.T) {
	s := New(ruyLopez())
	s.ToPrevious()
	require.Equal(t, 0, s.Ply())
	s.ToNth(99)
	require.Equal(t, 5, s.Ply())
	s.ToNext()
	require.Equal(t, 5, s.Ply())
	s.ToNth(-3)
	require.Equal(t, 0, s.Ply())
	s.ToNth(2)
	require.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w", s.Position())
	s.ToStart()
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w", s.Position())
}

func TestLoadNewPosition_FailureKeepsPriorState(t *testing.T) {
	s := New(ruyLopez())
	s.ToNth(3)
	before := s.Line()

	require.False(t, s.LoadNewPosition("", "1. e4 e4"))
	require.True(t, s.InitialisationError())
	require.Equal(t, before, s.Line())
	require.Equal(t, 3, s.Ply())

	require.True(t, s.LoadNewPosition("", "1. d4"))
	require.False(t, s.InitialisationError())
	require.Equal(t, "1. d4", s.MoveListString())
	require.Equal(t, []string{"", ""}, s.Line().Notes)
}

func TestNew_UnreadableLine(t *testing.T) {
	s := New(model.Line{Player: model.Black, StartingFEN: "not a fen"})
	require.True(t, s.InitialisationError())
	require.Equal(t, 0, s.TotalPlies())
}

func TestPlayMove_AppendsAtEnd(t *testing.T) {
	s := New(ruyLopez())
	s.ToEnd()
	require.True(t, s.PlayMove(model.Move{From: "a7", To: "a6"}))
	require.Equal(t, 6, s.Ply())
	require.Equal(t, "", s.Note())
	require.Equal(t, "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6", s.MoveListString())
	require.Len(t, s.Line().Notes, 7)
}

func TestPlayMove_IllegalIgnored(t *testing.T) {
	s := New(ruyLopez())
	s.ToEnd()
	before := s.Line()
	require.False(t, s.PlayMove(model.Move{From: "e5", To: "e4"}))
	require.True(t, errors.Is(s.PlayMoveErr(model.Move{From: "a7", To: "a4"}), engine.ErrIllegalMove))
	require.Equal(t, before, s.Line())
}

func TestPlayMove_MidLineRefused(t *testing.T) {
	s := New(ruyLopez())
	s.ToNth(2)
	require.ErrorIs(t, s.PlayMoveErr(model.Move{From: "d2", To: "d4"}), ErrOverwriteUndecided)
	require.Equal(t, 5, s.TotalPlies())
	require.Equal(t, 2, s.Ply())
}

func TestSetNote(t *testing.T) {
	s := New(ruyLopez())
	s.ToNth(4)
	s.SetNote("main line")
	require.Equal(t, "main line", s.Line().Notes[4])
	s.ToNth(3)
	require.Equal(t, "", s.Note())
}

func TestLegalMovesPassthrough(t *testing.T) {
	s := New(model.Line{Player: model.White})
	require.ElementsMatch(t, []string{"f3", "h3"}, s.LegalMoves("g1"))
}
