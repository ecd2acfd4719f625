package trainer

import (
	"errors"
	"strings"
	"testing"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/stretchr/testify/require"
)

func mv(t *testing.T, s string) model.Move {
	t.Helper()
	m, err := model.ParseMove(s)
	require.NoError(t, err)
	return m
}

func placement(fen string) string { return strings.Fields(fen)[0] }

func TestPlayMove_CorrectAdvancesBoard(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. e4 e5"})
	require.NoError(t, err)
	require.Equal(t, AwaitingMove, s.State())

	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "e2e4")))
	// e4 played and e5 auto-played.
	require.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR", placement(s.Board()))
	require.Equal(t, LineComplete, s.State())
	opp, ok := s.LastOpponentMove()
	require.True(t, ok)
	require.Equal(t, "e7e5", opp.String())
}

func TestPlayMove_IncorrectLeavesBoard(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. e4 e5"})
	require.NoError(t, err)
	before := s.Board()

	require.Equal(t, VerdictIncorrect, s.PlayMove(mv(t, "e2e3")))
	require.Equal(t, before, s.Board())
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", placement(s.Board()))
	require.Equal(t, MoveRejected, s.State())
	require.Equal(t, 0, s.Ply())
	require.Equal(t, 1, s.Mistakes())

	s.Continue()
	require.Equal(t, AwaitingMove, s.State())
	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "e2e4")))
	require.Equal(t, 2, s.Attempts())
}

func TestPlayMove_CompletionIsTerminal(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. d4 d5 2. c4"})
	require.NoError(t, err)

	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "d2d4")))
	require.Equal(t, MoveAccepted, s.State())
	require.Equal(t, 2, s.Ply())
	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "c2c4")))
	require.Equal(t, LineComplete, s.State())

	board := s.Board()
	require.Equal(t, VerdictNone, s.PlayMove(mv(t, "g1f3")))
	require.Equal(t, VerdictNone, s.PlayMove(mv(t, "e7e5")))
	require.Equal(t, board, s.Board())
	require.Equal(t, LineComplete, s.State())
	require.Equal(t, "", s.Hint())
	require.Equal(t, 2, s.Attempts())
}

func TestPlayMove_PromotionNeedsPiece(t *testing.T) {
	line := model.Line{Player: model.White, StartingFEN: "8/P7/8/8/8/8/8/k6K w - - 0 1", PGN: "1. a8=Q"}
	s, err := New(line)
	require.NoError(t, err)

	require.Equal(t, VerdictIllegal, s.PlayMove(model.Move{From: "a7", To: "a8"}))
	require.Equal(t, VerdictIncorrect, s.PlayMove(model.Move{From: "a7", To: "a8", PromoteTo: "N"}))
	require.Equal(t, MoveRejected, s.State())
	require.Equal(t, VerdictCorrect, s.PlayMove(model.Move{From: "a7", To: "a8", PromoteTo: "Q"}))
	require.Equal(t, LineComplete, s.State())
}

func TestPlayMove_IllegalChangesNothing(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. e4 e5 2. Nf3"})
	require.NoError(t, err)
	before := s.Board()

	require.Equal(t, VerdictIllegal, s.PlayMove(mv(t, "e2e5")))
	require.Equal(t, before, s.Board())
	require.Equal(t, AwaitingMove, s.State())
	require.Equal(t, VerdictNone, s.LastVerdict())
	require.Equal(t, 0, s.Attempts())
}

func TestNew_BlackParksAfterFirstMove(t *testing.T) {
	s, err := New(model.Line{Player: model.Black, PGN: "1. e4 c5 2. Nf3 Nc6"})
	require.NoError(t, err)
	require.Equal(t, 1, s.Ply())
	opp, ok := s.LastOpponentMove()
	require.True(t, ok)
	require.Equal(t, "e2e4", opp.String())
	require.Equal(t, "P", s.Hint())

	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "c7c5")))
	require.Equal(t, "N", s.Hint())
	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "b8c6")))
	require.Equal(t, LineComplete, s.State())
}

func TestNew_CastlingCompares(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 4. O-O"})
	require.NoError(t, err)
	for _, m := range []string{"e2e4", "g1f3", "f1c4"} {
		require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, m)))
	}
	require.Equal(t, "K", s.Hint())
	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "e1g1")))
	require.Equal(t, LineComplete, s.State())
}

func TestNew_EmptyLineIsComplete(t *testing.T) {
	s, err := New(model.Line{Player: model.White})
	require.NoError(t, err)
	require.Equal(t, LineComplete, s.State())
	require.Equal(t, VerdictNone, s.PlayMove(mv(t, "e2e4")))
}

func TestNew_InitError(t *testing.T) {
	_, err := New(model.Line{Player: model.White, PGN: "1. e5"})
	var ie *InitError
	require.True(t, errors.As(err, &ie))
	require.ErrorIs(t, err, engine.ErrInvalidPosition)
}

func TestRestart(t *testing.T) {
	s, err := New(model.Line{Player: model.White, PGN: "1. e4 e5 2. Nf3", Notes: []string{"open", "", "", ""}})
	require.NoError(t, err)
	require.Equal(t, "open", s.Note())
	s.PlayMove(mv(t, "d2d4"))
	s.PlayMove(mv(t, "e2e4"))
	s.Restart()
	require.Equal(t, 0, s.Ply())
	require.Equal(t, 0, s.Mistakes())
	require.Equal(t, AwaitingMove, s.State())
	exp, ok := s.Expected()
	require.True(t, ok)
	require.Equal(t, "e2e4", exp.String())
}

func TestDrill(t *testing.T) {
	tr := repertoire.New()
	tr, f, ok := tr.CreateFolder("Open games", model.RootWhite)
	require.True(t, ok)
	tr, a, _ := tr.CreateLine(model.Line{Player: model.White, PGN: "1. e4 e5"}, f)
	tr, _, _ = tr.CreateLine(model.Line{Player: model.White, PGN: "1. e4 c5"}, f)
	tr, c, _ := tr.CreateLine(model.Line{Player: model.White, PGN: "1. e4 e6"}, f)

	d := NewDrill(tr, model.RootWhite, DrillOptions{})
	require.Equal(t, 3, d.Len())
	s, id, ok := d.Next()
	require.True(t, ok)
	require.Equal(t, a, id)
	require.Equal(t, VerdictCorrect, s.PlayMove(mv(t, "e2e4")))
	d.Next()
	_, id, _ = d.Next()
	require.Equal(t, c, id)
	_, _, ok = d.Next()
	require.False(t, ok)
	require.Equal(t, 0, d.Remaining())

	s1 := NewDrill(tr, f, DrillOptions{Shuffle: true, Seed: 42}).Queue()
	s2 := NewDrill(tr, f, DrillOptions{Shuffle: true, Seed: 42}).Queue()
	require.Equal(t, s1, s2)
	require.ElementsMatch(t, d.Queue(), s1)

	single := NewDrill(tr, c, DrillOptions{})
	require.Equal(t, []model.ID{c}, single.Queue())
}
