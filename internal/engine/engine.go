// Package engine adapts a chess rules library to the position-stepping
// capability used by the line editor and the trainer.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"repertoire-cli/internal/model"

	"github.com/notnil/chess"
)

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrIllegalMove     = errors.New("illegal move")
)

type PGNOptions struct {
	// MovesOnly omits tag pairs and the result marker.
	MovesOnly bool
}

// PositionEngine wraps one starting position plus a move sequence and a ply cursor.
type PositionEngine interface {
	ApplyMove(m model.Move) error
	FEN() string
	PGN(opts PGNOptions) string
	ToNext() PositionEngine
	ToPrevious() PositionEngine
	ToNth(n int) PositionEngine
	LegalMoves(square string) []string
	Ply() int
	TotalPlies() int
}

// Game is the chess-backed PositionEngine.
// positions[i] is the position after i plies; positions[0] is the start.
type Game struct {
	positions []*chess.Position
	moves     []*chess.Move
	cursor    int
}

var _ PositionEngine = (*Game)(nil)

// New builds a game from a starting FEN (empty = standard start) and SAN movetext.
// The cursor is left at the end of the movetext.
func New(fen, movesText string) (*Game, error) {
	start, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	g := &Game{positions: []*chess.Position{start}}
	for _, tok := range movetextTokens(movesText) {
		pos := g.positions[len(g.positions)-1]
		m, ok := decodeSAN(pos, tok)
		if !ok {
			return nil, fmt.Errorf("%w: cannot play %q after %d plies", ErrInvalidPosition, tok, len(g.moves))
		}
		g.moves = append(g.moves, m)
		g.positions = append(g.positions, pos.Update(m))
	}
	g.cursor = len(g.moves)
	return g, nil
}

// CountPlies returns the number of plies in movesText played from fen.
func CountPlies(fen, movesText string) (int, error) {
	g, err := New(fen, movesText)
	if err != nil {
		return 0, err
	}
	return g.TotalPlies(), nil
}

func parseFEN(fen string) (*chess.Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return chess.NewGame().Position(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func (g *Game) current() *chess.Position { return g.positions[g.cursor] }

// ApplyMove plays m from the cursor. Moves after the cursor are discarded.
func (g *Game) ApplyMove(m model.Move) error {
	pos := g.current()
	cm, ok := findMove(pos, m)
	if !ok {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	g.moves = append(g.moves[:g.cursor:g.cursor], cm)
	g.positions = append(g.positions[:g.cursor+1:g.cursor+1], pos.Update(cm))
	g.cursor++
	return nil
}

func (g *Game) FEN() string { return g.current().String() }

func (g *Game) PGN(opts PGNOptions) string {
	moves := g.moveText()
	if opts.MovesOnly {
		return moves
	}
	var b strings.Builder
	startFEN := g.positions[0].String()
	if startFEN != chess.NewGame().Position().String() {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN %q]\n\n", startFEN)
	}
	if moves != "" {
		b.WriteString(moves)
		b.WriteString(" ")
	}
	b.WriteString("*")
	return b.String()
}

func (g *Game) moveText() string {
	if len(g.moves) == 0 {
		return ""
	}
	fields := strings.Fields(g.positions[0].String())
	moveNo := 1
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			moveNo = n
		}
	}
	blackToMove := g.positions[0].Turn() == chess.Black

	parts := make([]string, 0, len(g.moves)*2)
	for i, m := range g.moves {
		san := chess.AlgebraicNotation{}.Encode(g.positions[i], m)
		switch {
		case !blackToMove:
			parts = append(parts, fmt.Sprintf("%d.", moveNo), san)
		case i == 0:
			parts = append(parts, fmt.Sprintf("%d...", moveNo), san)
		default:
			parts = append(parts, san)
		}
		if blackToMove {
			moveNo++
		}
		blackToMove = !blackToMove
	}
	return strings.Join(parts, " ")
}

func (g *Game) ToNext() PositionEngine {
	if g.cursor < len(g.moves) {
		g.cursor++
	}
	return g
}

func (g *Game) ToPrevious() PositionEngine {
	if g.cursor > 0 {
		g.cursor--
	}
	return g
}

// ToNth moves the cursor to ply n, clamped to [0, TotalPlies].
func (g *Game) ToNth(n int) PositionEngine {
	switch {
	case n < 0:
		n = 0
	case n > len(g.moves):
		n = len(g.moves)
	}
	g.cursor = n
	return g
}

// LegalMoves returns destination squares for the piece on square in the cursor position.
func (g *Game) LegalMoves(square string) []string {
	from, ok := toSquare(square)
	if !ok {
		return nil
	}
	seen := map[chess.Square]bool{}
	out := []string{}
	for _, m := range g.current().ValidMoves() {
		if m.S1() != from || seen[m.S2()] {
			continue
		}
		seen[m.S2()] = true
		out = append(out, m.S2().String())
	}
	return out
}

func (g *Game) Ply() int        { return g.cursor }
func (g *Game) TotalPlies() int { return len(g.moves) }

// Turn reports the side to move at the cursor.
func (g *Game) Turn() model.Colour {
	if g.current().Turn() == chess.Black {
		return model.Black
	}
	return model.White
}

// NextMovePiece returns the uppercase piece letter (K Q R B N P) of the recorded move
// following the cursor.
func (g *Game) NextMovePiece() (string, bool) {
	if g.cursor >= len(g.moves) {
		return "", false
	}
	m := g.moves[g.cursor]
	p := g.current().Board().Piece(m.S1())
	return pieceLetter(p.Type()), true
}

// MoveAt returns the recorded move leading to ply n (1-based) as a coordinate move.
func (g *Game) MoveAt(n int) (model.Move, bool) {
	if n < 1 || n > len(g.moves) {
		return model.Move{}, false
	}
	m := g.moves[n-1]
	out := model.Move{From: m.S1().String(), To: m.S2().String()}
	if m.Promo() != chess.NoPieceType {
		out.PromoteTo = pieceLetter(m.Promo())
	}
	return out, true
}

// SAN returns the recorded moves in standard algebraic notation.
func (g *Game) SAN() []string {
	out := make([]string, 0, len(g.moves))
	for i, m := range g.moves {
		out = append(out, chess.AlgebraicNotation{}.Encode(g.positions[i], m))
	}
	return out
}

// BoardFEN returns the placement and side-to-move fields of FEN.
func BoardFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return strings.Join(fields, " ")
	}
	return fields[0] + " " + fields[1]
}

func pieceLetter(t chess.PieceType) string {
	switch t {
	case chess.King:
		return "K"
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Bishop:
		return "B"
	case chess.Knight:
		return "N"
	case chess.Pawn:
		return "P"
	default:
		return ""
	}
}

func promoType(letter string) chess.PieceType {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "Q":
		return chess.Queen
	case "R":
		return chess.Rook
	case "B":
		return chess.Bishop
	case "N":
		return chess.Knight
	default:
		return chess.NoPieceType
	}
}

func toSquare(s string) (chess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !model.IsSquare(s) {
		return chess.NoSquare, false
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return chess.Square(rank*8 + file), true
}

// findMove matches m against the legal moves of pos. A missing promotion piece
// never matches a promoting move.
func findMove(pos *chess.Position, m model.Move) (*chess.Move, bool) {
	from, ok1 := toSquare(m.From)
	to, ok2 := toSquare(m.To)
	if !ok1 || !ok2 {
		return nil, false
	}
	promo := promoType(m.PromoteTo)
	for _, cm := range pos.ValidMoves() {
		if cm.S1() == from && cm.S2() == to && cm.Promo() == promo {
			return cm, true
		}
	}
	return nil, false
}

func decodeSAN(pos *chess.Position, tok string) (*chess.Move, bool) {
	want := normalizeSAN(tok)
	if want == "" {
		return nil, false
	}
	dest := sanDestination(want)
	for _, m := range pos.ValidMoves() {
		if dest != "" && m.S2().String() != dest {
			continue
		}
		if normalizeSAN(chess.AlgebraicNotation{}.Encode(pos, m)) == want {
			return m, true
		}
	}
	return nil, false
}

// sanDestination returns the target square of a SAN token, or "" for castling.
func sanDestination(san string) string {
	if i := strings.IndexByte(san, '='); i >= 0 {
		san = san[:i]
	}
	if len(san) >= 2 && model.IsSquare(san[len(san)-2:]) {
		return san[len(san)-2:]
	}
	return ""
}

func normalizeSAN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("+", "", "#", "", "!", "", "?", "", "e.p.", "").Replace(s)
	switch s {
	case "0-0":
		s = "O-O"
	case "0-0-0":
		s = "O-O-O"
	}
	return s
}

// Squares expands the placement field of fen into [rank][file], rank 0 = rank 1.
// Empty squares are 0.
func Squares(fen string) [8][8]rune {
	var out [8][8]rune
	placement, _, _ := strings.Cut(strings.TrimSpace(fen), " ")
	for i, row := range strings.Split(placement, "/") {
		if i >= 8 {
			break
		}
		rank := 7 - i
		file := 0
		for _, c := range row {
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			case file < 8:
				out[rank][file] = c
				file++
			}
		}
	}
	return out
}
