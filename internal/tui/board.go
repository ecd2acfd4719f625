package tui

import (
	"strings"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// renderBoard draws fen from the given side with optional highlighted squares.
func renderBoard(fen string, bottom model.Colour, highlight ...string) string {
	squares := engine.Squares(fen)
	marked := map[string]bool{}
	for _, sq := range highlight {
		if model.IsSquare(sq) {
			marked[sq] = true
		}
	}

	label := styleMuted()
	ranks := []int{7, 6, 5, 4, 3, 2, 1, 0}
	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if bottom == model.Black {
		ranks = []int{0, 1, 2, 3, 4, 5, 6, 7}
		files = []int{7, 6, 5, 4, 3, 2, 1, 0}
	}

	var b strings.Builder
	for _, r := range ranks {
		b.WriteString(label.Render(string(rune('1'+r))) + " ")
		for _, f := range files {
			name := string(rune('a'+f)) + string(rune('1'+r))
			bg := colorDarkSquare
			if (r+f)%2 == 1 {
				bg = colorLightSquare
			}
			if marked[name] {
				bg = colorMoveSquare
			}
			cell := lipgloss.NewStyle().Background(bg).Foreground(colorPieceFg)
			b.WriteString(cell.Render(" " + glyphPiece(squares[r][f]) + " "))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for _, f := range files {
		b.WriteString(label.Render(" " + string(rune('a'+f)) + " "))
	}
	return b.String()
}
