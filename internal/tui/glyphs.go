package tui

import (
	"os"
	"strings"
	"sync"
)

// Piece glyphs. Some fonts render the Unicode chess symbols poorly, so an
// ASCII set (piece letters, "." for empty squares) is available.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference reads REPERTOIRE_TUI_GLYPHS, falling back to the configured value.
func applyGlyphPreference(configured string) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REPERTOIRE_TUI_GLYPHS")))
	if v == "" {
		v = strings.ToLower(strings.TrimSpace(configured))
	}
	switch v {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	default:
		// Unknown value: ignore.
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

var unicodePieces = map[rune]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// glyphPiece renders a FEN piece letter, or an empty square for 0.
func glyphPiece(p rune) string {
	if p == 0 {
		if glyphs() == glyphSetASCII {
			return "."
		}
		return " "
	}
	if glyphs() == glyphSetASCII {
		return string(p)
	}
	if s, ok := unicodePieces[p]; ok {
		return s
	}
	return string(p)
}

func glyphArrow() string {
	if glyphs() == glyphSetASCII {
		return "->"
	}
	return "→"
}

func glyphCheck() string {
	if glyphs() == glyphSetASCII {
		return "ok"
	}
	return "✓"
}

func glyphCross() string {
	if glyphs() == glyphSetASCII {
		return "x"
	}
	return "✗"
}
