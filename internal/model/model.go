package model

import (
	"fmt"
	"strings"
)

type ID = string

// Root folder ids. Both always exist.
const (
	RootWhite ID = "w"
	RootBlack ID = "b"
)

func IsRoot(id ID) bool {
	return id == RootWhite || id == RootBlack
}

type Colour string

const (
	White Colour = "w"
	Black Colour = "b"
)

func (c Colour) Valid() bool { return c == White || c == Black }

func (c Colour) Opponent() Colour {
	if c == White {
		return Black
	}
	return White
}

// RootFor returns the root folder holding lines trained from c's side.
func (c Colour) RootFor() ID {
	if c == Black {
		return RootBlack
	}
	return RootWhite
}

func ParseColour(s string) (Colour, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	default:
		return "", fmt.Errorf("invalid colour: %q (expected w|b)", s)
	}
}

// Contains is the specialization tag of a folder.
type Contains string

const (
	ContainsEither  Contains = "either"
	ContainsFolders Contains = "folders"
	ContainsLines   Contains = "lines"
)

type Folder struct {
	Name     string   `json:"name" yaml:"name"`
	Contains Contains `json:"contains" yaml:"contains" validate:"oneof=either folders lines"`
	Children []ID     `json:"children" yaml:"children" validate:"dive,required"`
}

type Line struct {
	Player      Colour   `json:"player" yaml:"player" validate:"oneof=w b"`
	StartingFEN string   `json:"startingFEN" yaml:"startingFEN"`
	PGN         string   `json:"PGN" yaml:"PGN"`
	Notes       []string `json:"notes" yaml:"notes" validate:"required,min=1"`
}

// Repertoire is the persisted shape of the whole tree.
type Repertoire struct {
	Folders map[ID]Folder `json:"folders" yaml:"folders" validate:"required,dive"`
	Lines   map[ID]Line   `json:"lines" yaml:"lines" validate:"dive"`
}

// Move is a coordinate move. PromoteTo is one of Q R B N, or empty.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	PromoteTo string `json:"promoteTo,omitempty"`
}

func (m Move) String() string {
	return m.From + m.To + strings.ToLower(m.PromoteTo)
}

// ParseMove accepts e2e4, e7e8q, e2-e4 and e7-e8=Q.
func ParseMove(s string) (Move, error) {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "=", "")
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move: %q (expected e.g. e2e4 or e7e8q)", raw)
	}
	from, to := s[:2], s[2:4]
	if !IsSquare(from) || !IsSquare(to) {
		return Move{}, fmt.Errorf("invalid move: %q (bad square)", raw)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
			m.PromoteTo = strings.ToUpper(s[4:])
		default:
			return Move{}, fmt.Errorf("invalid move: %q (bad promotion piece)", raw)
		}
	}
	return m, nil
}

func IsSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}
