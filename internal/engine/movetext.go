package engine

import "strings"

// movetextTokens extracts SAN tokens from PGN movetext.
// Tag pairs, comments, variations, NAGs, move numbers and results are dropped.
func movetextTokens(text string) []string {
	var b strings.Builder
	depth := 0
	inBrace := false
	inTag := false
	inLineComment := false
	for _, r := range text {
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
				b.WriteRune(' ')
			}
			continue
		case inBrace:
			if r == '}' {
				inBrace = false
				b.WriteRune(' ')
			}
			continue
		case inTag:
			if r == ']' {
				inTag = false
				b.WriteRune(' ')
			}
			continue
		}
		switch r {
		case '{':
			inBrace = true
		case '[':
			inTag = true
		case ';':
			inLineComment = true
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(' ')
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}

	out := []string{}
	for _, f := range strings.Fields(b.String()) {
		f = stripMoveNumber(f)
		if f == "" || isResult(f) || strings.HasPrefix(f, "$") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// stripMoveNumber turns "12." or "12...Nf6" into "" or "Nf6".
func stripMoveNumber(tok string) string {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i == len(tok) || tok[i] != '.' {
		return tok
	}
	for i < len(tok) && tok[i] == '.' {
		i++
	}
	return tok[i:]
}

func isResult(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}
