package tui

import (
	"fmt"
	"strings"
	"time"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/trainer"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type Options struct {
	// Glyphs is the configured glyph set ("unicode" or "ascii").
	Glyphs    string
	ShowHints bool
	// Title names a line for the header, e.g. its folder path.
	Title func(id model.ID) string
	// OnFinish is called once per line when it is completed or abandoned.
	OnFinish func(id model.ID, s *trainer.Session, started time.Time)
}

type trainerModel struct {
	drill   *trainer.Drill
	opts    Options
	session *trainer.Session
	lineID  model.ID
	started time.Time
	trained int

	input    textinput.Model
	status   string
	showHint bool
	reported bool
	done     bool

	width int
	now   func() time.Time
}

func newTrainerModel(d *trainer.Drill, opts Options) *trainerModel {
	in := textinput.New()
	in.Placeholder = "e2e4"
	in.Prompt = "move " + glyphArrow() + " "
	in.CharLimit = 8
	in.Focus()

	m := &trainerModel{drill: d, opts: opts, input: in, width: 80, now: time.Now}
	m.nextLine()
	return m
}

func (m *trainerModel) nextLine() {
	s, id, ok := m.drill.Next()
	if !ok {
		m.session, m.lineID, m.done = nil, "", true
		m.input.Blur()
		return
	}
	m.session, m.lineID = s, id
	m.started = m.now()
	m.reported = false
	m.showHint = m.opts.ShowHints
	m.status = ""
	m.input.Reset()
	m.input.Focus()
	m.trained++
	if s.State() == trainer.LineComplete {
		m.finish()
	}
}

// finish reports the current line once.
func (m *trainerModel) finish() {
	if m.session == nil || m.reported {
		return
	}
	m.reported = true
	if m.opts.OnFinish != nil {
		m.opts.OnFinish(m.lineID, m.session, m.started)
	}
}

func (m *trainerModel) Init() tea.Cmd { return textinput.Blink }

func (m *trainerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.session != nil && m.session.Attempts() > 0 {
				m.finish()
			}
			return m, tea.Quit
		}
		if m.done {
			if msg.String() == "q" || msg.String() == "enter" {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.session.State() == trainer.LineComplete {
			switch msg.String() {
			case "n", "enter":
				m.nextLine()
			case "r":
				m.session.Restart()
				m.started = m.now()
				m.reported = false
				m.status = ""
				m.input.Focus()
			case "q":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "?":
			m.showHint = !m.showHint
			return m, nil
		case "enter":
			m.submit()
			return m, nil
		}
		m.session.Continue()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *trainerModel) submit() {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return
	}
	mv, err := model.ParseMove(raw)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.input.Reset()
	switch m.session.PlayMove(mv) {
	case trainer.VerdictCorrect:
		m.status = glyphCheck() + " " + mv.String()
		if opp, ok := m.session.LastOpponentMove(); ok {
			m.status += "  " + glyphArrow() + " " + opp.String()
		}
		if m.session.State() == trainer.LineComplete {
			m.status += "  line complete (n: next, r: again, q: quit)"
			m.input.Blur()
			m.finish()
		}
	case trainer.VerdictIncorrect:
		m.status = glyphCross() + " " + mv.String() + " is not the move"
	case trainer.VerdictIllegal:
		m.status = mv.String() + " is illegal here"
	}
}

func (m *trainerModel) View() string {
	width := m.width
	if width < 30 {
		width = 30
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
	if m.done {
		return header.Render(fmt.Sprintf("Done: %d line(s) trained.", m.trained)) + "\n" +
			styleMuted().Render("enter/q: quit") + "\n"
	}
	s := m.session

	title := m.lineID
	if m.opts.Title != nil {
		if t := strings.TrimSpace(m.opts.Title(m.lineID)); t != "" {
			title = t
		}
	}
	var b strings.Builder
	b.WriteString(header.Render(xansi.Truncate(title, width, "…")))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(fmt.Sprintf("line %d of %d · ply %d/%d · mistakes %d",
		m.drill.Len()-m.drill.Remaining(), m.drill.Len(), s.Ply(), s.TotalPlies(), s.Mistakes())))
	b.WriteString("\n\n")

	var highlight []string
	if opp, ok := s.LastOpponentMove(); ok {
		highlight = []string{opp.From, opp.To}
	}
	b.WriteString(renderBoard(s.Board(), s.Player(), highlight...))
	b.WriteString("\n\n")

	if note := renderMarkdown(s.Note(), width-2); note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	if m.status != "" {
		st := lipgloss.NewStyle()
		switch s.LastVerdict() {
		case trainer.VerdictCorrect:
			st = st.Foreground(colorCorrect)
		case trainer.VerdictIncorrect:
			st = st.Foreground(colorWrong)
		}
		b.WriteString(st.Render(xansi.Truncate(m.status, width, "…")))
		b.WriteString("\n")
	}
	if m.showHint {
		if h := s.Hint(); h != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(colorAccent).Render("hint: move the " + pieceName(h)))
			b.WriteString("\n")
		}
	}
	if s.State() != trainer.LineComplete {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render("enter: play · ?: hint · esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func pieceName(letter string) string {
	switch letter {
	case "K":
		return "king"
	case "Q":
		return "queen"
	case "R":
		return "rook"
	case "B":
		return "bishop"
	case "N":
		return "knight"
	case "P":
		return "pawn"
	}
	return letter
}
