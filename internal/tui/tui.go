// Package tui is the interactive trainer.
package tui

import (
	"repertoire-cli/internal/trainer"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTrainer drills every line queued in d until the queue is empty or the user quits.
func RunTrainer(d *trainer.Drill, opts Options) error {
	applyGlyphPreference(opts.Glyphs)
	applyColorProfilePreference()
	applyThemePreference()

	m := newTrainerModel(d, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
