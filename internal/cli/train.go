package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
	"repertoire-cli/internal/store"
	"repertoire-cli/internal/trainer"
	"repertoire-cli/internal/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type trainStep struct {
	Move     string          `json:"move" yaml:"move"`
	Verdict  trainer.Verdict `json:"verdict" yaml:"verdict"`
	Reply    string          `json:"reply,omitempty" yaml:"reply,omitempty"`
	Ply      int             `json:"ply" yaml:"ply"`
	Complete bool            `json:"complete,omitempty" yaml:"complete,omitempty"`
}

func newTrainCmd(app *App) *cobra.Command {
	var moves string
	var shuffle, hints bool
	var seed int64

	cmd := &cobra.Command{
		Use:   "train <line-or-folder-id>",
		Short: "Drill a line, or every line below a folder",
		Long: strings.TrimSpace(`
Without --moves this opens the interactive trainer. With --moves the first
queued line is played non-interactively and each verdict is printed.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, s, err := loadWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			id := strings.TrimSpace(args[0])
			if !t.HasLine(id) && !t.HasFolder(id) {
				return writeErr(cmd, errNotFound("line or folder", id))
			}

			opts := trainer.DrillOptions{Shuffle: shuffle, Seed: seed}
			if app.cfg != nil && app.cfg.Trainer != nil {
				if !cmd.Flags().Changed("shuffle") {
					opts.Shuffle = app.cfg.Trainer.Shuffle
				}
				if !cmd.Flags().Changed("hints") {
					hints = app.cfg.Trainer.ShowHints
				}
			}
			if opts.Shuffle && !cmd.Flags().Changed("seed") {
				opts.Seed = time.Now().UnixNano()
			}
			d := trainer.NewDrill(t, id, opts)
			if d.Len() == 0 {
				return writeErr(cmd, fmt.Errorf("no lines to train under %s", id))
			}

			if cmd.Flags().Changed("moves") {
				return runScriptedTraining(cmd, app, s, d, moves)
			}

			glyphs := ""
			if app.cfg != nil && app.cfg.TUI != nil {
				glyphs = app.cfg.TUI.Glyphs
			}
			err = tui.RunTrainer(d, tui.Options{
				Glyphs:    glyphs,
				ShowHints: hints,
				Title:     func(lineID model.ID) string { return lineTitle(t, lineID) },
				OnFinish: func(lineID model.ID, sess *trainer.Session, started time.Time) {
					if _, err := s.AppendResult(ctx, resultOf(lineID, sess, started)); err != nil {
						log.Error().Err(err).Str("line", lineID).Msg("could not record training result")
					}
				},
			})
			for _, sk := range d.Skipped() {
				log.Warn().Err(sk.Err).Str("line", sk.LineID).Msg("skipped unreadable line")
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&moves, "moves", "", "Play these coordinate moves instead of opening the trainer (e.g. e2e4,g1f3)")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Drill lines in random order")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (default: time-based)")
	cmd.Flags().BoolVar(&hints, "hints", false, "Show piece hints without pressing '?'")
	return cmd
}

func runScriptedTraining(cmd *cobra.Command, app *App, s store.Store, d *trainer.Drill, raw string) error {
	parsed, err := parseMoveList(raw)
	if err != nil {
		return writeErr(cmd, err)
	}
	sess, lineID, ok := d.Next()
	if !ok {
		var ie *trainer.InitError
		if sk := d.Skipped(); len(sk) > 0 && errors.As(sk[0].Err, &ie) {
			return writeErr(cmd, fmt.Errorf("line %s: %w", sk[0].LineID, ie))
		}
		return writeErr(cmd, errors.New("no trainable lines"))
	}

	started := time.Now().UTC()
	steps := []trainStep{}
	for _, m := range parsed {
		if sess.State() == trainer.LineComplete {
			break
		}
		sess.Continue()
		v := sess.PlayMove(m)
		st := trainStep{Move: m.String(), Verdict: v, Ply: sess.Ply(), Complete: sess.State() == trainer.LineComplete}
		if v == trainer.VerdictCorrect {
			if opp, ok := sess.LastOpponentMove(); ok {
				st.Reply = opp.String()
			}
		}
		steps = append(steps, st)
	}

	var result *model.TrainingResult
	if sess.Attempts() > 0 {
		r, err := s.AppendResult(cmd.Context(), resultOf(lineID, sess, started))
		if err != nil {
			return writeErr(cmd, err)
		}
		result = &r
	}

	data := map[string]any{
		"line":      lineID,
		"steps":     steps,
		"state":     sess.State().String(),
		"attempts":  sess.Attempts(),
		"mistakes":  sess.Mistakes(),
		"completed": sess.State() == trainer.LineComplete,
	}
	if exp, ok := sess.Expected(); ok {
		data["expected"] = exp.String()
	}
	return writeOut(cmd, app, map[string]any{
		"data": data,
		"meta": map[string]any{"queued": d.Len(), "result": result},
	})
}

func resultOf(lineID model.ID, sess *trainer.Session, started time.Time) model.TrainingResult {
	return model.TrainingResult{
		LineID:     lineID,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Attempts:   sess.Attempts(),
		Mistakes:   sess.Mistakes(),
		Completed:  sess.State() == trainer.LineComplete,
	}
}

// lineTitle names a line by its folder path, e.g. "White / Italian".
func lineTitle(t *repertoire.Tree, lineID model.ID) string {
	return strings.Join(pathNames(t, lineID), " / ")
}
