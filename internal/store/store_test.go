package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	t.Setenv("REPERTOIRE_CONFIG_DIR", t.TempDir())
	return Store{Dir: t.TempDir()}
}

func TestLoad_EmptyDBYieldsFreshTree(t *testing.T) {
	s := newTestStore(t)
	tr, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tr.FolderCount())
	require.Equal(t, 0, tr.LineCount())
	require.True(t, s.Exists())
}

func TestWorkspacePersist_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ws := repertoire.NewWorkspace(repertoire.New(), s)

	f, err := ws.CreateFolder(ctx, "Queen's Gambit", model.RootWhite)
	require.NoError(t, err)
	l, err := ws.CreateLine(ctx, model.Line{Player: model.White, PGN: "1. d4 d5 2. c4"}, f)
	require.NoError(t, err)
	require.NoError(t, ws.RenameFolder(ctx, f, "QGD"))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, repertoire.Equal(ws.Tree(), got))
	line, ok := got.Line(l)
	require.True(t, ok)
	require.Len(t, line.Notes, 4)

	evs, err := s.ReadEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	require.Equal(t, "folder.create", evs[0].Type)
	require.Equal(t, "folder.rename", evs[2].Type)

	tail, err := s.ReadEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, "folder.rename", tail[0].Type)

	forLine, err := s.ReadEventsForEntity(ctx, l, 0)
	require.NoError(t, err)
	require.Len(t, forLine, 1)
	require.Equal(t, "line.create", forLine[0].Type)

	v, err := s.StateVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, stateVersion, v)
}

func TestTrainingResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.AppendResult(ctx, model.TrainingResult{LineID: "l1", StartedAt: base, FinishedAt: base.Add(time.Minute), Attempts: 3, Mistakes: 1, Completed: true})
	require.NoError(t, err)
	_, err = s.AppendResult(ctx, model.TrainingResult{LineID: "l2", StartedAt: base, FinishedAt: base.Add(2 * time.Minute), Attempts: 1})
	require.NoError(t, err)

	all, err := s.ReadResults(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "l2", all[0].LineID)

	one, err := s.ReadResults(ctx, "l1", 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.True(t, one[0].Completed)
	require.Equal(t, 1, one[0].Mistakes)
	require.NotEmpty(t, one[0].ID)
}

func TestEncodeDecodeRepertoire(t *testing.T) {
	tr := repertoire.New()
	tr, f, _ := tr.CreateFolder("Sicilian", model.RootBlack)
	tr, _, _ = tr.CreateLine(model.Line{Player: model.Black, PGN: "1. e4 c5", Notes: []string{"", "", "good"}}, f)

	var buf bytes.Buffer
	require.NoError(t, EncodeRepertoire(&buf, tr, true))
	require.Contains(t, buf.String(), `"startingFEN"`)
	require.Contains(t, buf.String(), `"PGN": "1. e4 c5"`)

	got, err := DecodeRepertoire(&buf)
	require.NoError(t, err)
	require.True(t, repertoire.Equal(tr, got))
}

func TestDecodeRepertoire_SchemaErrors(t *testing.T) {
	cases := map[string]string{
		"bad contains": `{"folders":{"w":{"name":"White","contains":"maybe","children":[]}},"lines":{}}`,
		"bad player":   `{"folders":{"w":{"name":"White","contains":"folders","children":[]}},"lines":{"x":{"player":"white","startingFEN":"","PGN":"","notes":[""]}}}`,
		"no notes":     `{"folders":{"w":{"name":"White","contains":"folders","children":[]}},"lines":{"x":{"player":"w","startingFEN":"","PGN":""}}}`,
		"unknown key":  `{"folders":{},"lines":{},"extra":1}`,
		"not json":     `{"folders":`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRepertoire(strings.NewReader(in))
			var se SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			require.NotEmpty(t, se.Problems)
		})
	}
}

func TestDecodeRepertoire_InvariantErrors(t *testing.T) {
	in := `{"folders":{
		"w":{"name":"White","contains":"folders","children":["a"]},
		"b":{"name":"Black","contains":"folders","children":[]},
		"a":{"name":"A","contains":"lines","children":[]}
	},"lines":{}}`
	_, err := DecodeRepertoire(strings.NewReader(in))
	var ie repertoire.InvariantError
	require.True(t, errors.As(err, &ie), "got %v", err)
}

func TestDoctor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ws := repertoire.NewWorkspace(repertoire.New(), s)
	f, err := ws.CreateFolder(ctx, "London", model.RootWhite)
	require.NoError(t, err)
	l, err := ws.CreateLine(ctx, model.Line{Player: model.White, PGN: "1. d4 d5 2. Bf4"}, f)
	require.NoError(t, err)
	_, err = s.AppendResult(ctx, model.TrainingResult{LineID: l, Completed: true})
	require.NoError(t, err)

	rep, err := s.Doctor(ctx)
	require.NoError(t, err)
	require.False(t, rep.HasErrors(), "%+v", rep.Issues)
	require.Equal(t, 3, rep.Folders)
	require.Equal(t, 1, rep.Lines)
	require.Equal(t, 2, rep.Events)

	require.NoError(t, ws.DeleteLine(ctx, l))
	rep, err = s.Doctor(ctx)
	require.NoError(t, err)
	require.False(t, rep.HasErrors())
	require.Len(t, rep.Issues, 1)
	require.Equal(t, "orphan_results", rep.Issues[0].Code)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("REPERTOIRE_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "", cfg.CurrentWorkspace)

	cfg.CurrentWorkspace = "club"
	cfg.LogLevel = "debug"
	cfg.Trainer = &TrainerConfig{Shuffle: true}
	require.NoError(t, SaveConfig(cfg))

	got, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "club", got.CurrentWorkspace)
	require.Equal(t, "debug", got.LogLevel)
	require.True(t, got.Trainer.Shuffle)

	dir, err := WorkspaceDir("club")
	require.NoError(t, err)
	require.NoError(t, Store{Dir: dir}.Ensure())
	names, err := ListWorkspaces()
	require.NoError(t, err)
	require.Equal(t, []string{"club"}, names)

	_, err = NormalizeWorkspaceName("../etc")
	require.Error(t, err)
}
