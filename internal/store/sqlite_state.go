package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/rs/zerolog/log"
)

const stateVersion = 1

// Load hydrates the repertoire. An empty database yields a fresh tree.
func (s Store) Load(ctx context.Context) (*repertoire.Tree, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rep, err := loadRepertoire(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(rep.Folders) == 0 && len(rep.Lines) == 0 {
		log.Debug().Msg("empty workspace db; starting a fresh repertoire")
		return repertoire.New(), nil
	}
	t, err := repertoire.FromSnapshot(rep)
	if err != nil {
		return nil, fmt.Errorf("load repertoire: %w", err)
	}
	log.Debug().Int("folders", t.FolderCount()).Int("lines", t.LineCount()).Msg("loaded repertoire")
	return t, nil
}

// Save replaces the stored repertoire with t.
func (s Store) Save(ctx context.Context, t *repertoire.Tree) error {
	return s.commit(ctx, t, nil)
}

// Persist saves t and appends ch to the event log in one transaction.
func (s Store) Persist(ctx context.Context, t *repertoire.Tree, ch repertoire.Change) error {
	return s.commit(ctx, t, &ch)
}

var _ repertoire.Persister = Store{}

func (s Store) commit(ctx context.Context, t *repertoire.Tree, ch *repertoire.Change) error {
	if t == nil {
		return errors.New("nil tree")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveRepertoire(ctx, tx, t.Snapshot()); err != nil {
		return err
	}
	if ch != nil {
		if err := insertEvent(ctx, tx, ch.Type, ch.EntityID, ch.Payload); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if ch != nil {
		log.Debug().Str("type", ch.Type).Str("entity", ch.EntityID).Msg("persisted change")
	}
	return nil
}

// saveRepertoire uses a replace-all strategy inside the caller's transaction.
func saveRepertoire(ctx context.Context, tx *sql.Tx, rep model.Repertoire) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", strconv.Itoa(stateVersion)); err != nil {
		return err
	}
	for _, table := range []string{"folders", "lines"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()
	for id, f := range rep.Folders {
		raw, err := json.Marshal(f)
		if err != nil {
			return err
		}
		children, _ := json.Marshal(f.Children)
		if _, err := tx.ExecContext(ctx, `INSERT INTO folders(id, name, contains, children_json, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
			id, f.Name, string(f.Contains), string(children), string(raw), nowMs); err != nil {
			return err
		}
	}
	for id, l := range rep.Lines {
		raw, err := json.Marshal(l)
		if err != nil {
			return err
		}
		notes, _ := json.Marshal(l.Notes)
		if _, err := tx.ExecContext(ctx, `INSERT INTO lines(id, player, starting_fen, pgn, notes_json, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			id, string(l.Player), l.StartingFEN, l.PGN, string(notes), string(raw), nowMs); err != nil {
			return err
		}
	}
	return nil
}

func loadRepertoire(ctx context.Context, db *sql.DB) (model.Repertoire, error) {
	folders, err := readJSONRows[model.Folder](ctx, db, `SELECT id, json FROM folders`)
	if err != nil {
		return model.Repertoire{}, fmt.Errorf("read folders: %w", err)
	}
	lines, err := readJSONRows[model.Line](ctx, db, `SELECT id, json FROM lines`)
	if err != nil {
		return model.Repertoire{}, fmt.Errorf("read lines: %w", err)
	}
	return model.Repertoire{Folders: folders, Lines: lines}, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) (map[model.ID]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.ID]T{}
	for rows.Next() {
		var id, js string
		if err := rows.Scan(&id, &js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, fmt.Errorf("row %s: %w", id, err)
		}
		out[id] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StateVersion returns the schema version recorded by the last save, or 0.
func (s Store) StateVersion(ctx context.Context) (int, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	v := readMeta(ctx, db, "version")
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
