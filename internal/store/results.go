package store

import (
	"context"
	"strings"
	"time"

	"repertoire-cli/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AppendResult stores one training run. A missing ID is generated.
func (s Store) AppendResult(ctx context.Context, r model.TrainingResult) (model.TrainingResult, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return r, err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO training_results(id, line_id, started_at_unixms, finished_at_unixms, attempts, mistakes, completed) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LineID, r.StartedAt.UTC().UnixMilli(), r.FinishedAt.UTC().UnixMilli(), r.Attempts, r.Mistakes, boolToInt(r.Completed))
	if err != nil {
		return r, err
	}
	log.Info().Str("line", r.LineID).Int("mistakes", r.Mistakes).Bool("completed", r.Completed).Msg("recorded training result")
	return r, nil
}

// ReadResults lists training runs, newest first. An empty lineID lists every line.
func (s Store) ReadResults(ctx context.Context, lineID string, limit int) ([]model.TrainingResult, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, line_id, started_at_unixms, finished_at_unixms, attempts, mistakes, completed FROM training_results`
	args := []any{}
	if lineID = strings.TrimSpace(lineID); lineID != "" {
		q += ` WHERE line_id = ?`
		args = append(args, lineID)
	}
	q += ` ORDER BY finished_at_unixms DESC, id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TrainingResult{}
	for rows.Next() {
		var r model.TrainingResult
		var started, finished int64
		var completed int
		if err := rows.Scan(&r.ID, &r.LineID, &started, &finished, &r.Attempts, &r.Mistakes, &completed); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		r.Completed = completed != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
