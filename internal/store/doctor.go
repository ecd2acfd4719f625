package store

import (
	"context"
	"errors"
	"strings"

	"repertoire-cli/internal/repertoire"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level    DoctorIssueLevel `json:"level" yaml:"level"`
	Code     string           `json:"code" yaml:"code"`
	Message  string           `json:"message" yaml:"message"`
	EntityID string           `json:"entityId,omitempty" yaml:"entityId,omitempty"`
}

type DoctorReport struct {
	Folders int           `json:"folders" yaml:"folders"`
	Lines   int           `json:"lines" yaml:"lines"`
	Events  int           `json:"events" yaml:"events"`
	Issues  []DoctorIssue `json:"issues" yaml:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor inspects the stored workspace without modifying it.
func (s Store) Doctor(ctx context.Context) (DoctorReport, error) {
	rep := DoctorReport{Issues: []DoctorIssue{}}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return rep, err
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check;`).Scan(&integrity); err != nil {
		return rep, err
	}
	if !strings.EqualFold(strings.TrimSpace(integrity), "ok") {
		rep.Issues = append(rep.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "sqlite_integrity", Message: integrity})
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events`).Scan(&rep.Events); err != nil {
		return rep, err
	}

	snap, err := loadRepertoire(ctx, db)
	if err != nil {
		rep.Issues = append(rep.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "state_unreadable", Message: err.Error()})
		return rep, nil
	}
	rep.Folders, rep.Lines = len(snap.Folders), len(snap.Lines)
	if rep.Folders == 0 && rep.Lines == 0 {
		return rep, nil
	}

	if err := ValidateRepertoire(snap); err != nil {
		var se SchemaError
		if errors.As(err, &se) {
			for _, p := range se.Problems {
				rep.Issues = append(rep.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "schema", Message: p})
			}
		} else {
			return rep, err
		}
	}
	if _, err := repertoire.FromSnapshot(snap); err != nil {
		var ie repertoire.InvariantError
		if errors.As(err, &ie) {
			for _, p := range ie.Problems {
				rep.Issues = append(rep.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "invariant", Message: p})
			}
		} else {
			rep.Issues = append(rep.Issues, DoctorIssue{Level: DoctorIssueLevelError, Code: "invariant", Message: err.Error()})
		}
	}

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT line_id FROM training_results`)
	if err != nil {
		return rep, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return rep, err
		}
		if _, ok := snap.Lines[id]; !ok {
			rep.Issues = append(rep.Issues, DoctorIssue{
				Level:    DoctorIssueLevelWarn,
				Code:     "orphan_results",
				Message:  "training results reference a deleted line",
				EntityID: id,
			})
		}
	}
	return rep, rows.Err()
}
