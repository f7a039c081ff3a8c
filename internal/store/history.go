package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit caps ListRuns when the caller passes no limit.
const DefaultHistoryLimit = 50

// Run is one committed import, successful or not.
type Run struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"businessId"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"fileName"`
	Success    int       `json:"success"`
	Errors     int       `json:"errors"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// History reads and writes import_runs.
type History struct {
	db Querier
}

// NewHistory creates a History over a pool.
func NewHistory(db Querier) *History {
	return &History{db: db}
}

const insertRunSQL = `INSERT INTO import_runs
	(id, business_id, kind, file_name, success, errors, error, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// RecordRun stores a finished import.
func (h *History) RecordRun(ctx context.Context, run Run) error {
	_, err := h.db.Exec(ctx, insertRunSQL,
		run.ID, run.BusinessID, run.Kind, run.FileName,
		run.Success, run.Errors, run.Error,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	return nil
}

const listRunsSQL = `SELECT id, business_id, kind, file_name, success, errors, error, started_at, finished_at
	FROM import_runs
	WHERE business_id = $1 AND kind = $2
	ORDER BY started_at DESC
	LIMIT $3`

// ListRuns returns the most recent runs for a business and kind, newest first.
func (h *History) ListRuns(ctx context.Context, businessID uuid.UUID, kind string, limit int) ([]Run, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	rows, err := h.db.Query(ctx, listRunsSQL, businessID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.BusinessID, &r.Kind, &r.FileName,
			&r.Success, &r.Errors, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}
