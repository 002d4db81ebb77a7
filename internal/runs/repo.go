// Package runs keeps the history of bundle-generation runs.
package runs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded generation run, successful or not.
type Run struct {
	ID         string    `json:"id"`
	Resource   string    `json:"resource"`
	Collection string    `json:"collection,omitempty"`
	Archive    string    `json:"archive,omitempty"`
	Records    int       `json:"records"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Insert(ctx context.Context, run Run) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO runs (id, resource, collection, archive, records, duration_ms, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Resource, run.Collection, run.Archive, run.Records, run.DurationMS, run.Status, run.Error)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, resource, collection, archive, records, duration_ms, status, error, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run        Run
			collection sql.NullString
			archive    sql.NullString
			runErr     sql.NullString
			createdAt  sql.NullTime
		)
		if err := rows.Scan(
			&run.ID, &run.Resource, &collection, &archive,
			&run.Records, &run.DurationMS, &run.Status, &runErr, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Collection = collection.String
		run.Archive = archive.String
		run.Error = runErr.String
		if createdAt.Valid {
			run.CreatedAt = createdAt.Time
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs rows: %w", err)
	}
	return out, nil
}
