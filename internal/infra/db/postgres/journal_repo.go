package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

const schema = `
CREATE TABLE IF NOT EXISTS organizer_runs (
  id          TEXT PRIMARY KEY,
  started_at  TIMESTAMPTZ NOT NULL,
  finished_at TIMESTAMPTZ NULL,
  model       TEXT NOT NULL DEFAULT '',
  listed      INTEGER NOT NULL DEFAULT 0,
  moved       INTEGER NOT NULL DEFAULT 0,
  skipped     INTEGER NOT NULL DEFAULT 0,
  failed      INTEGER NOT NULL DEFAULT 0,
  status      TEXT NOT NULL,
  message     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_organizer_runs_started ON organizer_runs(started_at);

CREATE TABLE IF NOT EXISTS organizer_entries (
  seq           BIGSERIAL,
  id            TEXT PRIMARY KEY,
  run_id        TEXT NOT NULL,
  file_id       TEXT NOT NULL,
  original_name TEXT NOT NULL,
  final_name    TEXT NOT NULL DEFAULT '',
  category      TEXT NOT NULL DEFAULT '',
  folder_id     TEXT NOT NULL DEFAULT '',
  media_type    TEXT NOT NULL DEFAULT '',
  model         TEXT NOT NULL DEFAULT '',
  status        TEXT NOT NULL,
  stage         TEXT NOT NULL DEFAULT '',
  reason        TEXT NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_organizer_entries_run ON organizer_entries(run_id);
CREATE INDEX IF NOT EXISTS idx_organizer_entries_seq ON organizer_entries(seq);
`

const (
	runColumns   = `id, started_at, finished_at, model, listed, moved, skipped, failed, status, message`
	entryColumns = `id, run_id, file_id, original_name, final_name, category, folder_id, media_type, model, status, stage, reason, created_at`
)

type JournalRepository struct{ db *sql.DB }

func NewJournalRepository(db *sql.DB) *JournalRepository { return &JournalRepository{db: db} }

// EnsureSchema runs the DDL in one simple-protocol Exec (no args).
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveRun insert/update run row
func (r *JournalRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO organizer_runs (` + runColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 finished_at = EXCLUDED.finished_at,
 model = EXCLUDED.model,
 listed = EXCLUDED.listed,
 moved = EXCLUDED.moved,
 skipped = EXCLUDED.skipped,
 failed = EXCLUDED.failed,
 status = EXCLUDED.status,
 message = EXCLUDED.message;`

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt
	}

	_, err := r.db.ExecContext(ctx, q,
		string(run.ID), started, finished, run.Model,
		run.Listed, run.Moved, run.Skipped, run.Failed,
		string(run.Status), run.Message,
	)
	return err
}

func (r *JournalRepository) SaveEntry(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO organizer_entries (` + entryColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`

	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.RunID), e.FileID, e.OriginalName, e.FinalName, e.Category, e.FolderID,
		e.MediaType, e.Model, string(e.Status), e.Stage, e.Reason, e.CreatedAt,
	)
	return err
}

// LatestRuns newest first
func (r *JournalRepository) LatestRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM organizer_runs ORDER BY started_at DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *JournalRepository) GetRun(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM organizer_runs WHERE id=$1 LIMIT 1;`, string(id))
	return scanRun(row)
}

func (r *JournalRepository) EntriesByRun(ctx context.Context, id domain.RunID) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM organizer_entries WHERE run_id=$1 ORDER BY seq ASC;`, string(id))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// PaginateEntries with offset + limit (classic pagination)
func (r *JournalRepository) PaginateEntries(ctx context.Context, page, pageSize int) ([]*domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM organizer_entries ORDER BY seq DESC LIMIT $1 OFFSET $2;`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(s scanner) (*domain.Run, error) {
	var run domain.Run
	var finished sql.NullTime
	if err := s.Scan(
		&run.ID, &run.StartedAt, &finished, &run.Model,
		&run.Listed, &run.Moved, &run.Skipped, &run.Failed,
		&run.Status, &run.Message,
	); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

func collectEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	defer rows.Close()
	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.FileID, &e.OriginalName, &e.FinalName, &e.Category, &e.FolderID,
			&e.MediaType, &e.Model, &e.Status, &e.Stage, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
