package sqlite

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

const schema = `
CREATE TABLE IF NOT EXISTS organizer_runs (
  id          TEXT PRIMARY KEY,
  started_at  DATETIME NOT NULL,
  finished_at DATETIME NULL,
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
  created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_organizer_entries_run ON organizer_entries(run_id);
CREATE INDEX IF NOT EXISTS idx_organizer_entries_created ON organizer_entries(created_at);
`

const (
	runColumns   = `id, started_at, finished_at, model, listed, moved, skipped, failed, status, message`
	entryColumns = `id, run_id, file_id, original_name, final_name, category, folder_id, media_type, model, status, stage, reason, created_at`
)

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveRun insert/update run row
func (r *JournalRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO organizer_runs (` + runColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
 finished_at=excluded.finished_at, model=excluded.model,
 listed=excluded.listed, moved=excluded.moved, skipped=excluded.skipped, failed=excluded.failed,
 status=excluded.status, message=excluded.message;
`
	_, err := r.db.ExecContext(ctx, q,
		run.ID, run.StartedAt.UTC(), nullTime(run.FinishedAt), run.Model,
		run.Listed, run.Moved, run.Skipped, run.Failed,
		string(run.Status), run.Message,
	)
	return err
}

func (r *JournalRepository) SaveEntry(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO organizer_entries (` + entryColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.RunID, e.FileID, e.OriginalName, e.FinalName, e.Category, e.FolderID,
		e.MediaType, e.Model, string(e.Status), e.Stage, e.Reason, e.CreatedAt.UTC(),
	)
	return err
}

func (r *JournalRepository) LatestRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM organizer_runs ORDER BY started_at DESC LIMIT ?;`, limit)
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
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM organizer_runs WHERE id=? LIMIT 1;`, id)
	return scanRun(row)
}

func (r *JournalRepository) EntriesByRun(ctx context.Context, id domain.RunID) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM organizer_entries WHERE run_id=? ORDER BY created_at ASC, rowid ASC;`, id)
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
		`SELECT `+entryColumns+` FROM organizer_entries ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?;`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

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

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
