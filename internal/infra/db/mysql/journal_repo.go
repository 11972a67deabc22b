package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS organizer_runs (
  id          VARCHAR(64) PRIMARY KEY,
  started_at  DATETIME(6) NOT NULL,
  finished_at DATETIME(6) NULL,
  model       VARCHAR(255) NOT NULL DEFAULT '',
  listed      INT NOT NULL DEFAULT 0,
  moved       INT NOT NULL DEFAULT 0,
  skipped     INT NOT NULL DEFAULT 0,
  failed      INT NOT NULL DEFAULT 0,
  status      VARCHAR(32) NOT NULL,
  message     TEXT NOT NULL,
  INDEX idx_organizer_runs_started (started_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`, `
CREATE TABLE IF NOT EXISTS organizer_entries (
  id            VARCHAR(64) PRIMARY KEY,
  seq           BIGINT AUTO_INCREMENT UNIQUE,
  run_id        VARCHAR(64) NOT NULL,
  file_id       VARCHAR(512) NOT NULL,
  original_name VARCHAR(1024) NOT NULL,
  final_name    VARCHAR(1024) NOT NULL DEFAULT '',
  category      VARCHAR(255) NOT NULL DEFAULT '',
  folder_id     VARCHAR(512) NOT NULL DEFAULT '',
  media_type    VARCHAR(255) NOT NULL DEFAULT '',
  model         VARCHAR(255) NOT NULL DEFAULT '',
  status        VARCHAR(32) NOT NULL,
  stage         VARCHAR(32) NOT NULL DEFAULT '',
  reason        TEXT NOT NULL,
  created_at    DATETIME(6) NOT NULL,
  INDEX idx_organizer_entries_run (run_id),
  INDEX idx_organizer_entries_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
}

const (
	runColumns   = `id, started_at, finished_at, model, listed, moved, skipped, failed, status, message`
	entryColumns = `id, run_id, file_id, original_name, final_name, category, folder_id, media_type, model, status, stage, reason, created_at`
)

// JournalRepository needs a DSN with parseTime=true.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun insert/update run row
func (r *JournalRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO organizer_runs (` + runColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 finished_at=VALUES(finished_at), model=VALUES(model),
 listed=VALUES(listed), moved=VALUES(moved), skipped=VALUES(skipped), failed=VALUES(failed),
 status=VALUES(status), message=VALUES(message);
`
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, started.UTC(), nullTime(run.FinishedAt), run.Model,
		run.Listed, run.Moved, run.Skipped, run.Failed,
		stringOrDash(string(run.Status)), run.Message,
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
		e.MediaType, e.Model, stringOrDash(string(e.Status)), e.Stage, e.Reason, e.CreatedAt.UTC(),
	)
	return err
}

// LatestRuns newest first
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

// GetRun by ID
func (r *JournalRepository) GetRun(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM organizer_runs WHERE id=? LIMIT 1;`, id)
	return scanRun(row)
}

func (r *JournalRepository) EntriesByRun(ctx context.Context, id domain.RunID) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM organizer_entries WHERE run_id=? ORDER BY seq ASC;`, id)
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
		`SELECT `+entryColumns+` FROM organizer_entries ORDER BY seq DESC LIMIT ? OFFSET ?;`,
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
