package journal

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	EnsureSchema(ctx context.Context) error

	SaveRun(ctx context.Context, r *Run) error
	SaveEntry(ctx context.Context, e *Entry) error

	LatestRuns(ctx context.Context, limit int) ([]*Run, error)
	// GetRun returns sql.ErrNoRows when the run does not exist.
	GetRun(ctx context.Context, id RunID) (*Run, error)
	EntriesByRun(ctx context.Context, id RunID) ([]*Entry, error)
	PaginateEntries(ctx context.Context, page, pageSize int) ([]*Entry, error)
}
