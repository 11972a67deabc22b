package journal

import (
	"context"
	"log/slog"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

const (
	defaultLimit    = 20
	maxLimit        = 100
	defaultPageSize = 20
)

// Service wraps the repository for the organizer (write side) and the API
// (read side). Write failures are logged and dropped.
type Service struct {
	Repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{Repo: repo}
}

// RecordRun upserts the run row.
func (s *Service) RecordRun(ctx context.Context, r *domain.Run) {
	if err := s.Repo.SaveRun(ctx, r); err != nil {
		slog.Warn("journal: could not save run", "run_id", r.ID, "error", err)
	}
}

func (s *Service) RecordEntry(ctx context.Context, e *domain.Entry) {
	if err := s.Repo.SaveEntry(ctx, e); err != nil {
		slog.Warn("journal: could not save entry", "run_id", e.RunID, "file_id", e.FileID, "error", err)
	}
}

// LatestRuns → run terbaru, limit di-clamp ke [1, 100]
func (s *Service) LatestRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.Repo.LatestRuns(ctx, limit)
}

func (s *Service) GetRun(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	return s.Repo.GetRun(ctx, id)
}

func (s *Service) EntriesByRun(ctx context.Context, id domain.RunID) ([]*domain.Entry, error) {
	return s.Repo.EntriesByRun(ctx, id)
}

// Entries returns one page of entries, newest first.
func (s *Service) Entries(ctx context.Context, page, pageSize int) (domain.Page, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxLimit {
		pageSize = maxLimit
	}
	data, err := s.Repo.PaginateEntries(ctx, page, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	if data == nil {
		data = []*domain.Entry{}
	}
	return domain.Page{Data: data, Page: page, PageSize: pageSize}, nil
}
