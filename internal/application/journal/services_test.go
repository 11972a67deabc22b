package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenRepo struct {
	domain.Repository
	lastLimit int
	lastPage  [2]int
}

func (b *brokenRepo) SaveRun(context.Context, *domain.Run) error     { return errors.New("disk full") }
func (b *brokenRepo) SaveEntry(context.Context, *domain.Entry) error { return errors.New("disk full") }

func (b *brokenRepo) LatestRuns(_ context.Context, limit int) ([]*domain.Run, error) {
	b.lastLimit = limit
	return nil, nil
}

func (b *brokenRepo) PaginateEntries(_ context.Context, page, size int) ([]*domain.Entry, error) {
	b.lastPage = [2]int{page, size}
	return nil, nil
}

func TestRecord_SwallowsErrors(t *testing.T) {
	svc := NewService(&brokenRepo{})
	assert.NotPanics(t, func() {
		svc.RecordRun(context.Background(), &domain.Run{ID: "r"})
		svc.RecordEntry(context.Background(), &domain.Entry{ID: "e"})
	})
}

func TestLatestRuns_ClampsLimit(t *testing.T) {
	repo := &brokenRepo{}
	svc := NewService(repo)

	_, _ = svc.LatestRuns(context.Background(), 0)
	assert.Equal(t, defaultLimit, repo.lastLimit)
	_, _ = svc.LatestRuns(context.Background(), 5000)
	assert.Equal(t, maxLimit, repo.lastLimit)
}

func TestEntries_Defaults(t *testing.T) {
	repo := &brokenRepo{}
	page, err := NewService(repo).Entries(context.Background(), -1, 0)
	require.NoError(t, err)

	assert.Equal(t, [2]int{1, defaultPageSize}, repo.lastPage)
	assert.Equal(t, 1, page.Page)
	assert.NotNil(t, page.Data)
}

func TestService_RoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := sqlite.NewJournalRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	svc := NewService(repo)
	now := time.Now()
	svc.RecordRun(ctx, &domain.Run{ID: "run-1", StartedAt: now, Status: domain.RunCompleted, Moved: 1})
	svc.RecordEntry(ctx, &domain.Entry{ID: "e1", RunID: "run-1", FileID: "f1", OriginalName: "notes.txt", Status: domain.StatusMoved, CreatedAt: now})

	runs, err := svc.LatestRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Moved)

	entries, err := svc.EntriesByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].OriginalName)
}
