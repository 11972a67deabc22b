package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *JournalRepository {
	t.Helper()
	db, err := Connect(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewJournalRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := newRepo(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestSaveRun_Upserts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := &domain.Run{ID: "run-1", StartedAt: start, Status: domain.RunRunning}
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())

	run.Model = "models/gemini-1.5-flash"
	run.Moved = 3
	run.Skipped = 1
	run.Status = domain.RunCompleted
	run.FinishedAt = start.Add(time.Minute)
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err = repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, 3, got.Moved)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, "models/gemini-1.5-flash", got.Model)
	assert.WithinDuration(t, start.Add(time.Minute), got.FinishedAt, time.Second)
	assert.WithinDuration(t, start, got.StartedAt, time.Second)
}

func TestGetRun_Missing(t *testing.T) {
	_, err := newRepo(t).GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLatestRuns_NewestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.SaveRun(ctx, &domain.Run{
			ID:        domain.RunID(fmt.Sprintf("run-%d", i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Status:    domain.RunCompleted,
		}))
	}

	runs, err := repo.LatestRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, domain.RunID("run-2"), runs[0].ID)
	assert.Equal(t, domain.RunID("run-1"), runs[1].ID)
}

func TestEntries(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		run := domain.RunID("run-a")
		if i >= 3 {
			run = "run-b"
		}
		require.NoError(t, repo.SaveEntry(ctx, &domain.Entry{
			ID:           fmt.Sprintf("e-%d", i),
			RunID:        run,
			FileID:       fmt.Sprintf("file-%d", i),
			OriginalName: fmt.Sprintf("f%d.txt", i),
			FinalName:    "Renamed",
			Category:     "Personal",
			MediaType:    "text/plain",
			Status:       domain.StatusMoved,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	byRun, err := repo.EntriesByRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, byRun, 3)
	assert.Equal(t, "e-0", byRun[0].ID)
	assert.Equal(t, "Personal", byRun[0].Category)
	assert.Equal(t, domain.StatusMoved, byRun[0].Status)

	page1, err := repo.PaginateEntries(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "e-4", page1[0].ID)

	page3, err := repo.PaginateEntries(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "e-0", page3[0].ID)
}
