package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-organizer/internal/config"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
)

func TestOpen_Disabled(t *testing.T) {
	_, _, err := Open(context.Background(), config.Journal{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.Journal{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpen_SQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	conn, repo, err := Open(ctx, config.Journal{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, repo.SaveRun(ctx, &journal.Run{ID: "r1", StartedAt: time.Now(), Status: journal.RunRunning}))
	got, err := repo.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, journal.RunRunning, got.Status)
}
