package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bryanwahyu/automaton-organizer/internal/config"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db/mysql"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db/sqlite"
)

// ErrDisabled is returned by Open when no journal driver is configured.
var ErrDisabled = errors.New("journal disabled")

// Open connects the configured journal database and makes sure its tables exist.
func Open(ctx context.Context, cfg config.Journal) (*sql.DB, journal.Repository, error) {
	var (
		conn *sql.DB
		repo journal.Repository
		err  error
	)
	switch cfg.Driver {
	case "":
		return nil, nil, ErrDisabled
	case "sqlite":
		if conn, err = sqlite.Connect(ctx, cfg.DSN()); err == nil {
			repo = sqlite.NewJournalRepository(conn)
		}
	case "mysql":
		if conn, err = mysql.Connect(ctx, cfg.DSN()); err == nil {
			repo = mysql.NewJournalRepository(conn)
		}
	case "postgres":
		if conn, err = postgres.Connect(ctx, cfg.DSN()); err == nil {
			repo = postgres.NewJournalRepository(conn)
		}
	default:
		return nil, nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%s schema: %w", cfg.Driver, err)
	}
	return conn, repo, nil
}
