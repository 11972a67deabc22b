package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/automaton-organizer/internal/application"
	appai "github.com/bryanwahyu/automaton-organizer/internal/application/ai"
	"github.com/bryanwahyu/automaton-organizer/internal/application/extract"
	appjournal "github.com/bryanwahyu/automaton-organizer/internal/application/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/application/organize"
	"github.com/bryanwahyu/automaton-organizer/internal/config"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
	"github.com/bryanwahyu/automaton-organizer/internal/domain/files"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/ai/gemini"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/storage"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/storage/gdrive"
	"github.com/bryanwahyu/automaton-organizer/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// path config: -config, lalu CONFIG_PATH, lalu config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	flag.StringVar(&path, "config", path, "path to config file")
	dryRun := flag.Bool("dry-run", false, "log proposals without renaming or moving anything")
	flag.Parse()

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return 1
	}
	if *dryRun {
		cfg.Run.DryRun = true
	}
	logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("storage init error", "backend", cfg.Storage.Backend, "error", err)
		return 1
	}

	client := newAIClient(cfg.AI)
	tmpl, err := prompt.LoadInstruction(cfg.AI.PromptFile)
	if err != nil {
		slog.Error("prompt init error", "error", err)
		return 1
	}
	if cfg.Extract.RedactSecrets {
		tmpl.Redactor = prompt.NewRedactor()
	}

	analyzer := appai.NewService(client, tmpl)
	analyzer.Temperature = cfg.AI.Temperature
	analyzer.MaxOutputTokens = cfg.AI.MaxOutputTokens

	extractor := extract.New(store)
	extractor.PlainTextLimit = cfg.Extract.PlainTextLimit
	extractor.DocumentLimit = cfg.Extract.DocumentLimit
	extractor.TempPrefix = cfg.Extract.TempPrefix

	org := &organize.Organizer{
		Store:     store,
		Selector:  appai.NewSelector(client, cfg.AI.ModelFamily),
		Analyzer:  analyzer,
		Extractor: extractor,
		Clock:     application.SystemClock{},
		Sleeper:   application.SystemSleeper{},
		Config: organize.Config{
			SourceID:    cfg.Storage.SourceFolderID,
			DestID:      cfg.Storage.DestinationFolderID,
			Delay:       cfg.Run.Delay,
			MaxDuration: cfg.Run.MaxDuration,
			MaxFiles:    cfg.Run.MaxFiles,
			DryRun:      cfg.Run.DryRun,
		},
	}

	// journal opsional; kalau gagal connect, tetap jalan tanpa audit trail
	conn, repo, err := db.Open(ctx, cfg.Journal)
	switch {
	case errors.Is(err, db.ErrDisabled):
	case err != nil:
		slog.Warn("journal unavailable, continuing without it", "driver", cfg.Journal.Driver, "error", err)
	default:
		defer conn.Close()
		org.Journal = appjournal.NewService(repo)
	}

	slog.Info("organizer starting",
		"backend", cfg.Storage.Backend,
		"provider", cfg.AI.Provider,
		"source", cfg.Storage.SourceFolderID,
		"destination", cfg.Storage.DestinationFolderID,
		"dry_run", cfg.Run.DryRun,
	)

	sum, err := org.Run(ctx)
	if err != nil {
		slog.Error("run aborted", "run_id", sum.RunID, "error", err)
		return 1
	}

	attrs := []any{
		"run_id", sum.RunID,
		"model", sum.Model,
		"listed", sum.Listed,
		"moved", sum.Moved,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"planned", sum.Planned,
		"orphans", sum.Orphans,
		"interrupted", sum.Interrupted,
	}
	if tmpl.Redactor != nil {
		attrs = append(attrs, "redactions", tmpl.Redactor.Hits)
	}
	slog.Info("organizer finished", attrs...)
	return 0
}

func newStore(ctx context.Context, cfg config.Storage) (files.Store, error) {
	switch cfg.Backend {
	case "bucket":
		return storage.New(ctx,
			cfg.Bucket.Endpoint,
			cfg.Bucket.Region,
			cfg.Bucket.Bucket,
			cfg.Bucket.AccessKey,
			cfg.Bucket.SecretKey,
			cfg.Bucket.UseSSL,
		)
	default:
		return gdrive.New(ctx, cfg.Drive.CredentialsFile, cfg.Drive.SharedDrives)
	}
}

func newAIClient(cfg config.AI) ai.Client {
	if cfg.Provider == "openai" {
		return openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	}
	return gemini.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
}
