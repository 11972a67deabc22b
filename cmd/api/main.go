package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appjournal "github.com/bryanwahyu/automaton-organizer/internal/application/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/config"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/db"
	"github.com/bryanwahyu/automaton-organizer/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-organizer/internal/logging"
	"github.com/bryanwahyu/automaton-organizer/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	flag.StringVar(&path, "config", path, "path to config file")
	flag.Parse()

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logging.New(cfg.Log)

	ctx := context.Background()

	// API ini cuma baca journal, jadi journal wajib ada
	conn, repo, err := db.Open(ctx, cfg.Journal)
	if err != nil {
		slog.Error("journal open error", "driver", cfg.Journal.Driver, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	handler := httpserver.NewRouter(appjournal.NewService(repo), httpserver.Options{
		APIKeys:     cfg.Server.APIKeys,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		CORSOrigins: cfg.Server.CORSOrigins,
		Checks: map[string]middleware.HealthChecker{
			"journal": &middleware.DatabaseHealthChecker{DB: conn},
		},
	})
	if len(cfg.Server.APIKeys) == 0 {
		slog.Warn("server.api_keys is empty, API is unauthenticated")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
