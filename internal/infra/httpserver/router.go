package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appjournal "github.com/bryanwahyu/automaton-organizer/internal/application/journal"
	domain "github.com/bryanwahyu/automaton-organizer/internal/domain/journal"
	"github.com/bryanwahyu/automaton-organizer/internal/middleware"
)

// Options configures the cross-cutting middleware around the journal API.
type Options struct {
	APIKeys     []string
	RateLimit   float64 // requests per second per key, 0 disables
	RateBurst   int
	CORSOrigins []string
	Checks      map[string]middleware.HealthChecker
}

type Router struct {
	journal *appjournal.Service
}

// badRequest marks input errors so wrap answers 400 instead of 500.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func NewRouter(journal *appjournal.Service, opts Options) http.Handler {
	r := &Router{journal: journal}
	mux := chi.NewRouter()

	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateBurst))

	mux.Get("/health", middleware.HealthHandler(opts.Checks))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checks))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/runs/latest", r.wrap(r.handleLatestRuns))
		rt.Get("/runs/{id}", r.wrap(r.handleGetRun))
		rt.Get("/runs/{id}/entries", r.wrap(r.handleRunEntries))
		rt.Get("/entries", r.wrap(r.handleEntries))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		middleware.IncrementJournalQueries()
		err := h(w, req)
		if err == nil {
			return
		}
		var bad badRequest
		switch {
		case errors.As(err, &bad):
			http.Error(w, bad.Error(), http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			middleware.IncrementJournalErrors()
			slog.Error("journal query failed", "path", req.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func runID(req *http.Request) (domain.RunID, error) {
	id := middleware.SanitizeString(chi.URLParam(req, "id"))
	if err := middleware.ValidateRunID(id); err != nil {
		return "", badRequest{err}
	}
	return domain.RunID(id), nil
}

// GET /v1/runs/latest?limit=20
func (r *Router) handleLatestRuns(w http.ResponseWriter, req *http.Request) error {
	limit, err := middleware.QueryInt(req, "limit")
	if err != nil {
		return badRequest{err}
	}

	runs, err := r.journal.LatestRuns(req.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	return writeJSON(w, runs)
}

// GET /v1/runs/{id}
func (r *Router) handleGetRun(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}

	run, err := r.journal.GetRun(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, run)
}

// GET /v1/runs/{id}/entries
func (r *Router) handleRunEntries(w http.ResponseWriter, req *http.Request) error {
	id, err := runID(req)
	if err != nil {
		return err
	}

	// 404 kalau run-nya tidak ada, bukan list kosong
	if _, err := r.journal.GetRun(req.Context(), id); err != nil {
		return err
	}
	entries, err := r.journal.EntriesByRun(req.Context(), id)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return writeJSON(w, entries)
}

// GET /v1/entries?page=&page_size=
func (r *Router) handleEntries(w http.ResponseWriter, req *http.Request) error {
	page, err := middleware.QueryInt(req, "page")
	if err != nil {
		return badRequest{err}
	}
	size, err := middleware.QueryInt(req, "page_size")
	if err != nil {
		return badRequest{err}
	}

	p, err := r.journal.Entries(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, p)
}
