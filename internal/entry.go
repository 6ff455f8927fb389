// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/api"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/mcpserver"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/sse"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

// newLogger builds a slog.Logger according to the configured format.
// Console format uses tint with colors when stdout is a terminal.
func newLogger(cfg *Config) *slog.Logger {
	if cfg.App.LogFormat == LogFormatConsole {
		useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		return slog.New(tint.NewHandler(colorable.NewColorable(os.Stdout), &tint.Options{
			Level:   cfg.App.LogLevel,
			NoColor: !useColor,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// setup initializes storage, the SQLite index and the catalog service
// shared by all commands.
func setup(cfg *Config, logger *slog.Logger) (storage.Provider, *index.DB, *catalog.Service, error) {
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create content dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	linter := lint.New(cfg.Lint.ExtraLanguages...)
	svc := catalog.NewService(store, db, linter)
	return store, db, svc, nil
}

// Run starts the HTTP server and file watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, db, svc, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker; catalog.updated events are throttled.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Content.Path)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, cfg.Content.Path, logger, func(kind, slug string) {
			broker.PublishRecipeEvent(kind, slug)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunLint performs a one-shot lint and writes the report to out. With no
// slugs the whole corpus is checked, otherwise only the named recipes.
// With jsonOut the report is emitted as JSON, otherwise as one line per
// finding. Returns lint.ErrFindings when any finding has error severity.
func RunLint(ctx context.Context, cfg *Config, out io.Writer, jsonOut bool, slugs []string) error {
	logger := newLogger(cfg)

	_, db, svc, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var report *lint.Report
	if len(slugs) == 0 {
		report, err = svc.LintCorpus(ctx)
		if err != nil {
			return fmt.Errorf("lint corpus: %w", err)
		}
	} else {
		report = &lint.Report{Findings: []lint.Finding{}}
		for _, sl := range slugs {
			findings, err := svc.LintRecipe(ctx, sl)
			if err != nil {
				return fmt.Errorf("lint %s: %w", sl, err)
			}
			report.Checked++
			report.Findings = append(report.Findings, findings...)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, f := range report.Findings {
			if f.Line > 0 {
				fmt.Fprintf(out, "%s:%d: %s: %s [%s]\n", f.Path, f.Line, f.Severity, f.Message, f.Rule)
			} else {
				fmt.Fprintf(out, "%s: %s: %s [%s]\n", f.Path, f.Severity, f.Message, f.Rule)
			}
		}
		fmt.Fprintf(out, "%d files checked, %d errors, %d warnings\n",
			report.Checked, report.Errors(), report.Warnings())
	}

	if report.HasErrors() {
		return lint.ErrFindings
	}
	return nil
}

// RunMCP starts the MCP server on stdin/stdout. Logs go to stderr so
// they cannot corrupt the protocol stream.
func RunMCP(_ context.Context, cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	store, db, svc, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(svc, store)
	logger.Info("Starting MCP server on stdio")
	return srv.ServeStdio()
}
