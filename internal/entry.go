// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/agencyhub/internal/api"
	"github.com/starford/agencyhub/internal/dashboard"
	"github.com/starford/agencyhub/internal/frameworks"
	"github.com/starford/agencyhub/internal/mcpserver"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{version: "dev", logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("embedding_provider", cfg.AI.Embedding.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := newRuntime(ctx, cfg, broker)
	if err != nil {
		return err
	}
	defer rt.Close()

	apiRouter := api.NewRouter(rt.apiServices(), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
	r.Get("/health/ready", readyHandler(rt.db))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Import and watch the framework directory.
	if dir := cfg.Frameworks.WatchDir; dir != "" {
		g.Go(func() error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create frameworks dir: %w", err)
			}
			err := rt.frameworks.Watch(gCtx, dir, logger, func(rep frameworks.ImportReport) {
				logger.Info("frameworks imported",
					slog.Int("created", rep.Created),
					slog.Int("updated", rep.Updated),
					slog.Int("removed", rep.Removed),
					slog.Int("failed", rep.Failed))
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("framework watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Wait for a signal or a failed goroutine, then shut down.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never finish on their own; closing the broker ends them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func readyHandler(db *store.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			slog.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// RunMCP serves the MCP tools over stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, app.config, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting MCP server on stdio", slog.String("version", app.version))
	return mcpserver.New(rt.mcpDeps(), app.version).ServeStdio()
}

// ImportFrameworks imports every Markdown file under dir once.
func ImportFrameworks(ctx context.Context, dir string, opts ...Option) (frameworks.ImportReport, error) {
	app, _, err := setup(opts)
	if err != nil {
		return frameworks.ImportReport{}, err
	}
	rt, err := newRuntime(ctx, app.config, nil)
	if err != nil {
		return frameworks.ImportReport{}, err
	}
	defer rt.Close()
	return rt.frameworks.ImportDir(ctx, dir)
}

// Spend returns the AI spend rollup for [from, to).
func Spend(ctx context.Context, group store.SpendGroup, from, to time.Time, opts ...Option) (*dashboard.SpendReport, error) {
	app, _, err := setup(opts)
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(ctx, app.config, nil)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.dashboard.Spend(ctx, group, from, to)
}
