// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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
	"golang.org/x/sync/errgroup"

	"github.com/starford/notelookup/internal/api"
	"github.com/starford/notelookup/internal/github"
	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/lookup"
	"github.com/starford/notelookup/internal/mcpserver"
	"github.com/starford/notelookup/internal/noteservice"
	"github.com/starford/notelookup/internal/resolver"
	"github.com/starford/notelookup/internal/sse"
)

// Version is reported by the MCP server.
const Version = "1.0.0"

// stack is the wired lookup pipeline shared by every entry point.
type stack struct {
	lookups *lookup.Service
	history *history.DB
}

func (s *stack) Close() {
	if s.history != nil {
		_ = s.history.Close()
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newStack wires the repository client, the note service, the history
// database and the lookup service.
func newStack(app *application, logger *slog.Logger, lookupOpts ...lookup.Option) (*stack, error) {
	cfg := app.config

	git := app.git
	if git == nil {
		client, err := github.New(github.Options{
			Token:   cfg.Repository.Token,
			BaseURL: cfg.Repository.APIURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init github client: %w", err)
		}
		git = client
	}

	notes := noteservice.New(
		resolver.New(git, cfg.Repository.Coordinates()),
		noteservice.WithHost(cfg.Repository.Host),
		noteservice.WithRootConfigPath(cfg.Repository.RootConfig),
	)

	s := &stack{}
	opts := []lookup.Option{lookup.WithLogger(logger)}
	if cfg.History.Enabled() {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("init history: %w", err)
		}
		s.history = db
		opts = append(opts, lookup.WithRecorder(db))
	}
	s.lookups = lookup.NewService(notes, append(opts, lookupOpts...)...)
	return s, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("owner", cfg.Repository.Owner),
		slog.String("repo", cfg.Repository.Name),
		slog.String("branch", cfg.Repository.Branch),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	st, err := newStack(app, logger, lookup.WithListener(broker.PublishLookup))
	if err != nil {
		return err
	}
	defer st.Close()

	var hist api.HistoryReader
	if st.history != nil {
		hist = st.history
	}
	apiRouter := api.NewRouter(st.lookups, hist, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", readyHandler(st.lookups))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

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
		defer signal.Stop(quit)

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

// readyHandler reports ready once the root configuration can be resolved.
func readyHandler(lookups *lookup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := lookups.RootConfig(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, app.config.App.LogLevel)
	slog.SetDefault(logger)

	st, err := newStack(app, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var hist mcpserver.HistoryReader
	if st.history != nil {
		hist = st.history
	}
	srv := mcpserver.New(st.lookups, hist, Version)

	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// Lookup resolves a single note and writes its cards as text.
func Lookup(ctx context.Context, name string, mode lookup.Mode, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	st, err := newStack(app, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.lookups.Lookup(ctx, name, mode)
	if err != nil {
		return fmt.Errorf("%s: %w", lookup.UserMessage(name, err), err)
	}
	_, err = io.WriteString(app.out, lookup.Text(res.Cards))
	return err
}
