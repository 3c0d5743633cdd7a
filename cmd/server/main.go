package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-academy/internal/api"
	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/enrollment"
	"github.com/p-n-ai/pai-academy/internal/learning"
	"github.com/p-n-ai/pai-academy/internal/plan"
	"github.com/p-n-ai/pai-academy/internal/platform/cache"
	"github.com/p-n-ai/pai-academy/internal/platform/config"
	"github.com/p-n-ai/pai-academy/internal/platform/database"
	"github.com/p-n-ai/pai-academy/internal/platform/metrics"
	"github.com/p-n-ai/pai-academy/internal/progress"
	"github.com/p-n-ai/pai-academy/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "progress_backend", cfg.Progress.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		a.close()
		os.Exit(1)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	cfg := &config.Config{Log: lc}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(lc.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newApp connects the configured backends and assembles the HTTP handler.
// Anything opened before a failure is closed again.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	h, err := a.build(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.handler = h
	return a, nil
}

func (a *app) build(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	checks := map[string]api.HealthChecker{}

	var (
		db  *database.DB
		err error
	)
	if cfg.NeedsDatabase() || cfg.Database.URL != "" {
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db.Pool); err != nil {
				return nil, err
			}
			slog.Info("database schema applied")
		}
	}

	var kv *cache.Cache
	if cfg.Progress.Backend == config.BackendRedis || cfg.Cache.URL != "" {
		kv, err = cache.New(ctx, cfg.Cache.URL, cache.Options{PoolSize: cfg.Cache.PoolSize})
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() { kv.Close() })
		checks["cache"] = kv
	}

	var store progress.Store
	switch cfg.Progress.Backend {
	case config.BackendPostgres:
		store, err = progress.NewPostgresStore(db.Pool)
	case config.BackendRedis:
		store, err = progress.NewRedisStore(kv.Client)
	default:
		store = progress.NewMemoryStore()
	}
	if err != nil {
		return nil, fmt.Errorf("creating progress store: %w", err)
	}

	catalog, err := course.NewCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	plans, err := plan.Load(cfg.PlansPath)
	if err != nil {
		return nil, err
	}

	var checker enrollment.Checker = enrollment.OpenChecker{}
	if cfg.Enrollment.Mode == config.EnrollmentDatabase {
		checker, err = enrollment.NewPostgresChecker(db.Pool, plans)
		if err != nil {
			return nil, fmt.Errorf("creating enrollment checker: %w", err)
		}
	}

	var events learning.EventLogger = learning.NopEventLogger{}
	if db != nil {
		events = learning.NewPostgresEventLogger(db.Pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(reg)

	sessions, err := session.NewHandler(session.Config{
		Courses:         catalog,
		Store:           store,
		Enrollment:      checker,
		Events:          events,
		QuizPassPercent: cfg.Quiz.PassPercent,
		OriginPatterns:  cfg.WebSocket.Origins,
	})
	if err != nil {
		return nil, err
	}

	return api.NewMux(api.Deps{
		Courses:    catalog,
		Plans:      plans,
		Store:      store,
		Sessions:   sessions,
		Gatherer:   reg,
		Checks:     checks,
		AdminToken: cfg.AdminToken,
	}), nil
}
