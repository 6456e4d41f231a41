package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lorkus/scholarledger/internal/adapters/feed"
	"github.com/lorkus/scholarledger/internal/adapters/http/api"
	"github.com/lorkus/scholarledger/internal/adapters/http/swagger"
	"github.com/lorkus/scholarledger/internal/adapters/repository"
	app "github.com/lorkus/scholarledger/internal/app"
	"github.com/lorkus/scholarledger/internal/config"
	"github.com/lorkus/scholarledger/internal/domain/aggregate"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/internal/domain/scoring"
	"github.com/lorkus/scholarledger/internal/scheduler"
	"github.com/lorkus/scholarledger/pkg/logger"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
	logMaxSizeMB           = 100
	logMaxAgeDays          = 14
)

func main() {
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(context.Background())
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON), logger.WithFile(cfg.LogFile, logMaxSizeMB, logMaxAgeDays)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open season record store", logger.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	svc := newService(cfg, store, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop(context.Background())

	sched, err := scheduler.New(svc, time.Duration(cfg.RefreshIntervalS)*time.Second)
	if err != nil {
		log.Error(ctx, "failed to create scheduler", logger.Error(err))
		return
	}
	if err := sched.Start(ctx); err != nil {
		log.Error(ctx, "failed to start scheduler", logger.Error(err))
		return
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newStore opens PostgreSQL when a database url is configured and falls back
// to the in-memory store otherwise.
func newStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemoryStore(ctx), nil
	}
	return repository.NewPostgresStore(ctx, cfg.DatabaseURL)
}

func newService(cfg *config.Config, store repository.Store, log logger.Logger) *app.Service {
	client := feed.New(
		feed.WithBaseURL(cfg.FeedBaseURL),
		feed.WithPriceURL(cfg.PriceURL),
		feed.WithTimeout(time.Duration(cfg.FeedTimeoutMS)*time.Millisecond),
		feed.WithRateLimit(cfg.FeedRPS, cfg.FeedBurst),
		feed.WithPageSize(cfg.FeedPageSize),
	)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithFeed(client),
		app.WithStore(store),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithAggregator(aggregate.New(
			aggregate.WithRankedCategories(cfg.RankedCategories),
			aggregate.WithBrawlCategories(cfg.BrawlCategories),
		)),
		app.WithSanitizer(pricing.NewSanitizer(pricing.WithCeilings(cfg.PriceCeilings))),
		app.WithRegistry(scoring.NewRegistry(cfg.PointSchemes...)),
		app.WithPayoutDefaults(cfg.ScholarPct, cfg.PayoutCurrency),
		app.WithMaxLeaderboardRows(cfg.MaxLeaderboardRows),
	)
}

func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and record gauges. GetStats
// updates them as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
