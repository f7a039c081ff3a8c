package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/detailflow/internal/config"
	"github.com/JonMunkholm/detailflow/internal/core"
	_ "github.com/JonMunkholm/detailflow/internal/core/kinds" // register import kinds
	"github.com/JonMunkholm/detailflow/internal/lock"
	"github.com/JonMunkholm/detailflow/internal/logging"
	"github.com/JonMunkholm/detailflow/internal/metrics"
	"github.com/JonMunkholm/detailflow/internal/store"
	"github.com/JonMunkholm/detailflow/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Overload so a local .env wins over stale shell exports.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"redis", cfg.Redis.URL != "",
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	locker, closeLocker, err := newLocker(ctx, cfg, pool)
	if err != nil {
		slog.Error("failed to set up import lock", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := core.NewService(
		store.NewImporter(pool),
		store.NewHistory(pool),
		locker,
		metrics.NewImportMetrics(reg),
		core.Options{
			MaxFileSize:   cfg.Import.MaxFileSize,
			MaxConcurrent: cfg.Import.MaxConcurrent,
			MaxWait:       cfg.Import.MaxWaitTime,
			CommitTimeout: cfg.Import.Timeout,
			PreviewLimit:  cfg.Import.PreviewLimit,
			LockTTL:       cfg.Redis.LockTTL,
		},
	)
	slog.Info("import kinds registered", "kinds", strings.Join(core.Keys(), ","))

	server := web.NewServer(service, cfg, reg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, core.SweepConfig{
		TTL:      cfg.Import.SessionTTL,
		Interval: cfg.Import.SweepInterval,
	})
	go server.RunMaintenance(jobCtx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		if err := service.WaitForImports(shutdownCtx); err != nil {
			slog.Warn("imports did not finish in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

// newLocker prefers Redis when configured and falls back to Postgres
// advisory locks, which still serialize commits across replicas.
func newLocker(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (lock.Locker, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Info("import lock backend", "backend", "postgres")
		return lock.NewPGLocker(pool), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	slog.Info("import lock backend", "backend", "redis", "ttl", cfg.Redis.LockTTL)
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL), func() { _ = client.Close() }, nil
}
