package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"budget_backend/internal/app/di"
	"budget_backend/internal/platform/config"
	infradb "budget_backend/internal/platform/db"
	infraredis "budget_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	config.LoadDotEnv(".env")

	cfg, err := config.LoadConfigFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DevMode {
		slog.Warn("running in development mode; OTP codes are echoed in responses")
	}

	// db
	dbCfg := infradb.LoadConfigFromEnv()
	db, err := infradb.OpenDB(dbCfg)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if dbCfg.Migrate || dbCfg.Driver == infradb.DriverSQLite {
		if err := di.Migrate(db); err != nil {
			slog.Error("failed to migrate", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrated")
	}

	// Redis
	var rdb *redisv9.Client
	if redisCfg := infraredis.LoadConfigFromEnv(); redisCfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(redisCfg); err != nil {
			slog.Warn("Redis unavailable. Falling back to database revocation list and in-memory rate limits.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	router, err := di.NewServer(cfg, db, rdb, di.Overrides{})
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
