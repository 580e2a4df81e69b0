package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/likexin0304/expense-tracker-backend/internal/common"
	repo "github.com/likexin0304/expense-tracker-backend/internal/repository"
)

// dbhealth opens the pool, pings the database and exits. Intended as a
// container healthcheck or a smoke test after applying db/schema.sql.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
		MaxConnIdleTime: time.Minute,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database unhealthy", "error", err)
		os.Exit(1)
	}
	logger.Info("database healthy")
}
