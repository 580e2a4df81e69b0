package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/pipeline"
	"github.com/likexin0304/expense-tracker-backend/internal/recognition"
	repo "github.com/likexin0304/expense-tracker-backend/internal/repository"
)

func main() {
	var (
		text       = flag.String("text", "", "OCR text to recognize; reads stdin when empty")
		owner      = flag.String("owner", "", "owner UUID the record belongs to")
		autoCreate = flag.Bool("auto-create", false, "create the expense automatically when confidence allows")
		threshold  = flag.Float64("threshold", 0, "auto-create threshold override; 0 uses the configured default")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ownerID, err := uuid.Parse(*owner)
	if err != nil {
		logger.Error("invalid -owner, expected a UUID", "error", err)
		os.Exit(1)
	}

	input := *text
	if input == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("failed to read stdin", "error", err)
			os.Exit(1)
		}
		input = string(raw)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	records := repo.NewRecordRepository(pool, logger)
	merchants := repo.NewMerchantRepository(pool, logger)
	expenses := repo.NewExpenseRepository(pool, logger)

	m := buildMatcher(cfg, pool, merchants, logger)

	scoring := parser.DefaultScoring()
	scoring.MinTextLength = cfg.Recognition.MinTextLength
	p := pipeline.New(scoring, m, logger)

	svc := recognition.NewService(records, merchants, expenses, p, m, recognition.Config{
		AutoCreateThreshold:   cfg.Recognition.AutoCreateThreshold,
		ReviewThreshold:       cfg.Recognition.ReviewThreshold,
		SuggestThreshold:      cfg.Recognition.SuggestThreshold,
		MerchantMinConfidence: cfg.Recognition.MerchantMinConfidence,
		MerchantMaxResults:    cfg.Recognition.MerchantMaxResults,
	}, logger)

	ctx = common.WithRequestID(ctx, uuid.NewString())

	var out any
	if *autoCreate {
		out, err = svc.ParseAndAutoCreate(ctx, ownerID, input, *threshold)
	} else {
		out, err = svc.Parse(ctx, ownerID, input)
	}
	if err != nil {
		logger.Error("recognition failed", "code", common.ErrorCode(err), "error", err)
		os.Exit(exitCode(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCode maps the error classification onto the process exit status:
// rejected input exits 2, missing records exit 3, anything else 1.
func exitCode(err error) int {
	switch status.Code(common.GRPCStatus(err)) {
	case codes.InvalidArgument:
		return 2
	case codes.NotFound:
		return 3
	default:
		return 1
	}
}

// buildMatcher prefers the Postgres trigram matcher with an in-process
// fallback, so a missing pg_trgm extension degrades instead of failing.
func buildMatcher(cfg *common.Config, pool *pgxpool.Pool, merchants repo.MerchantRepository, logger *slog.Logger) matcher.Matcher {
	scorer := matcher.NewScorer(merchants, logger)
	if !cfg.Recognition.UseTrigramMatcher {
		return scorer
	}
	return matcher.WithFallback(matcher.NewPGTrgm(pool, logger), scorer, logger)
}
