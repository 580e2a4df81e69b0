package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/internal/async"
	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/pipeline"
	"github.com/likexin0304/expense-tracker-backend/internal/recognition"
	repo "github.com/likexin0304/expense-tracker-backend/internal/repository"
)

// recognize-batch reads one OCR text per line and runs them through the
// worker queue. Blank lines are skipped. Results land in ocr_records.
func main() {
	var (
		owner      = flag.String("owner", "", "owner UUID the records belong to")
		file       = flag.String("file", "", "input file; reads stdin when empty")
		autoCreate = flag.Bool("auto-create", false, "auto-create expenses for high-confidence parses")
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

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("failed to open input file", "path", *file, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
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

	scorer := matcher.NewScorer(merchants, logger)
	var m matcher.Matcher = scorer
	if cfg.Recognition.UseTrigramMatcher {
		m = matcher.WithFallback(matcher.NewPGTrgm(pool, logger), scorer, logger)
	}

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

	queue := async.NewRecognizerQueue(svc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	submitted := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		_ = queue.Enqueue(ctx, async.Job{
			OwnerID:     ownerID,
			Text:        line,
			AutoCreate:  *autoCreate,
			SubmittedAt: time.Now(),
			TraceID:     uuid.NewString(),
		})
		submitted++
	}
	if err := scanner.Err(); err != nil {
		logger.Error("failed to read input", "error", err)
	}

	logger.Info("batch submitted, draining queue", "count", submitted)
	queue.Shutdown(context.Background())
}
