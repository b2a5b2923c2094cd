package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/escotilha/nuvini-ai-fpa/internal/app"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
	"github.com/escotilha/nuvini-ai-fpa/internal/platform/cache"
	"github.com/escotilha/nuvini-ai-fpa/internal/platform/db"
	"github.com/escotilha/nuvini-ai-fpa/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	repo := consol.NewRepository(pool)
	summaryCache := consol.NewRedisSummaryCache(redisClient, cfg.SummaryCacheTTL)
	service := consol.NewService(cfg.ConsolConfig(), repo, repo, repo, summaryCache, logger)
	runJob := jobs.NewConsolidationRunJob(service, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		RunJob:    runJob,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
