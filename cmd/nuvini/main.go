package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/escotilha/nuvini-ai-fpa/cmd/nuvini/cli"
	"github.com/escotilha/nuvini-ai-fpa/internal/app"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
	consolhttp "github.com/escotilha/nuvini-ai-fpa/internal/consol/http"
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

	if len(os.Args) > 1 && os.Args[1] == "fx-import" {
		os.Exit(runFXImport(ctx, cfg, logger, os.Args[2:]))
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The run store stays authoritative, so a missing cache only costs reads.
		logger.Warn("redis unavailable, summaries served from postgres", slog.Any("error", err))
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
	consolHandler := consolhttp.NewHandler(logger, service)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ConsolHandler: consolHandler,
		JobHandler:    jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runFXImport(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("fx-import", flag.ContinueOnError)
	source := fs.String("source", "", "CSV file with FX rates, or - for stdin")
	mode := fs.String("mode", "dry", "dry or apply")
	jsonOut := fs.Bool("json", false, "emit JSON summary")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	ops := cli.NewFXOpsCLI(consol.NewRepository(pool))
	return ops.ImportCommand(ctx, cli.FXImportOptions{
		Source:     *source,
		Mode:       cli.FXImportMode(*mode),
		JSONOutput: *jsonOut,
	})
}
