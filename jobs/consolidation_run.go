package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
)

// RunService describes the behaviour required to execute a consolidation.
type RunService interface {
	Run(ctx context.Context, input consol.RunInput) (consol.Summary, error)
}

// ConsolidationRunJob coordinates queued consolidation runs.
type ConsolidationRunJob struct {
	Service RunService
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewConsolidationRunJob constructs the job handler.
func NewConsolidationRunJob(service RunService, logger *slog.Logger) *ConsolidationRunJob {
	return &ConsolidationRunJob{
		Service: service,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one queued consolidation run.
func (j *ConsolidationRunJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("consolidation run: service not configured")
	}
	var payload ConsolidationRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.Input.Entities) == 0 {
		j.log().Warn("queued run without entities, skipping")
		return asynq.SkipRetry
	}

	start := j.now()
	summary, err := j.Service.Run(ctx, payload.Input)
	if err != nil {
		j.log().Error("consolidation run failed",
			slog.String("period_end", payload.Input.PeriodEnd.Format("2006-01-02")),
			slog.Any("error", err))
		return err
	}

	j.log().Info("consolidation run completed",
		slog.String("period_end", summary.PeriodEnd.Format("2006-01-02")),
		slog.Int("entities", summary.EntityCount),
		slog.Bool("balanced", summary.IsBalanced),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ConsolidationRunJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskConsolidationRun))
	}
	return slog.Default().With(slog.String("job", TaskConsolidationRun))
}

func (j *ConsolidationRunJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *ConsolidationRunJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
