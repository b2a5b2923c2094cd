package consol

import (
	"context"
	"time"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// RunStore persists consolidation run summaries. Persistence happens after a
// run completes; the pipeline itself never blocks on storage.
type RunStore interface {
	SaveRun(ctx context.Context, runID string, summary Summary) error
	LatestSummary(ctx context.Context) (Summary, error)
}

// AuditStore persists the audit trail of a run.
type AuditStore interface {
	SaveAuditEntries(ctx context.Context, runID string, entries []shared.AuditEntry) error
	AuditEntries(ctx context.Context, runID string) ([]shared.AuditEntry, error)
}

// RateStore persists FX rates between runs.
type RateStore interface {
	UpsertRates(ctx context.Context, rates []model.FXRate) error
	RatesOn(ctx context.Context, day time.Time) ([]model.FXRate, error)
}
