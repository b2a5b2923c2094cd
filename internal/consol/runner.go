package consol

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// Period is one consolidation window.
type Period struct {
	Start time.Time
	End   time.Time
}

// Runner consolidates several periods concurrently. Each period gets a fresh
// engine from the factory so no FX or CTA state leaks between runs.
type Runner struct {
	NewEngine func() *Engine
	Params    func(p Period) ConsolidateParams
	// MaxConcurrent bounds parallel runs; zero means unbounded.
	MaxConcurrent int
	logger        *slog.Logger
}

// NewRunner constructs a runner over an engine factory.
func NewRunner(factory func() *Engine, params func(Period) ConsolidateParams, logger *slog.Logger) *Runner {
	return &Runner{NewEngine: factory, Params: params, logger: logger}
}

// RunAll consolidates every period, returning results keyed by period end
// day. The first failure cancels the remaining runs.
func (r *Runner) RunAll(ctx context.Context, periods []Period) (map[string]model.ConsolidatedFinancials, error) {
	group, ctx := errgroup.WithContext(ctx)
	if r.MaxConcurrent > 0 {
		group.SetLimit(r.MaxConcurrent)
	}

	var mu sync.Mutex
	results := make(map[string]model.ConsolidatedFinancials, len(periods))

	for _, period := range periods {
		group.Go(func() error {
			engine := r.NewEngine()
			consolidated, err := engine.Consolidate(ctx, r.Params(period))
			if err != nil {
				return err
			}
			mu.Lock()
			results[model.DayKey(period.End)] = consolidated
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	r.log().Info("consolidated all periods", slog.Int("periods", len(periods)))
	return results, nil
}

func (r *Runner) log() *slog.Logger {
	if r != nil && r.logger != nil {
		return r.logger.With(slog.String("component", "consol_runner"))
	}
	return slog.Default().With(slog.String("component", "consol_runner"))
}
