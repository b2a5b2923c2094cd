package consol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// SummaryCache holds the latest run summary for cheap reads. Implementations
// must tolerate cache misses; the run store stays authoritative.
type SummaryCache interface {
	GetSummary(ctx context.Context) (Summary, bool, error)
	SetSummary(ctx context.Context, summary Summary) error
	Invalidate(ctx context.Context) error
}

// RunInput carries everything one consolidation run needs. Trial balances
// arrive pre-validated from the caller.
type RunInput struct {
	Entities        []model.Entity
	TrialBalances   map[string][]model.TrialBalanceEntry
	PeriodStart     time.Time
	PeriodEnd       time.Time
	ChartOfAccounts map[string]string
	IncludeGAAP     bool
	GAAPAdjustments map[string]decimal.Decimal
}

// Service exposes consolidation to the HTTP API and background jobs. Each
// run builds a fresh engine seeded with the stored FX rates, so no FX or CTA
// state crosses runs.
type Service struct {
	cfg    Config
	runs   RunStore
	audits AuditStore
	rates  RateStore
	cache  SummaryCache
	logger *slog.Logger

	mu         sync.Mutex
	lastReport string
	lastRunID  string
}

// NewService wires a consolidation service.
func NewService(cfg Config, runs RunStore, audits AuditStore, rates RateStore, cache SummaryCache, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, runs: runs, audits: audits, rates: rates, cache: cache, logger: logger}
}

// Run executes one consolidation and persists its outcome. The audit trail is
// saved even when validation flags findings; a pipeline error aborts before
// persistence.
func (s *Service) Run(ctx context.Context, input RunInput) (Summary, error) {
	engine := NewEngine(s.cfg, s.logger)

	if err := s.seedRates(ctx, engine, input.PeriodStart, input.PeriodEnd); err != nil {
		return Summary{}, err
	}
	for _, entity := range input.Entities {
		if err := engine.RegisterEntity(entity); err != nil {
			return Summary{}, err
		}
	}
	for entityID, entries := range input.TrialBalances {
		if err := engine.LoadTrialBalance(entityID, entries); err != nil {
			return Summary{}, err
		}
	}

	chart := input.ChartOfAccounts
	if chart == nil {
		chart = defaultChart
	}
	consolidated, err := engine.Consolidate(ctx, ConsolidateParams{
		PeriodStart:     input.PeriodStart,
		PeriodEnd:       input.PeriodEnd,
		ChartOfAccounts: chart,
		IncludeGAAP:     input.IncludeGAAP,
		GAAPAdjustments: input.GAAPAdjustments,
	})
	if err != nil {
		return Summary{}, err
	}

	summary := Summarize(consolidated)
	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, consolidated.ConsolidationID, summary); err != nil {
			return Summary{}, fmt.Errorf("save run: %w", err)
		}
	}
	if s.audits != nil {
		if err := s.audits.SaveAuditEntries(ctx, consolidated.ConsolidationID, engine.AuditTrail()); err != nil {
			return Summary{}, fmt.Errorf("save audit trail: %w", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary); err != nil {
			s.log().Warn("summary cache write failed", slog.Any("error", err))
		}
	}

	s.mu.Lock()
	s.lastReport = engine.Validator.Report(consolidated)
	s.lastRunID = consolidated.ConsolidationID
	s.mu.Unlock()

	s.log().Info("consolidation run stored",
		slog.String("run_id", consolidated.ConsolidationID),
		slog.Bool("balanced", summary.IsBalanced))
	return summary, nil
}

// seedRates loads stored FX quotes for the period bounds into the engine.
func (s *Service) seedRates(ctx context.Context, engine *Engine, periodStart, periodEnd time.Time) error {
	if s.rates == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, day := range []time.Time{periodStart, periodEnd} {
		key := model.DayKey(day)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		rates, err := s.rates.RatesOn(ctx, day)
		if err != nil {
			return fmt.Errorf("load rates for %s: %w", key, err)
		}
		for _, rate := range rates {
			if err := engine.Rates.AddRate(rate); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpsertRates stores FX quotes for later runs.
func (s *Service) UpsertRates(ctx context.Context, rates []model.FXRate) error {
	if s.rates == nil {
		return fmt.Errorf("rate store not configured")
	}
	return s.rates.UpsertRates(ctx, rates)
}

// LatestSummary serves the cached summary when available, falling back to
// the run store.
func (s *Service) LatestSummary(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		if summary, ok, err := s.cache.GetSummary(ctx); err == nil && ok {
			return summary, nil
		}
	}
	if s.runs == nil {
		return Summary{}, shared.ErrNotFound
	}
	return s.runs.LatestSummary(ctx)
}

// ValidationReport returns the report of the most recent run in this process.
func (s *Service) ValidationReport(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport == "" {
		return "", shared.ErrNotFound
	}
	return s.lastReport, nil
}

// AuditTrail returns the stored audit trail of a run.
func (s *Service) AuditTrail(ctx context.Context, runID string) ([]shared.AuditEntry, error) {
	if s.audits == nil {
		return nil, shared.ErrNotFound
	}
	if runID == "" {
		s.mu.Lock()
		runID = s.lastRunID
		s.mu.Unlock()
	}
	if runID == "" {
		return nil, shared.ErrNotFound
	}
	return s.audits.AuditEntries(ctx, runID)
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger.With(slog.String("component", "consol_service"))
	}
	return slog.Default().With(slog.String("component", "consol_service"))
}
