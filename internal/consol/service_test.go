package consol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

type stubRunStore struct {
	saved   map[string]Summary
	lastID  string
	saveErr error
}

func newStubRunStore() *stubRunStore {
	return &stubRunStore{saved: make(map[string]Summary)}
}

func (s *stubRunStore) SaveRun(_ context.Context, runID string, summary Summary) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[runID] = summary
	s.lastID = runID
	return nil
}

func (s *stubRunStore) LatestSummary(_ context.Context) (Summary, error) {
	if s.lastID == "" {
		return Summary{}, shared.ErrNotFound
	}
	return s.saved[s.lastID], nil
}

type stubAuditStore struct {
	entries map[string][]shared.AuditEntry
}

func newStubAuditStore() *stubAuditStore {
	return &stubAuditStore{entries: make(map[string][]shared.AuditEntry)}
}

func (s *stubAuditStore) SaveAuditEntries(_ context.Context, runID string, entries []shared.AuditEntry) error {
	s.entries[runID] = entries
	return nil
}

func (s *stubAuditStore) AuditEntries(_ context.Context, runID string) ([]shared.AuditEntry, error) {
	entries, ok := s.entries[runID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return entries, nil
}

type stubRateStore struct {
	rates []model.FXRate
}

func (s *stubRateStore) UpsertRates(_ context.Context, rates []model.FXRate) error {
	s.rates = append(s.rates, rates...)
	return nil
}

func (s *stubRateStore) RatesOn(_ context.Context, day time.Time) ([]model.FXRate, error) {
	var out []model.FXRate
	for _, rate := range s.rates {
		if model.DayKey(rate.RateDate) == model.DayKey(day) {
			out = append(out, rate)
		}
	}
	return out, nil
}

type stubCache struct {
	summary *Summary
}

func (s *stubCache) GetSummary(_ context.Context) (Summary, bool, error) {
	if s.summary == nil {
		return Summary{}, false, nil
	}
	return *s.summary, true, nil
}

func (s *stubCache) SetSummary(_ context.Context, summary Summary) error {
	s.summary = &summary
	return nil
}

func (s *stubCache) Invalidate(_ context.Context) error {
	s.summary = nil
	return nil
}

func serviceRunInput(t *testing.T) RunInput {
	t.Helper()
	periodEnd := day(2025, 3, 31)
	parent, err := model.NewEntity("ENT-A", "Parent", model.USD, "US", decimal.NewFromInt(100))
	require.NoError(t, err)
	brSub, err := model.NewEntity("ENT-BR", "Nuvini Brasil", model.BRL, "BR", decimal.NewFromInt(100))
	require.NoError(t, err)
	brSub.ParentEntityID = "ENT-A"

	return RunInput{
		Entities: []model.Entity{parent, brSub},
		TrialBalances: map[string][]model.TrialBalanceEntry{
			"ENT-A": {
				entry("ENT-A", "1000", "Cash", model.BalanceSheetAsset, 100_000, 0, model.USD, periodEnd),
				entry("ENT-A", "3000", "Share capital", model.BalanceSheetEquity, 0, 100_000, model.USD, periodEnd),
			},
			"ENT-BR": {
				entry("ENT-BR", "1000", "Cash", model.BalanceSheetAsset, 250_000, 0, model.BRL, periodEnd),
				entry("ENT-BR", "3000", "Share capital", model.BalanceSheetEquity, 0, 250_000, model.BRL, periodEnd),
			},
		},
		PeriodStart: day(2025, 3, 1),
		PeriodEnd:   periodEnd,
	}
}

func TestServiceRunPersistsAndCaches(t *testing.T) {
	runs := newStubRunStore()
	audits := newStubAuditStore()
	rates := &stubRateStore{}
	cache := &stubCache{}
	svc := NewService(Config{PresentationCurrency: model.USD}, runs, audits, rates, cache, nil)

	for _, rateDay := range []time.Time{day(2025, 3, 1), day(2025, 3, 31)} {
		rate, err := model.NewFXRate(model.BRL, model.USD, rateDay, model.RateClosing, decimal.RequireFromString("0.20"), "treasury")
		require.NoError(t, err)
		require.NoError(t, svc.UpsertRates(context.Background(), []model.FXRate{rate}))
	}

	summary, err := svc.Run(context.Background(), serviceRunInput(t))
	require.NoError(t, err)
	// 100,000 USD + 250,000 BRL at 0.20.
	require.Equal(t, "150000", summary.TotalAssets.String())
	require.True(t, summary.IsBalanced)

	require.Len(t, runs.saved, 1)
	require.Len(t, audits.entries, 1)
	require.NotNil(t, cache.summary)

	latest, err := svc.LatestSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, summary.TotalAssets.String(), latest.TotalAssets.String())

	report, err := svc.ValidationReport(context.Background())
	require.NoError(t, err)
	require.Contains(t, report, "CONSOLIDATION VALIDATION REPORT")

	trail, err := svc.AuditTrail(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, trail)
}

func TestServiceLatestSummaryFallsBackToStore(t *testing.T) {
	runs := newStubRunStore()
	runs.saved["run-1"] = Summary{EntityCount: 2}
	runs.lastID = "run-1"
	svc := NewService(Config{}, runs, nil, nil, &stubCache{}, nil)

	summary, err := svc.LatestSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.EntityCount)
}

func TestServiceRunPropagatesStoreFailure(t *testing.T) {
	runs := newStubRunStore()
	runs.saveErr = errors.New("postgres down")
	rates := &stubRateStore{}
	svc := NewService(Config{PresentationCurrency: model.USD}, runs, nil, rates, nil, nil)

	for _, rateDay := range []time.Time{day(2025, 3, 1), day(2025, 3, 31)} {
		rate, err := model.NewFXRate(model.BRL, model.USD, rateDay, model.RateClosing, decimal.RequireFromString("0.20"), "treasury")
		require.NoError(t, err)
		require.NoError(t, svc.UpsertRates(context.Background(), []model.FXRate{rate}))
	}

	_, err := svc.Run(context.Background(), serviceRunInput(t))
	require.ErrorContains(t, err, "save run")
}

func TestServiceValidationReportBeforeAnyRun(t *testing.T) {
	svc := NewService(Config{}, nil, nil, nil, nil, nil)
	_, err := svc.ValidationReport(context.Background())
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
