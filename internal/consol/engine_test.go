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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(entityID, code, name string, typ model.AccountType, debit, credit int64, currency model.Currency, periodEnd time.Time) model.TrialBalanceEntry {
	return model.TrialBalanceEntry{
		EntryID:     entityID + "-" + code,
		EntityID:    entityID,
		PeriodEnd:   periodEnd,
		AccountCode: code,
		AccountName: name,
		AccountType: typ,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
		Currency:    currency,
	}
}

// loadedEngine builds a three-entity group: a US parent holding an
// intercompany receivable, a US subsidiary carrying the matching payable, and
// a Brazilian subsidiary translated from BRL at a flat 0.20.
func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(Config{PresentationCurrency: model.USD}, nil)
	periodEnd := day(2025, 3, 31)

	for _, rateDay := range []time.Time{day(2025, 3, 1), periodEnd} {
		rate, err := model.NewFXRate(model.BRL, model.USD, rateDay, model.RateClosing, decimal.RequireFromString("0.20"), "test")
		require.NoError(t, err)
		require.NoError(t, engine.Rates.AddRate(rate))
	}

	parent, err := model.NewEntity("ENT-US", "Nuvini Holdings", model.USD, "US", decimal.NewFromInt(100))
	require.NoError(t, err)
	usSub, err := model.NewEntity("ENT-US2", "Nuvini Services", model.USD, "US", decimal.NewFromInt(100))
	require.NoError(t, err)
	usSub.ParentEntityID = "ENT-US"
	brSub, err := model.NewEntity("ENT-BR", "Nuvini Brasil", model.BRL, "BR", decimal.NewFromInt(100))
	require.NoError(t, err)
	brSub.ParentEntityID = "ENT-US"

	for _, entity := range []model.Entity{parent, usSub, brSub} {
		require.NoError(t, engine.RegisterEntity(entity))
	}

	require.NoError(t, engine.LoadTrialBalance("ENT-US", []model.TrialBalanceEntry{
		entry("ENT-US", "1000", "Cash", model.BalanceSheetAsset, 500_000, 0, model.USD, periodEnd),
		entry("ENT-US", "1200", "Intercompany receivable", model.BalanceSheetAsset, 103_000, 0, model.USD, periodEnd),
		entry("ENT-US", "3000", "Share capital", model.BalanceSheetEquity, 0, 453_000, model.USD, periodEnd),
		entry("ENT-US", "4000", "Subscription revenue", model.Income, 0, 150_000, model.USD, periodEnd),
	}))
	require.NoError(t, engine.LoadTrialBalance("ENT-US2", []model.TrialBalanceEntry{
		entry("ENT-US2", "1000", "Cash", model.BalanceSheetAsset, 60_000, 0, model.USD, periodEnd),
		entry("ENT-US2", "5000", "Operating expenses", model.Expense, 42_000, 0, model.USD, periodEnd),
		entry("ENT-US2", "2100", "Intercompany payable", model.BalanceSheetLiability, 0, 102_000, model.USD, periodEnd),
	}))
	require.NoError(t, engine.LoadTrialBalance("ENT-BR", []model.TrialBalanceEntry{
		entry("ENT-BR", "1000", "Cash", model.BalanceSheetAsset, 250_000, 0, model.BRL, periodEnd),
		entry("ENT-BR", "3000", "Share capital", model.BalanceSheetEquity, 0, 200_000, model.BRL, periodEnd),
		entry("ENT-BR", "4100", "Subscription revenue", model.Income, 0, 100_000, model.BRL, periodEnd),
		entry("ENT-BR", "5100", "Operating expenses", model.Expense, 50_000, 0, model.BRL, periodEnd),
	}))
	return engine
}

func TestConsolidateFullPipeline(t *testing.T) {
	engine := loadedEngine(t)

	consolidated, err := engine.Consolidate(context.Background(), ConsolidateParams{
		PeriodStart:     day(2025, 3, 1),
		PeriodEnd:       day(2025, 3, 31),
		ChartOfAccounts: defaultChart,
	})
	require.NoError(t, err)
	require.Equal(t, StateComplete, engine.State())

	// One AR/AP pair eliminated at the mean of 103,000 and 102,000.
	require.Len(t, consolidated.Eliminations, 1)
	require.Equal(t, "102500", consolidated.Eliminations[0].EliminationAmount.String())

	// Assets: 500,000 + 103,000 + 60,000 + 50,000 - 102,500.
	require.Equal(t, "610500", consolidated.TotalAssets.String())
	// Liabilities: 102,000 - 102,500 (tolerance artifact of the mean).
	require.Equal(t, "-500", consolidated.TotalLiabilities.String())
	// Revenue: 150,000 + 20,000; expenses: 42,000 + 10,000.
	require.Equal(t, "170000", consolidated.TotalRevenue.String())
	require.Equal(t, "52000", consolidated.TotalExpenses.String())
	require.Equal(t, "118000", consolidated.NetIncome.String())
	// Equity: 453,000 + 40,000 + net income.
	require.Equal(t, "611000", consolidated.TotalEquity.String())

	// Flat rates across the period leave no translation adjustment.
	require.True(t, consolidated.TotalCTA.IsZero())
	require.True(t, consolidated.IsBalanced)

	var actions []string
	for _, auditEntry := range engine.AuditTrail() {
		actions = append(actions, auditEntry.Action)
	}
	require.Contains(t, actions, "START_CONSOLIDATION")
	require.Contains(t, actions, "CONVERT_CURRENCY")
	require.Contains(t, actions, "CREATE_ELIMINATIONS")
	require.Contains(t, actions, "COMPLETE_CONSOLIDATION")
}

func TestConsolidateWithGAAPBridge(t *testing.T) {
	engine := loadedEngine(t)

	consolidated, err := engine.Consolidate(context.Background(), ConsolidateParams{
		PeriodStart:     day(2025, 3, 1),
		PeriodEnd:       day(2025, 3, 31),
		ChartOfAccounts: defaultChart,
		IncludeGAAP:     true,
		GAAPAdjustments: map[string]decimal.Decimal{"development_costs": decimal.NewFromInt(-18_000)},
	})
	require.NoError(t, err)
	require.Equal(t, StateComplete, engine.State())

	ifrs, usGAAP := engine.Dual.Comparative(consolidated.PeriodEnd)
	require.NotNil(t, ifrs)
	require.NotNil(t, usGAAP)
	require.Equal(t, "100000", usGAAP.NetIncome.String())
	require.Equal(t, model.USGAAP, usGAAP.Standard)
}

func TestLoadTrialBalanceRequiresRegistration(t *testing.T) {
	engine := NewEngine(Config{}, nil)
	err := engine.LoadTrialBalance("ENT-X", nil)
	require.True(t, errors.Is(err, shared.ErrEntityNotRegistered))
}

func TestConsolidateTwiceIsInvalidTransition(t *testing.T) {
	engine := loadedEngine(t)
	params := ConsolidateParams{
		PeriodStart:     day(2025, 3, 1),
		PeriodEnd:       day(2025, 3, 31),
		ChartOfAccounts: defaultChart,
	}

	_, err := engine.Consolidate(context.Background(), params)
	require.NoError(t, err)

	_, err = engine.Consolidate(context.Background(), params)
	require.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
}

func TestConsolidateMissingRateFails(t *testing.T) {
	engine := NewEngine(Config{PresentationCurrency: model.USD}, nil)
	periodEnd := day(2025, 3, 31)

	entity, err := model.NewEntity("ENT-BR", "Nuvini Brasil", model.BRL, "BR", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, engine.RegisterEntity(entity))
	require.NoError(t, engine.LoadTrialBalance("ENT-BR", []model.TrialBalanceEntry{
		entry("ENT-BR", "1000", "Cash", model.BalanceSheetAsset, 1_000, 0, model.BRL, periodEnd),
	}))

	_, err = engine.Consolidate(context.Background(), ConsolidateParams{
		PeriodStart: day(2025, 3, 1),
		PeriodEnd:   periodEnd,
	})
	require.True(t, errors.Is(err, shared.ErrRateNotFound))
}

func TestQuickConsolidate(t *testing.T) {
	periodEnd := day(2025, 3, 31)
	parent, err := model.NewEntity("ENT-A", "Parent", model.USD, "US", decimal.NewFromInt(100))
	require.NoError(t, err)
	sub, err := model.NewEntity("ENT-B", "Sub", model.USD, "US", decimal.NewFromInt(100))
	require.NoError(t, err)

	consolidated, err := QuickConsolidate(context.Background(),
		[]model.Entity{parent, sub},
		map[string][]model.TrialBalanceEntry{
			"ENT-A": {
				entry("ENT-A", "1000", "Cash", model.BalanceSheetAsset, 100_000, 0, model.USD, periodEnd),
				entry("ENT-A", "3000", "Share capital", model.BalanceSheetEquity, 0, 100_000, model.USD, periodEnd),
			},
			"ENT-B": {
				entry("ENT-B", "1000", "Cash", model.BalanceSheetAsset, 50_000, 0, model.USD, periodEnd),
				entry("ENT-B", "3000", "Share capital", model.BalanceSheetEquity, 0, 50_000, model.USD, periodEnd),
			},
		},
		nil, model.USD, day(2025, 3, 1), periodEnd, nil)
	require.NoError(t, err)
	require.Equal(t, "150000", consolidated.TotalAssets.String())
	require.True(t, consolidated.IsBalanced)

	summary := Summarize(consolidated)
	require.Equal(t, 2, summary.EntityCount)
	require.True(t, summary.BalanceDifference.IsZero())
}
