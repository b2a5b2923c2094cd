package gaap

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

func ifrsFinancials(netIncome string) model.ConsolidatedFinancials {
	return model.ConsolidatedFinancials{
		ConsolidationID:      "run-1",
		PeriodEnd:            time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		PresentationCurrency: model.USD,
		Standard:             model.IFRS,
		EntitiesIncluded:     []string{"ENT-A", "ENT-B"},
		TotalAssets:          decimal.NewFromInt(1_000_000),
		TotalLiabilities:     decimal.NewFromInt(400_000),
		TotalEquity:          decimal.NewFromInt(600_000),
		TotalRevenue:         decimal.NewFromInt(500_000),
		TotalExpenses:        decimal.NewFromInt(450_000),
		NetIncome:            decimal.RequireFromString(netIncome),
		IsBalanced:           true,
	}
}

func TestDevelopmentCostsAdjustment(t *testing.T) {
	handler := NewDifferenceHandler(nil, nil)

	adj := handler.DevelopmentCosts(decimal.NewFromInt(75_000), "expense")
	require.Equal(t, "-75000", adj.String())

	adj = handler.DevelopmentCosts(decimal.NewFromInt(75_000), "capitalize")
	require.True(t, adj.IsZero())
}

func TestCreateReconciliationBridges(t *testing.T) {
	engine := NewEngine(nil, nil)

	reconciliation, err := engine.Create(ifrsFinancials("50000"), map[string]decimal.Decimal{
		CategoryDevelopmentCosts: decimal.NewFromInt(-75_000),
		CategoryRevenue:          decimal.NewFromInt(10_000),
	}, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, "50000", reconciliation.IFRSNetIncome.String())
	require.Equal(t, "-15000", reconciliation.USGAAPNetIncome.String())
	require.Equal(t, "-65000", reconciliation.TotalAdjustments().String())
	require.Len(t, engine.Reconciliations(), 1)
}

func TestReconciliationImbalanceIsDetected(t *testing.T) {
	broken := model.GAAPReconciliation{
		IFRSNetIncome:   decimal.NewFromInt(50_000),
		USGAAPNetIncome: decimal.NewFromInt(99_999),
		Adjustments:     map[string]decimal.Decimal{CategoryOther: decimal.NewFromInt(1)},
	}
	require.False(t, broken.Validate(reconciliationTolerance))
}

func TestTableOmitsZeroCategories(t *testing.T) {
	engine := NewEngine(nil, nil)
	reconciliation, err := engine.Create(ifrsFinancials("50000"), map[string]decimal.Decimal{
		CategoryDevelopmentCosts: decimal.NewFromInt(-75_000),
	}, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rows := engine.Table(reconciliation)
	require.Len(t, rows, 4)
	require.Equal(t, "Net Income (IFRS)", rows[0].Description)
	require.Equal(t, "Development costs adjustment", rows[1].Description)
	require.Equal(t, "Total adjustments", rows[2].Description)
	require.Equal(t, "Net Income (US GAAP)", rows[3].Description)
}

func TestDisclosureFormatsAmounts(t *testing.T) {
	engine := NewEngine(nil, nil)
	reconciliation, err := engine.Create(ifrsFinancials("1250000"), map[string]decimal.Decimal{
		CategoryDevelopmentCosts: decimal.NewFromInt(-75_000),
	}, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	disclosure := engine.Disclosure(reconciliation)
	require.True(t, strings.HasPrefix(disclosure, "RECONCILIATION OF NET INCOME UNDER IFRS TO US GAAP"))
	require.Contains(t, disclosure, "$1,250,000.00")
	require.Contains(t, disclosure, "Notes:")
	require.Contains(t, disclosure, "Development Costs:")
}

func TestDualReportingPatchesIncomeAndEquity(t *testing.T) {
	reporter := NewDualReporter(shared.NewAuditTrail(), nil)
	ifrs := ifrsFinancials("50000")

	usGAAP, reconciliation, err := reporter.Prepare(ifrs, map[string]decimal.Decimal{
		CategoryDevelopmentCosts: decimal.NewFromInt(-75_000),
	})
	require.NoError(t, err)

	require.Equal(t, model.USGAAP, usGAAP.Standard)
	require.Equal(t, "-25000", usGAAP.NetIncome.String())
	require.Equal(t, "525000", usGAAP.TotalEquity.String())
	require.Equal(t, "-75000", reconciliation.TotalAdjustments().String())

	gotIFRS, gotUSGAAP := reporter.Comparative(ifrs.PeriodEnd)
	require.NotNil(t, gotIFRS)
	require.NotNil(t, gotUSGAAP)
	require.Equal(t, model.IFRS, gotIFRS.Standard)
	require.Equal(t, model.USGAAP, gotUSGAAP.Standard)

	missingIFRS, missingUSGAAP := reporter.Comparative(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.Nil(t, missingIFRS)
	require.Nil(t, missingUSGAAP)
}
