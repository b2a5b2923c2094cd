package ic

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func arEntry(entryID, entityID, amount string) model.TrialBalanceEntry {
	return model.TrialBalanceEntry{
		EntryID:     entryID,
		EntityID:    entityID,
		PeriodEnd:   day(2025, 3, 31),
		AccountCode: "1200",
		AccountName: "Intercompany receivable",
		AccountType: model.BalanceSheetAsset,
		Debit:       decimal.RequireFromString(amount),
		Currency:    model.BRL,
	}
}

func apEntry(entryID, entityID, amount string) model.TrialBalanceEntry {
	return model.TrialBalanceEntry{
		EntryID:     entryID,
		EntityID:    entityID,
		PeriodEnd:   day(2025, 3, 31),
		AccountCode: "2100",
		AccountName: "Intercompany payable",
		AccountType: model.BalanceSheetLiability,
		Credit:      decimal.RequireFromString(amount),
		Currency:    model.BRL,
	}
}

func TestMatchWithinTolerance(t *testing.T) {
	m := NewMatcher(DefaultTolerance, nil, nil)

	// 103,000 vs 102,000 differs by 0.97%, inside the 1% tolerance.
	matches := m.MatchReceivablesPayables(
		[]model.TrialBalanceEntry{arEntry("ar-1", "ENT-A", "103000")},
		[]model.TrialBalanceEntry{apEntry("ap-1", "ENT-B", "102000")},
		nil,
	)
	require.Len(t, matches, 1)
	require.Equal(t, model.ReceivablePayable, matches[0].EliminationType)
	require.Equal(t, "103000", matches[0].AmountEntityA.String())
	require.Equal(t, "102000", matches[0].AmountEntityB.String())
}

func TestMatchOutsideToleranceIsRejected(t *testing.T) {
	m := NewMatcher(DefaultTolerance, nil, nil)
	matches := m.MatchReceivablesPayables(
		[]model.TrialBalanceEntry{arEntry("ar-1", "ENT-A", "103000")},
		[]model.TrialBalanceEntry{apEntry("ap-1", "ENT-B", "100000")},
		nil,
	)
	require.Empty(t, matches)
}

func TestMatchSkipsSameEntity(t *testing.T) {
	m := NewMatcher(DefaultTolerance, nil, nil)
	matches := m.MatchReceivablesPayables(
		[]model.TrialBalanceEntry{arEntry("ar-1", "ENT-A", "100000")},
		[]model.TrialBalanceEntry{apEntry("ap-1", "ENT-A", "100000")},
		nil,
	)
	require.Empty(t, matches)
}

func TestMatchIsDeterministicAcrossInputOrder(t *testing.T) {
	receivables := []model.TrialBalanceEntry{
		arEntry("ar-1", "ENT-A", "100000"),
		arEntry("ar-2", "ENT-A", "100500"),
	}
	payables := []model.TrialBalanceEntry{
		apEntry("ap-1", "ENT-B", "100400"),
	}

	m := NewMatcher(DefaultTolerance, nil, nil)
	forward := m.MatchReceivablesPayables(receivables, payables, nil)

	reversed := []model.TrialBalanceEntry{receivables[1], receivables[0]}
	backward := m.MatchReceivablesPayables(reversed, payables, nil)

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	// ar-2 is the closer candidate (diff 100 vs 400) regardless of order.
	require.Equal(t, "100500", forward[0].AmountEntityA.String())
	require.Equal(t, forward[0].AmountEntityA.String(), backward[0].AmountEntityA.String())
}

func TestMatchCrossCurrencyUsesSuppliedRate(t *testing.T) {
	ar := arEntry("ar-1", "ENT-A", "515000")
	ap := apEntry("ap-1", "ENT-B", "100000")
	ap.Currency = model.USD

	rate, err := model.NewFXRate(model.BRL, model.USD, day(2025, 3, 31), model.RateClosing, decimal.RequireFromString("0.195"), "test")
	require.NoError(t, err)

	m := NewMatcher(DefaultTolerance, nil, nil)
	matches := m.MatchReceivablesPayables(
		[]model.TrialBalanceEntry{ar},
		[]model.TrialBalanceEntry{ap},
		map[Pair]model.FXRate{{From: model.BRL, To: model.USD}: rate},
	)
	require.Len(t, matches, 1)
	// 515,000 * 0.195 = 100,425: within 1% of 100,000 with a 425 residual.
	require.Equal(t, "425.00", matches[0].FXGainLoss.StringFixed(2))
	require.True(t, matches[0].RequiresFXAdjustment())
}

func TestMatchRevenuesExpensesRequiresRelationship(t *testing.T) {
	rev := model.TrialBalanceEntry{
		EntryID:     "rev-1",
		EntityID:    "ENT-A",
		PeriodEnd:   day(2025, 3, 31),
		AccountCode: "4100",
		AccountName: "Management fee income",
		AccountType: model.Income,
		Credit:      decimal.NewFromInt(50000),
		Currency:    model.BRL,
		Description: "MGMT-FEE-Q1",
	}
	exp := model.TrialBalanceEntry{
		EntryID:     "exp-1",
		EntityID:    "ENT-B",
		PeriodEnd:   day(2025, 3, 31),
		AccountCode: "5100",
		AccountName: "Management fee expense",
		AccountType: model.Expense,
		Debit:       decimal.NewFromInt(50000),
		Currency:    model.BRL,
		Description: "MGMT-FEE-Q1",
	}

	m := NewMatcher(DefaultTolerance, nil, nil)

	matches := m.MatchRevenuesExpenses(
		[]model.TrialBalanceEntry{rev}, []model.TrialBalanceEntry{exp}, nil)
	require.Empty(t, matches)

	matches = m.MatchRevenuesExpenses(
		[]model.TrialBalanceEntry{rev}, []model.TrialBalanceEntry{exp},
		map[string]string{"ENT-B": "ENT-A"})
	require.Len(t, matches, 1)
	require.Equal(t, model.RevenueExpense, matches[0].EliminationType)
	require.Equal(t, "MGMT-FEE-Q1", matches[0].ReferenceNumber)
}
