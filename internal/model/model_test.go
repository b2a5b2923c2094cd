package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewEntityOwnershipBounds(t *testing.T) {
	_, err := NewEntity("ENT-1", "Alpha Ltda", BRL, "BR", decimal.NewFromInt(80))
	require.NoError(t, err)

	_, err = NewEntity("ENT-2", "Beta", BRL, "BR", decimal.NewFromInt(101))
	require.Error(t, err)

	_, err = NewEntity("ENT-3", "Gamma", BRL, "BR", decimal.NewFromInt(-1))
	require.Error(t, err)
}

func TestFXRateInvert(t *testing.T) {
	day := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rate, err := NewFXRate(USD, BRL, day, RateClosing, decimal.RequireFromString("5.25"), "test")
	require.NoError(t, err)

	inv := rate.Invert()
	require.Equal(t, BRL, inv.From)
	require.Equal(t, USD, inv.To)

	// Round trip within rounding tolerance.
	product := rate.Rate.Mul(inv.Rate)
	require.True(t, product.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.RequireFromString("0.0000001")),
		"rate*inverse = %s", product)

	_, err = NewFXRate(USD, BRL, day, RateClosing, decimal.Zero, "test")
	require.Error(t, err)
}

func TestAccountTypeBuckets(t *testing.T) {
	require.Equal(t, BucketAssets, BalanceSheetAsset.Bucket())
	require.Equal(t, BucketLiabilities, BalanceSheetLiability.Bucket())
	require.Equal(t, BucketEquity, BalanceSheetEquity.Bucket())
	require.Equal(t, BucketEquity, EquityTransaction.Bucket())
	require.Equal(t, BucketRevenue, Income.Bucket())
	require.Equal(t, BucketExpenses, Expense.Bucket())

	require.True(t, BalanceSheetLiability.CreditNormal())
	require.True(t, Income.CreditNormal())
	require.False(t, BalanceSheetAsset.CreditNormal())
	require.False(t, Expense.CreditNormal())
}

func TestValidateBalance(t *testing.T) {
	c := ConsolidatedFinancials{
		TotalAssets:      decimal.NewFromInt(1_000_000),
		TotalLiabilities: decimal.NewFromInt(400_000),
		TotalEquity:      decimal.NewFromInt(600_000),
	}
	require.True(t, c.ValidateBalance(decimal.RequireFromString("0.01")))
	require.Empty(t, c.ValidationErrors)

	c.TotalEquity = decimal.NewFromInt(599_000)
	require.False(t, c.ValidateBalance(decimal.RequireFromString("0.01")))
	require.Len(t, c.ValidationErrors, 1)
	require.Equal(t, "1000", c.BalanceDifference().String())
}

func TestGAAPReconciliationValidate(t *testing.T) {
	rec := GAAPReconciliation{
		IFRSNetIncome:   decimal.NewFromInt(500_000),
		USGAAPNetIncome: decimal.NewFromInt(450_000),
		Adjustments: map[string]decimal.Decimal{
			"development_costs": decimal.NewFromInt(-50_000),
		},
	}
	require.True(t, rec.Validate(decimal.RequireFromString("0.01")))

	rec.USGAAPNetIncome = decimal.NewFromInt(449_000)
	require.False(t, rec.Validate(decimal.RequireFromString("0.01")))
}
