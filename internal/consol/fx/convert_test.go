package fx

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

func cashEntry(entityID string, amount string, periodEnd time.Time) model.TrialBalanceEntry {
	return model.TrialBalanceEntry{
		EntryID:     entityID + "-cash",
		EntityID:    entityID,
		PeriodEnd:   periodEnd,
		AccountCode: "1000",
		AccountName: "Cash and equivalents",
		AccountType: model.BalanceSheetAsset,
		Debit:       decimal.RequireFromString(amount),
		Currency:    model.BRL,
	}
}

func TestConvertSameCurrencyIsNoop(t *testing.T) {
	converter := NewConverter(NewRateManager(nil, nil), nil)
	entry := cashEntry("ENT-1", "500000", day(2025, 3, 31))
	entry.Currency = model.USD

	converted, err := converter.ConvertEntry(entry, model.USD, day(2025, 3, 1))
	require.NoError(t, err)
	require.True(t, converted.ConvertedAmount.Equal(entry.NetAmount()))
	require.True(t, converted.Rate.Rate.Equal(decimal.NewFromInt(1)))
	require.True(t, converted.CTAAmount.IsZero())
}

func TestConvertBalanceSheetUsesClosingRate(t *testing.T) {
	mgr := NewRateManager(nil, nil)
	periodEnd := day(2025, 3, 31)
	require.NoError(t, mgr.AddRate(mustRate(t, model.USD, model.BRL, periodEnd, model.RateClosing, "5.25")))

	converter := NewConverter(mgr, nil)
	converted, err := converter.ConvertEntry(cashEntry("ENT-1", "500000", periodEnd), model.USD, day(2025, 3, 1))
	require.NoError(t, err)

	// 500,000 BRL at USD/BRL 5.25 = 95,238.10 USD.
	require.Equal(t, "95238.10", converted.ConvertedAmount.StringFixed(2))
	require.Equal(t, model.RateClosing, converted.Rate.RateType)
}

func TestConvertIncomeUsesPeriodAverage(t *testing.T) {
	mgr := NewRateManager(nil, nil)
	require.NoError(t, mgr.AddRate(mustRate(t, model.BRL, model.USD, day(2025, 3, 1), model.RateClosing, "0.20")))
	require.NoError(t, mgr.AddRate(mustRate(t, model.BRL, model.USD, day(2025, 3, 31), model.RateClosing, "0.18")))

	converter := NewConverter(mgr, nil)
	entry := model.TrialBalanceEntry{
		EntryID:     "rev-1",
		EntityID:    "ENT-1",
		PeriodEnd:   day(2025, 3, 31),
		AccountCode: "4000",
		AccountName: "Subscription revenue",
		AccountType: model.Income,
		Credit:      decimal.NewFromInt(100000),
		Currency:    model.BRL,
	}

	converted, err := converter.ConvertEntry(entry, model.USD, day(2025, 3, 1))
	require.NoError(t, err)
	require.Equal(t, model.RateAverage, converted.Rate.RateType)
	// net -100,000 at mean(0.20, 0.18) = -19,000.
	require.Equal(t, "-19000.00", converted.ConvertedAmount.StringFixed(2))
	// P&L lines carry no CTA.
	require.True(t, converted.CTAAmount.IsZero())
}

func TestConvertMissingRateIsHardFailure(t *testing.T) {
	converter := NewConverter(NewRateManager(nil, nil), nil)
	_, err := converter.ConvertEntry(cashEntry("ENT-1", "1000", day(2025, 3, 31)), model.USD, day(2025, 3, 1))
	require.True(t, errors.Is(err, shared.ErrRateNotFound))
}

func TestCTAOpeningMovementModel(t *testing.T) {
	mgr := NewRateManager(nil, nil)
	periodStart := day(2025, 3, 1)
	periodEnd := day(2025, 3, 31)
	require.NoError(t, mgr.AddRate(mustRate(t, model.BRL, model.USD, periodStart, model.RateClosing, "0.20")))
	require.NoError(t, mgr.AddRate(mustRate(t, model.BRL, model.USD, periodEnd, model.RateClosing, "0.19")))

	converter := NewConverter(mgr, nil)
	entry := cashEntry("ENT-1", "150000", periodEnd)
	entry.OpeningBalance = decimal.NewFromInt(100000)

	converted, err := converter.ConvertEntry(entry, model.USD, periodStart)
	require.NoError(t, err)

	// closing: 150,000*0.19 = 28,500
	// historical: 100,000*0.20 + 50,000*mean(0.20,0.19) = 20,000 + 9,750
	// CTA change: 28,500 - 29,750 = -1,250
	require.Equal(t, "28500.00", converted.ConvertedAmount.StringFixed(2))
	require.Equal(t, "-1250.00", converted.CTAAmount.StringFixed(2))
	require.Equal(t, "-1250.00", converter.TotalCTA("ENT-1").StringFixed(2))
	require.Equal(t, "-1250.00", converter.TotalCTA("").StringFixed(2))

	// A second conversion accumulates on the same entity.
	second := cashEntry("ENT-1", "150000", periodEnd)
	second.EntryID = "ENT-1-cash-2"
	second.OpeningBalance = decimal.NewFromInt(100000)
	_, err = converter.ConvertEntry(second, model.USD, periodStart)
	require.NoError(t, err)
	require.Equal(t, "-2500.00", converter.TotalCTA("ENT-1").StringFixed(2))

	converter.ResetCTA("ENT-1")
	require.True(t, converter.TotalCTA("ENT-1").IsZero())
}
