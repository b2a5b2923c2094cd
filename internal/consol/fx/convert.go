package fx

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// Converter translates trial balance entries into the presentation currency
// per IFRS 21 / ASC 830 and maintains a per-entity CTA ledger. One converter
// belongs to one consolidation run; sharing it across concurrent runs would
// corrupt the CTA totals.
type Converter struct {
	rates  *RateManager
	logger *slog.Logger

	mu  sync.Mutex
	cta map[string]decimal.Decimal
}

// NewConverter wires a converter to its rate manager.
func NewConverter(rates *RateManager, logger *slog.Logger) *Converter {
	return &Converter{
		rates:  rates,
		logger: logger,
		cta:    make(map[string]decimal.Decimal),
	}
}

// ConvertEntry converts one trial balance entry. A missing rate for the
// required pair/date/type is a hard failure: an unconverted line would break
// the group balance sheet.
func (c *Converter) ConvertEntry(entry model.TrialBalanceEntry, presentation model.Currency, periodStart time.Time) (model.ConvertedEntry, error) {
	if entry.Currency == presentation {
		return model.ConvertedEntry{
			Original:             entry,
			PresentationCurrency: presentation,
			Rate:                 model.SameCurrencyRate(entry.Currency, entry.PeriodEnd, model.RateClosing),
			ConvertedAmount:      entry.NetAmount(),
			ConversionMethod:     "No conversion needed",
		}, nil
	}

	rateType := RateTypeFor(entry.AccountType)

	var rate model.FXRate
	var err error
	if rateType == model.RateAverage {
		rate, err = c.rates.AverageRate(entry.Currency, presentation, periodStart, entry.PeriodEnd)
	} else {
		rate, err = c.rates.GetRate(entry.Currency, presentation, entry.PeriodEnd, rateType)
	}
	if err != nil {
		return model.ConvertedEntry{}, fmt.Errorf("convert %s %s: %w", entry.EntityID, entry.AccountCode, err)
	}

	converted := entry.NetAmount().Mul(rate.Rate)

	ctaAmount := decimal.Zero
	switch entry.AccountType {
	case model.BalanceSheetAsset, model.BalanceSheetLiability:
		ctaAmount = c.accumulateCTA(entry, presentation, periodStart, rate)
	}

	return model.ConvertedEntry{
		Original:             entry,
		PresentationCurrency: presentation,
		Rate:                 rate,
		ConvertedAmount:      converted,
		CTAAmount:            ctaAmount,
		ConversionMethod:     fmt.Sprintf("%s rate method per IFRS 21", rateType),
	}, nil
}

// accumulateCTA derives the entry's translation adjustment as
// closing_translated - (opening_translated + movement_translated): the opening
// balance is translated at the period-start closing rate, the period movement
// at the average rate. Auxiliary rates fall back to the closing rate, which
// contributes zero CTA for that piece; only the primary conversion rate is a
// hard requirement. Returns the entity's accumulated balance after the change.
func (c *Converter) accumulateCTA(entry model.TrialBalanceEntry, presentation model.Currency, periodStart time.Time, closing model.FXRate) decimal.Decimal {
	opening := entry.OpeningBalance
	movement := entry.NetAmount().Sub(opening)

	openingRate := closing.Rate
	if rate, err := c.rates.GetRate(entry.Currency, presentation, periodStart, model.RateClosing); err == nil {
		openingRate = rate.Rate
	}
	movementRate := closing.Rate
	if rate, err := c.rates.AverageRate(entry.Currency, presentation, periodStart, entry.PeriodEnd); err == nil {
		movementRate = rate.Rate
	}

	closingTranslated := entry.NetAmount().Mul(closing.Rate)
	historicalTranslated := opening.Mul(openingRate).Add(movement.Mul(movementRate))
	change := closingTranslated.Sub(historicalTranslated)

	c.mu.Lock()
	defer c.mu.Unlock()
	balance := c.cta[entry.EntityID].Add(change)
	c.cta[entry.EntityID] = balance
	return balance
}

// TotalCTA returns the CTA balance for one entity, or the group-wide sum when
// entityID is empty.
func (c *Converter) TotalCTA(entityID string) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entityID != "" {
		return c.cta[entityID]
	}
	total := decimal.Zero
	for _, balance := range c.cta {
		total = total.Add(balance)
	}
	return total
}

// ResetCTA clears one entity's CTA balance, or all balances when entityID is
// empty (year-end, disposal).
func (c *Converter) ResetCTA(entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entityID != "" {
		delete(c.cta, entityID)
		return
	}
	c.cta = make(map[string]decimal.Decimal)
}

func (c *Converter) log() *slog.Logger {
	if c != nil && c.logger != nil {
		return c.logger.With(slog.String("component", "fx_converter"))
	}
	return slog.Default().With(slog.String("component", "fx_converter"))
}
