package consol

import (
	"context"
	"log/slog"
	"time"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// QuickConsolidate runs a one-shot consolidation with sensible defaults:
// IFRS, the fallback chart of accounts, no GAAP bridge. The supplied rate
// loader seeds FX rates before conversion.
func QuickConsolidate(
	ctx context.Context,
	entities []model.Entity,
	trialBalances map[string][]model.TrialBalanceEntry,
	rates []model.FXRate,
	presentation model.Currency,
	periodStart, periodEnd time.Time,
	logger *slog.Logger,
) (model.ConsolidatedFinancials, error) {
	engine := NewEngine(Config{PresentationCurrency: presentation}, logger)

	for _, rate := range rates {
		if err := engine.Rates.AddRate(rate); err != nil {
			return model.ConsolidatedFinancials{}, err
		}
	}
	for _, entity := range entities {
		if err := engine.RegisterEntity(entity); err != nil {
			return model.ConsolidatedFinancials{}, err
		}
	}
	for entityID, entries := range trialBalances {
		if err := engine.LoadTrialBalance(entityID, entries); err != nil {
			return model.ConsolidatedFinancials{}, err
		}
	}

	return engine.Consolidate(ctx, ConsolidateParams{
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		ChartOfAccounts: defaultChart,
	})
}
