package gaap

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// reconciliationTolerance is the allowed imbalance between the IFRS bridge
// and the US GAAP result.
var reconciliationTolerance = decimal.RequireFromString("0.01")

// TableRow is one line of the reconciliation table.
type TableRow struct {
	Description string
	Amount      decimal.Decimal
}

// Engine builds IFRS to US GAAP reconciliations.
type Engine struct {
	Differences *DifferenceHandler

	mu              sync.Mutex
	reconciliations []model.GAAPReconciliation
	logger          *slog.Logger
}

// NewEngine constructs a reconciliation engine.
func NewEngine(audit shared.AuditRecorder, logger *slog.Logger) *Engine {
	return &Engine{
		Differences: NewDifferenceHandler(audit, logger),
		logger:      logger,
	}
}

// Create bridges IFRS net income to US GAAP through the supplied category
// adjustments. An out-of-tolerance bridge is a hard failure; nothing is
// stored on error.
func (e *Engine) Create(ifrs model.ConsolidatedFinancials, adjustments map[string]decimal.Decimal, periodEnd time.Time) (model.GAAPReconciliation, error) {
	total := decimal.Zero
	for _, v := range adjustments {
		total = total.Add(v)
	}

	reconciliation := model.GAAPReconciliation{
		ReconciliationID:               uuid.NewString(),
		PeriodEnd:                      periodEnd,
		IFRSNetIncome:                  ifrs.NetIncome,
		USGAAPNetIncome:                ifrs.NetIncome.Add(total),
		Adjustments:                    adjustments,
		DevelopmentCostsCapitalization: adjustments[CategoryDevelopmentCosts],
		LeaseClassification:            adjustments[CategoryLease],
		RevenueRecognition:             adjustments[CategoryRevenue],
		GoodwillImpairment:             adjustments[CategoryGoodwillImpairment],
		OtherAdjustments:               adjustments[CategoryOther],
	}

	if !reconciliation.Validate(reconciliationTolerance) {
		return model.GAAPReconciliation{}, fmt.Errorf(
			"%w: IFRS %s + adjustments %s != US GAAP %s",
			shared.ErrReconciliationImbalance, ifrs.NetIncome, total, reconciliation.USGAAPNetIncome)
	}

	e.mu.Lock()
	e.reconciliations = append(e.reconciliations, reconciliation)
	e.mu.Unlock()

	e.log().Info("created GAAP reconciliation",
		slog.String("ifrs_net_income", ifrs.NetIncome.StringFixed(2)),
		slog.String("us_gaap_net_income", reconciliation.USGAAPNetIncome.StringFixed(2)))
	return reconciliation, nil
}

// Table renders the reconciliation for reporting. Zero-valued categories are
// omitted between the IFRS opening line and the totals.
func (e *Engine) Table(reconciliation model.GAAPReconciliation) []TableRow {
	rows := []TableRow{{Description: "Net Income (IFRS)", Amount: reconciliation.IFRSNetIncome}}

	categories := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Development costs adjustment", reconciliation.DevelopmentCostsCapitalization},
		{"Lease classification adjustment", reconciliation.LeaseClassification},
		{"Revenue recognition adjustment", reconciliation.RevenueRecognition},
		{"Goodwill impairment adjustment", reconciliation.GoodwillImpairment},
		{"Other adjustments", reconciliation.OtherAdjustments},
	}
	for _, category := range categories {
		if !category.amount.IsZero() {
			rows = append(rows, TableRow{Description: category.label, Amount: category.amount})
		}
	}

	rows = append(rows,
		TableRow{Description: "Total adjustments", Amount: reconciliation.TotalAdjustments()},
		TableRow{Description: "Net Income (US GAAP)", Amount: reconciliation.USGAAPNetIncome},
	)
	return rows
}

// Reconciliations returns a copy of the stored reconciliations.
func (e *Engine) Reconciliations() []model.GAAPReconciliation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.GAAPReconciliation, len(e.reconciliations))
	copy(out, e.reconciliations)
	return out
}

func (e *Engine) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger.With(slog.String("component", "gaap_engine"))
	}
	return slog.Default().With(slog.String("component", "gaap_engine"))
}
