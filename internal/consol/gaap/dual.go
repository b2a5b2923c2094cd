package gaap

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// DualReporter keeps IFRS and US GAAP versions of each period's financials,
// for foreign private issuers filing on US exchanges.
type DualReporter struct {
	Engine *Engine

	mu     sync.RWMutex
	ifrs   map[string]model.ConsolidatedFinancials
	usGAAP map[string]model.ConsolidatedFinancials
	logger *slog.Logger
}

// NewDualReporter constructs a dual reporter.
func NewDualReporter(audit shared.AuditRecorder, logger *slog.Logger) *DualReporter {
	return &DualReporter{
		Engine: NewEngine(audit, logger),
		ifrs:   make(map[string]model.ConsolidatedFinancials),
		usGAAP: make(map[string]model.ConsolidatedFinancials),
		logger: logger,
	}
}

// Prepare reconciles and derives the US GAAP rendition of the IFRS run. The
// US GAAP copy carries adjusted net income and equity and is re-validated
// against the balance-sheet identity. Both versions are stored by period.
func (d *DualReporter) Prepare(ifrs model.ConsolidatedFinancials, adjustments map[string]decimal.Decimal) (model.ConsolidatedFinancials, model.GAAPReconciliation, error) {
	reconciliation, err := d.Engine.Create(ifrs, adjustments, ifrs.PeriodEnd)
	if err != nil {
		return model.ConsolidatedFinancials{}, model.GAAPReconciliation{}, err
	}

	total := reconciliation.TotalAdjustments()

	usGAAP := ifrs
	usGAAP.Standard = model.USGAAP
	usGAAP.EntitiesIncluded = append([]string(nil), ifrs.EntitiesIncluded...)
	usGAAP.TrialBalance = append([]model.ConvertedEntry(nil), ifrs.TrialBalance...)
	usGAAP.Eliminations = append([]model.EliminationEntry(nil), ifrs.Eliminations...)
	usGAAP.PPAAdjustments = append([]model.AmortizationEntry(nil), ifrs.PPAAdjustments...)
	usGAAP.ValidationErrors = nil
	usGAAP.NetIncome = ifrs.NetIncome.Add(total)
	usGAAP.TotalEquity = ifrs.TotalEquity.Add(total)
	usGAAP.ValidateBalance(reconciliationTolerance)

	key := periodKey(ifrs.PeriodEnd)
	d.mu.Lock()
	d.ifrs[key] = ifrs
	d.usGAAP[key] = usGAAP
	d.mu.Unlock()

	return usGAAP, reconciliation, nil
}

// Comparative returns both renditions for a period. Missing renditions come
// back as nil.
func (d *DualReporter) Comparative(periodEnd time.Time) (*model.ConsolidatedFinancials, *model.ConsolidatedFinancials) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	key := periodKey(periodEnd)
	var ifrs, usGAAP *model.ConsolidatedFinancials
	if v, ok := d.ifrs[key]; ok {
		ifrs = &v
	}
	if v, ok := d.usGAAP[key]; ok {
		usGAAP = &v
	}
	return ifrs, usGAAP
}

func periodKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
