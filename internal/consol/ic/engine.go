package ic

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

// Chart-of-accounts keys recognised for elimination journals. Missing keys
// fall back to literal descriptions rather than failing the run.
const (
	ChartICReceivable     = "IC_RECEIVABLE"
	ChartICPayable        = "IC_PAYABLE"
	ChartICRevenue        = "IC_REVENUE"
	ChartICExpense        = "IC_EXPENSE"
	ChartFXGainLoss       = "FX_GAIN_LOSS"
	ChartDividendIncome   = "DIVIDEND_INCOME"
	ChartDividendPayable  = "DIVIDEND_PAYABLE"
	ChartEquityInvestment = "EQUITY_INVESTMENT"
	ChartSubsidiaryEquity = "SUBSIDIARY_EQUITY"
)

// Engine materialises matched intercompany transactions into elimination
// journal entries.
type Engine struct {
	mu           sync.Mutex
	eliminations []model.EliminationEntry
	audit        shared.AuditRecorder
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine constructs an elimination engine.
func NewEngine(audit shared.AuditRecorder, logger *slog.Logger) *Engine {
	return &Engine{
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEntry builds the journal entry for one matched transaction. Account
// codes are resolved from the caller's chart of accounts by elimination type;
// the elimination amount is the mean of the two legs.
func (e *Engine) CreateEntry(tx model.IntercompanyTransaction, presentation model.Currency, periodEnd time.Time, chart map[string]string) model.EliminationEntry {
	debitAccount, creditAccount := accountsFor(tx.EliminationType, chart)

	amount := tx.AmountEntityA.Add(tx.AmountEntityB).Div(decimal.NewFromInt(2))

	fxAccount := ""
	if !tx.FXGainLoss.IsZero() {
		fxAccount = chartValue(chart, ChartFXGainLoss, "FX Gain/Loss")
	}

	entry := model.EliminationEntry{
		EliminationID:     uuid.NewString(),
		Transaction:       tx,
		PeriodEnd:         periodEnd,
		DebitAccount:      debitAccount,
		CreditAccount:     creditAccount,
		EliminationAmount: amount,
		Currency:          presentation,
		FXGainLossAccount: fxAccount,
		FXGainLossAmount:  tx.FXGainLoss,
		Notes:             fmt.Sprintf("Elimination: %s <-> %s", tx.EntityAID, tx.EntityBID),
		CreatedAt:         e.nowFn(),
		CreatedBy:         "system",
	}

	e.mu.Lock()
	e.eliminations = append(e.eliminations, entry)
	e.mu.Unlock()

	e.record(shared.AuditEntry{
		Action:      "CREATE_ELIMINATION",
		EntityID:    tx.EntityAID,
		Description: fmt.Sprintf("eliminated %s: %s %s", tx.EliminationType, amount, presentation),
	})
	return entry
}

// CreateAll materialises every matched transaction.
func (e *Engine) CreateAll(transactions []model.IntercompanyTransaction, presentation model.Currency, periodEnd time.Time, chart map[string]string) []model.EliminationEntry {
	entries := make([]model.EliminationEntry, 0, len(transactions))
	for _, tx := range transactions {
		entries = append(entries, e.CreateEntry(tx, presentation, periodEnd, chart))
	}
	return entries
}

// Summary totals eliminations by type.
func (e *Engine) Summary() map[model.EliminationType]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	summary := make(map[model.EliminationType]decimal.Decimal)
	for _, elim := range e.eliminations {
		typ := elim.Transaction.EliminationType
		summary[typ] = summary[typ].Add(elim.EliminationAmount)
	}
	return summary
}

// TotalFXImpact sums recorded FX gain/loss deltas.
func (e *Engine) TotalFXImpact() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, elim := range e.eliminations {
		total = total.Add(elim.FXGainLossAmount)
	}
	return total
}

// Entries returns a copy of the recorded eliminations.
func (e *Engine) Entries() []model.EliminationEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.EliminationEntry, len(e.eliminations))
	copy(out, e.eliminations)
	return out
}

// Reset clears recorded eliminations for a new period.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eliminations = nil
}

func accountsFor(typ model.EliminationType, chart map[string]string) (string, string) {
	switch typ {
	case model.ReceivablePayable:
		return chartValue(chart, ChartICPayable, "IC Payables"), chartValue(chart, ChartICReceivable, "IC Receivables")
	case model.RevenueExpense:
		return chartValue(chart, ChartICRevenue, "IC Revenue"), chartValue(chart, ChartICExpense, "IC Expense")
	case model.Dividend:
		return chartValue(chart, ChartDividendIncome, "Dividend Income"), chartValue(chart, ChartDividendPayable, "Dividend Payable")
	case model.EquityInvestment:
		return chartValue(chart, ChartEquityInvestment, "Investment in Subsidiary"), chartValue(chart, ChartSubsidiaryEquity, "Subsidiary Equity")
	default:
		return "IC Debit", "IC Credit"
	}
}

func chartValue(chart map[string]string, key, fallback string) string {
	if v, ok := chart[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (e *Engine) record(entry shared.AuditEntry) {
	if e.audit != nil {
		e.audit.Record(entry)
	}
}

func (e *Engine) nowFn() time.Time {
	if e != nil && e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

func (e *Engine) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger.With(slog.String("component", "ic_engine"))
	}
	return slog.Default().With(slog.String("component", "ic_engine"))
}
