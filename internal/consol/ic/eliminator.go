package ic

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Stats summarises one elimination pass.
type Stats struct {
	TotalEliminations int
	ARAPEliminations  int
	RevExpPairs       int
	TotalEliminated   decimal.Decimal
	TotalFXImpact     decimal.Decimal
	ByType            map[model.EliminationType]decimal.Decimal
}

// Eliminator combines matching and journal creation for one run.
type Eliminator struct {
	Matcher *Matcher
	Engine  *Engine
	logger  *slog.Logger
}

// NewEliminator wires a matcher and engine sharing the run's audit recorder.
func NewEliminator(tolerance decimal.Decimal, audit shared.AuditRecorder, logger *slog.Logger) *Eliminator {
	return &Eliminator{
		Matcher: NewMatcher(tolerance, audit, logger),
		Engine:  NewEngine(audit, logger),
		logger:  logger,
	}
}

// Process runs the complete elimination pass over the group's trial balances.
// Candidate selection keys on account type plus a receivable/payable name
// hint, since connector charts carry no intercompany flag.
func (e *Eliminator) Process(
	entries []model.TrialBalanceEntry,
	relationships map[string]string,
	rates map[Pair]model.FXRate,
	presentation model.Currency,
	periodEnd time.Time,
	chart map[string]string,
) ([]model.EliminationEntry, Stats) {
	var receivables, payables, revenues, expenses []model.TrialBalanceEntry
	for _, entry := range entries {
		switch entry.AccountType {
		case model.BalanceSheetAsset:
			if strings.Contains(strings.ToLower(entry.AccountName), "receivable") && entry.NetAmount().IsPositive() {
				receivables = append(receivables, entry)
			}
		case model.BalanceSheetLiability:
			if strings.Contains(strings.ToLower(entry.AccountName), "payable") && entry.NetAmount().IsNegative() {
				payables = append(payables, entry)
			}
		case model.Income:
			revenues = append(revenues, entry)
		case model.Expense:
			expenses = append(expenses, entry)
		}
	}

	arAP := e.Matcher.MatchReceivablesPayables(receivables, payables, rates)
	revExp := e.Matcher.MatchRevenuesExpenses(revenues, expenses, relationships)

	all := append(append([]model.IntercompanyTransaction{}, arAP...), revExp...)
	eliminations := e.Engine.CreateAll(all, presentation, periodEnd, chart)

	total := decimal.Zero
	for _, elim := range eliminations {
		total = total.Add(elim.EliminationAmount)
	}

	stats := Stats{
		TotalEliminations: len(eliminations),
		ARAPEliminations:  len(arAP),
		RevExpPairs:       len(revExp),
		TotalEliminated:   total,
		TotalFXImpact:     e.Engine.TotalFXImpact(),
		ByType:            e.Engine.Summary(),
	}

	e.log().Info("completed intercompany eliminations",
		slog.Int("pairs", stats.TotalEliminations),
		slog.String("total_amount", stats.TotalEliminated.StringFixed(2)))
	return eliminations, stats
}

func (e *Eliminator) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger.With(slog.String("component", "ic_eliminator"))
	}
	return slog.Default().With(slog.String("component", "ic_eliminator"))
}
