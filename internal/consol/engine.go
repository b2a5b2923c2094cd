package consol

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/consol/fx"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol/gaap"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol/ic"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol/ppa"
	"github.com/escotilha/nuvini-ai-fpa/internal/consol/validate"
	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Config carries run-level settings for an engine.
type Config struct {
	PresentationCurrency model.Currency
	Standard             model.AccountingStandard
	EliminationTolerance decimal.Decimal
	AccuracyTarget       decimal.Decimal
}

// ConsolidateParams drive one consolidation run.
type ConsolidateParams struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	ChartOfAccounts map[string]string
	// IncludeGAAP triggers the IFRS to US GAAP bridge after validation.
	IncludeGAAP     bool
	GAAPAdjustments map[string]decimal.Decimal
}

// Engine orchestrates a consolidation: FX conversion, intercompany
// elimination, PPA amortization, aggregation, validation and the optional
// GAAP bridge. One engine serves one group; per-run FX/CTA state is reset at
// the start of each Consolidate call.
type Engine struct {
	cfg Config

	Rates      *fx.RateManager
	Converter  *fx.Converter
	Eliminator *ic.Eliminator
	PPA        *ppa.Manager
	Dual       *gaap.DualReporter
	Validator  *validate.Validator

	mu       sync.Mutex
	state    State
	entities map[string]model.Entity
	balances map[string][]model.TrialBalanceEntry

	trail  *shared.AuditTrail
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs an engine with its component stack wired to a shared
// audit trail.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.PresentationCurrency == "" {
		cfg.PresentationCurrency = model.USD
	}
	if cfg.Standard == "" {
		cfg.Standard = model.IFRS
	}

	trail := shared.NewAuditTrail()
	rates := fx.NewRateManager(trail, logger)
	return &Engine{
		cfg:        cfg,
		Rates:      rates,
		Converter:  fx.NewConverter(rates, logger),
		Eliminator: ic.NewEliminator(cfg.EliminationTolerance, trail, logger),
		PPA:        ppa.NewManager(trail, logger),
		Dual:       gaap.NewDualReporter(trail, logger),
		Validator:  validate.NewValidator(cfg.AccuracyTarget, logger),
		state:      StateCreated,
		entities:   make(map[string]model.Entity),
		balances:   make(map[string][]model.TrialBalanceEntry),
		trail:      trail,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// State returns the engine's pipeline state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// AuditTrail returns a snapshot of the run's audit entries.
func (e *Engine) AuditTrail() []shared.AuditEntry {
	return e.trail.Entries()
}

// RegisterEntity adds an entity to the consolidation group.
func (e *Engine) RegisterEntity(entity model.Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.transitionLocked(StateRegisteredEntities); err != nil {
		return err
	}
	e.entities[entity.EntityID] = entity
	e.trail.Record(shared.AuditEntry{
		Action:      "REGISTER_ENTITY",
		EntityID:    entity.EntityID,
		Description: fmt.Sprintf("registered %s (%s%% ownership)", entity.Name, entity.OwnershipPercentage),
	})
	return nil
}

// LoadTrialBalance stores an entity's trial balance for the run. The caller
// is responsible for data quality; loading replaces any previous balance for
// the entity.
func (e *Engine) LoadTrialBalance(entityID string, entries []model.TrialBalanceEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.entities[entityID]; !ok {
		return fmt.Errorf("load trial balance for %s: %w", entityID, shared.ErrEntityNotRegistered)
	}
	if err := e.transitionLocked(StateLoadedBalances); err != nil {
		return err
	}
	e.balances[entityID] = entries
	e.trail.Record(shared.AuditEntry{
		Action:      "LOAD_TRIAL_BALANCE",
		EntityID:    entityID,
		Description: fmt.Sprintf("loaded %d trial balance entries", len(entries)),
	})
	return nil
}

// Consolidate runs the full pipeline for one period. On failure the partial
// audit trail is the record of the run; nothing is rolled back.
func (e *Engine) Consolidate(ctx context.Context, params ConsolidateParams) (model.ConsolidatedFinancials, error) {
	e.trail.Record(shared.AuditEntry{
		Action:      "START_CONSOLIDATION",
		Description: fmt.Sprintf("starting consolidation for %s", model.DayKey(params.PeriodEnd)),
	})
	e.Converter.ResetCTA("")

	converted, err := e.convertAll(ctx, params)
	if err != nil {
		return model.ConsolidatedFinancials{}, err
	}
	if err := e.transition(StateConverted); err != nil {
		return model.ConsolidatedFinancials{}, err
	}

	eliminations, stats := e.eliminate(params)
	if err := e.transition(StateEliminated); err != nil {
		return model.ConsolidatedFinancials{}, err
	}

	ppaEntries := e.applyPPA(params.PeriodEnd)
	if err := e.transition(StatePPAApplied); err != nil {
		return model.ConsolidatedFinancials{}, err
	}

	consolidated := e.aggregate(converted, eliminations, ppaEntries, params.PeriodEnd)
	if err := e.transition(StateAggregated); err != nil {
		return model.ConsolidatedFinancials{}, err
	}

	e.validateRun(&consolidated)
	if err := e.transition(StateValidated); err != nil {
		return model.ConsolidatedFinancials{}, err
	}

	if params.IncludeGAAP && e.cfg.Standard == model.IFRS {
		if _, _, err := e.Dual.Prepare(consolidated, params.GAAPAdjustments); err != nil {
			return model.ConsolidatedFinancials{}, err
		}
		if err := e.transition(StateGAAPReconciled); err != nil {
			return model.ConsolidatedFinancials{}, err
		}
	}

	if err := e.transition(StateComplete); err != nil {
		return model.ConsolidatedFinancials{}, err
	}
	e.trail.Record(shared.AuditEntry{
		Action:      "COMPLETE_CONSOLIDATION",
		RunID:       consolidated.ConsolidationID,
		Description: fmt.Sprintf("consolidation complete: %d entities, %d eliminations", len(e.entityIDs()), stats.TotalEliminations),
	})
	return consolidated, nil
}

// convertAll translates every loaded trial balance into the presentation
// currency, entity by entity in id order.
func (e *Engine) convertAll(ctx context.Context, params ConsolidateParams) ([]model.ConvertedEntry, error) {
	var converted []model.ConvertedEntry
	for _, entityID := range e.entityIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entity := e.entityByID(entityID)
		entries := e.balancesFor(entityID)

		for _, entry := range entries {
			convertedEntry, err := e.Converter.ConvertEntry(entry, e.cfg.PresentationCurrency, params.PeriodStart)
			if err != nil {
				return nil, err
			}
			converted = append(converted, convertedEntry)
		}
		e.trail.Record(shared.AuditEntry{
			Action:      "CONVERT_CURRENCY",
			EntityID:    entityID,
			Description: fmt.Sprintf("converted %d entries from %s to %s", len(entries), entity.FunctionalCurrency, e.cfg.PresentationCurrency),
		})
	}
	return converted, nil
}

// eliminate runs the intercompany pass over the flattened balances.
func (e *Engine) eliminate(params ConsolidateParams) ([]model.EliminationEntry, ic.Stats) {
	var all []model.TrialBalanceEntry
	relationships := make(map[string]string)
	rates := make(map[ic.Pair]model.FXRate)

	for _, entityID := range e.entityIDs() {
		all = append(all, e.balancesFor(entityID)...)

		entity := e.entityByID(entityID)
		if entity.ParentEntityID != "" {
			relationships[entity.EntityID] = entity.ParentEntityID
		}
		if entity.FunctionalCurrency != e.cfg.PresentationCurrency {
			pair := ic.Pair{From: entity.FunctionalCurrency, To: e.cfg.PresentationCurrency}
			if _, ok := rates[pair]; !ok {
				if rate, err := e.Rates.GetRate(pair.From, pair.To, params.PeriodEnd, model.RateClosing); err == nil {
					rates[pair] = rate
				}
			}
		}
	}

	eliminations, stats := e.Eliminator.Process(all, relationships, rates, e.cfg.PresentationCurrency, params.PeriodEnd, params.ChartOfAccounts)
	e.trail.Record(shared.AuditEntry{
		Action:      "CREATE_ELIMINATIONS",
		Description: fmt.Sprintf("created %d eliminations totaling %s", stats.TotalEliminations, stats.TotalEliminated),
	})
	return eliminations, stats
}

// applyPPA collects the month's amortization across entities.
func (e *Engine) applyPPA(periodEnd time.Time) []model.AmortizationEntry {
	var entries []model.AmortizationEntry
	for _, entityID := range e.entityIDs() {
		entries = append(entries, e.PPA.EntriesForEntity(entityID, periodEnd)...)
	}
	if len(entries) > 0 {
		total := decimal.Zero
		for _, entry := range entries {
			total = total.Add(entry.MonthlyAmortization)
		}
		e.trail.Record(shared.AuditEntry{
			Action:      "APPLY_PPA",
			Description: fmt.Sprintf("applied %d PPA amortization entries totaling %s", len(entries), total),
		})
	}
	return entries
}

// aggregate sums converted entries into bucket totals. Credit-normal account
// types contribute the negated net amount, so a trial balance whose debits
// equal credits produces a balanced group balance sheet by construction.
// Elimination offsets dispatch on the elimination type, PPA amortization lands
// in expenses, and net income is folded into equity.
func (e *Engine) aggregate(converted []model.ConvertedEntry, eliminations []model.EliminationEntry, ppaEntries []model.AmortizationEntry, periodEnd time.Time) model.ConsolidatedFinancials {
	consolidated := model.ConsolidatedFinancials{
		ConsolidationID:      uuid.NewString(),
		PeriodEnd:            periodEnd,
		PresentationCurrency: e.cfg.PresentationCurrency,
		Standard:             e.cfg.Standard,
		EntitiesIncluded:     e.entityIDs(),
		TrialBalance:         converted,
		Eliminations:         eliminations,
		PPAAdjustments:       ppaEntries,
		CreatedAt:            e.now(),
		CreatedBy:            "system",
	}

	for _, entry := range converted {
		amount := entry.ConvertedAmount
		if entry.Original.AccountType.CreditNormal() {
			amount = amount.Neg()
		}
		switch entry.Original.AccountType.Bucket() {
		case model.BucketAssets:
			consolidated.TotalAssets = consolidated.TotalAssets.Add(amount)
		case model.BucketLiabilities:
			consolidated.TotalLiabilities = consolidated.TotalLiabilities.Add(amount)
		case model.BucketEquity:
			consolidated.TotalEquity = consolidated.TotalEquity.Add(amount)
		case model.BucketRevenue:
			consolidated.TotalRevenue = consolidated.TotalRevenue.Add(amount)
		case model.BucketExpenses:
			consolidated.TotalExpenses = consolidated.TotalExpenses.Add(amount)
		}
	}

	for _, elim := range eliminations {
		amount := elim.EliminationAmount
		switch elim.Transaction.EliminationType {
		case model.ReceivablePayable, model.Loan:
			consolidated.TotalAssets = consolidated.TotalAssets.Sub(amount)
			consolidated.TotalLiabilities = consolidated.TotalLiabilities.Sub(amount)
		case model.RevenueExpense:
			consolidated.TotalRevenue = consolidated.TotalRevenue.Sub(amount)
			consolidated.TotalExpenses = consolidated.TotalExpenses.Sub(amount)
		case model.Dividend:
			consolidated.TotalRevenue = consolidated.TotalRevenue.Sub(amount)
			consolidated.TotalLiabilities = consolidated.TotalLiabilities.Sub(amount)
		case model.EquityInvestment:
			consolidated.TotalAssets = consolidated.TotalAssets.Sub(amount)
			consolidated.TotalEquity = consolidated.TotalEquity.Sub(amount)
		}
	}

	for _, entry := range ppaEntries {
		consolidated.TotalExpenses = consolidated.TotalExpenses.Add(entry.MonthlyAmortization)
	}

	consolidated.NetIncome = consolidated.TotalRevenue.Sub(consolidated.TotalExpenses)
	consolidated.TotalEquity = consolidated.TotalEquity.Add(consolidated.NetIncome)
	consolidated.TotalCTA = e.Converter.TotalCTA("")
	return consolidated
}

// validateRun attaches the rule findings and balance verdict to the
// aggregate. Failures are audited; the run still yields its financials.
func (e *Engine) validateRun(consolidated *model.ConsolidatedFinancials) {
	ok, findings := e.Validator.ValidateAll(*consolidated)
	for _, finding := range findings {
		consolidated.ValidationErrors = append(consolidated.ValidationErrors,
			fmt.Sprintf("[%s] %s", finding.RuleID, finding.Message))
	}
	consolidated.ValidateBalance(decimal.RequireFromString("0.01"))

	if !ok || !consolidated.IsBalanced {
		e.trail.Record(shared.AuditEntry{
			Action:      "VALIDATION_ERROR",
			RunID:       consolidated.ConsolidationID,
			Description: fmt.Sprintf("consolidation failed validation: %v", consolidated.ValidationErrors),
		})
		e.log().Warn("consolidation failed validation",
			slog.String("run_id", consolidated.ConsolidationID),
			slog.Int("findings", len(consolidated.ValidationErrors)))
	}
}

func (e *Engine) transition(target State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transitionLocked(target)
}

func (e *Engine) transitionLocked(target State) error {
	if err := ValidateTransition(e.state, target); err != nil {
		return err
	}
	e.state = target
	return nil
}

func (e *Engine) entityIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.entities))
	for id := range e.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) entityByID(id string) model.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entities[id]
}

func (e *Engine) balancesFor(id string) []model.TrialBalanceEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[id]
}

func (e *Engine) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger.With(slog.String("component", "consol_engine"))
	}
	return slog.Default().With(slog.String("component", "consol_engine"))
}
