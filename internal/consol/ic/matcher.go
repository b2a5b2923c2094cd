package ic

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// DefaultTolerance is the FX/amount matching tolerance (1%).
var DefaultTolerance = decimal.RequireFromString("0.01")

// Pair keys the rate table supplied to the matcher.
type Pair struct {
	From model.Currency
	To   model.Currency
}

// Matcher pairs intercompany entries across entities within tolerance.
type Matcher struct {
	tolerance decimal.Decimal
	audit     shared.AuditRecorder
	logger    *slog.Logger
}

// NewMatcher constructs a matcher. A non-positive tolerance falls back to the
// default 1%.
func NewMatcher(tolerance decimal.Decimal, audit shared.AuditRecorder, logger *slog.Logger) *Matcher {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &Matcher{tolerance: tolerance, audit: audit, logger: logger}
}

type candidate struct {
	ar   model.TrialBalanceEntry
	ap   model.TrialBalanceEntry
	diff decimal.Decimal
	fx   decimal.Decimal
}

// MatchReceivablesPayables pairs receivable and payable entries across
// entities. All in-tolerance candidates are collected and sorted by amount
// difference (ties broken by entry IDs) before greedy assignment, so the
// outcome does not depend on input ordering.
func (m *Matcher) MatchReceivablesPayables(receivables, payables []model.TrialBalanceEntry, rates map[Pair]model.FXRate) []model.IntercompanyTransaction {
	candidates := make([]candidate, 0)
	for _, ar := range receivables {
		for _, ap := range payables {
			if ar.EntityID == ap.EntityID {
				continue
			}
			ok, fxDiff, diff := m.matchPair(ar, ap, rates)
			if ok {
				candidates = append(candidates, candidate{ar: ar, ap: ap, diff: diff, fx: fxDiff})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].diff.Equal(candidates[j].diff) {
			return candidates[i].diff.LessThan(candidates[j].diff)
		}
		if candidates[i].ar.EntryID != candidates[j].ar.EntryID {
			return candidates[i].ar.EntryID < candidates[j].ar.EntryID
		}
		return candidates[i].ap.EntryID < candidates[j].ap.EntryID
	})

	matchedAR := make(map[string]struct{})
	matchedAP := make(map[string]struct{})
	matches := make([]model.IntercompanyTransaction, 0, len(candidates))

	for _, cand := range candidates {
		if _, taken := matchedAR[cand.ar.EntryID]; taken {
			continue
		}
		if _, taken := matchedAP[cand.ap.EntryID]; taken {
			continue
		}
		matchedAR[cand.ar.EntryID] = struct{}{}
		matchedAP[cand.ap.EntryID] = struct{}{}

		matches = append(matches, model.IntercompanyTransaction{
			TransactionID:   uuid.NewString(),
			EntityAID:       cand.ar.EntityID,
			EntityBID:       cand.ap.EntityID,
			EliminationType: model.ReceivablePayable,
			AmountEntityA:   cand.ar.FunctionalAmount(),
			AmountEntityB:   cand.ap.FunctionalAmount(),
			CurrencyA:       cand.ar.Currency,
			CurrencyB:       cand.ap.Currency,
			TransactionDate: cand.ar.PeriodEnd,
			ReferenceNumber: cand.ar.Description,
			FXGainLoss:      cand.fx,
		})
		m.record(shared.AuditEntry{
			Action:      "MATCH_INTERCOMPANY",
			EntityID:    cand.ar.EntityID,
			Description: fmt.Sprintf("matched AR %s with AP %s, fx diff %s", cand.ar.EntryID, cand.ap.EntryID, cand.fx),
		})
	}

	unmatchedAR := len(receivables) - len(matchedAR)
	unmatchedAP := len(payables) - len(matchedAP)
	if unmatchedAR > 0 || unmatchedAP > 0 {
		m.record(shared.AuditEntry{
			Action:      "UNMATCHED_INTERCOMPANY",
			Description: fmt.Sprintf("unmatched: %d receivables, %d payables", unmatchedAR, unmatchedAP),
		})
		m.log().Info("unmatched intercompany balances",
			slog.Int("receivables", unmatchedAR), slog.Int("payables", unmatchedAP))
	}

	return matches
}

// matchPair checks two entries for an in-tolerance match. When the legs are in
// different currencies and a rate is supplied, the receivable leg is converted
// before comparison and the residual becomes an FX gain/loss; without a rate
// the raw functional amounts are compared.
func (m *Matcher) matchPair(ar, ap model.TrialBalanceEntry, rates map[Pair]model.FXRate) (bool, decimal.Decimal, decimal.Decimal) {
	amountA := ar.FunctionalAmount()
	amountB := ap.FunctionalAmount()

	if ar.Currency != ap.Currency {
		if rate, ok := rates[Pair{From: ar.Currency, To: ap.Currency}]; ok {
			converted := amountA.Mul(rate.Rate)
			diff := converted.Sub(amountB).Abs()
			tolerance := amountB.Mul(m.tolerance)
			if diff.LessThanOrEqual(tolerance) {
				return true, converted.Sub(amountB), diff
			}
			return false, decimal.Zero, decimal.Zero
		}
	}

	diff := amountA.Sub(amountB).Abs()
	tolerance := decimal.Max(amountA, amountB).Mul(m.tolerance)
	if diff.LessThanOrEqual(tolerance) {
		return true, decimal.Zero, diff
	}
	return false, decimal.Zero, decimal.Zero
}

// MatchRevenuesExpenses pairs intercompany revenue and expense entries joined
// on description (account code when blank) and gated on a registered
// parent-subsidiary relationship. No amount tolerance applies.
func (m *Matcher) MatchRevenuesExpenses(revenues, expenses []model.TrialBalanceEntry, relationships map[string]string) []model.IntercompanyTransaction {
	revenueByRef := make(map[string][]model.TrialBalanceEntry)
	for _, rev := range revenues {
		ref := joinKey(rev)
		revenueByRef[ref] = append(revenueByRef[ref], rev)
	}

	matches := make([]model.IntercompanyTransaction, 0)
	for _, exp := range expenses {
		ref := joinKey(exp)
		for _, rev := range revenueByRef[ref] {
			if !relatedEntities(rev.EntityID, exp.EntityID, relationships) {
				continue
			}
			matches = append(matches, model.IntercompanyTransaction{
				TransactionID:   uuid.NewString(),
				EntityAID:       rev.EntityID,
				EntityBID:       exp.EntityID,
				EliminationType: model.RevenueExpense,
				AmountEntityA:   rev.FunctionalAmount(),
				AmountEntityB:   exp.FunctionalAmount(),
				CurrencyA:       rev.Currency,
				CurrencyB:       exp.Currency,
				TransactionDate: rev.PeriodEnd,
				ReferenceNumber: ref,
			})
		}
	}
	return matches
}

func joinKey(entry model.TrialBalanceEntry) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.AccountCode
}

func relatedEntities(a, b string, relationships map[string]string) bool {
	return relationships[a] == b || relationships[b] == a
}

func (m *Matcher) record(entry shared.AuditEntry) {
	if m.audit != nil {
		m.audit.Record(entry)
	}
}

func (m *Matcher) log() *slog.Logger {
	if m != nil && m.logger != nil {
		return m.logger.With(slog.String("component", "ic_matcher"))
	}
	return slog.Default().With(slog.String("component", "ic_matcher"))
}
