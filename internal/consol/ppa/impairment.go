package ppa

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// Qualitative indicators that alone mandate a quantitative test.
const (
	IndicatorSignificantAdverseChange    = "significant_adverse_change"
	IndicatorAdverseFinancialPerformance = "adverse_financial_performance"
	IndicatorRegulatoryChanges           = "regulatory_changes"
	IndicatorIncreasedCompetition        = "increased_competition"
	IndicatorKeyPersonnelDeparture       = "key_personnel_departure"
)

// ImpairmentRecord is one quantitative impairment outcome kept in the
// append-only history.
type ImpairmentRecord struct {
	PPAID             string
	EntityID          string
	TestedAt          time.Time
	ImpairmentAmount  decimal.Decimal
	CarryingAmount    decimal.Decimal
	RecoverableAmount decimal.Decimal
}

// ImpairmentTester runs goodwill impairment tests and keeps their history.
type ImpairmentTester struct {
	mu      sync.Mutex
	history []ImpairmentRecord
	now     func() time.Time
}

// NewImpairmentTester constructs a tester.
func NewImpairmentTester() *ImpairmentTester {
	return &ImpairmentTester{now: func() time.Time { return time.Now().UTC() }}
}

// Qualitative runs the screening step. Two or more triggered indicators, or
// either high-severity indicator alone, mandate a quantitative test.
func (t *ImpairmentTester) Qualitative(indicators map[string]bool) (bool, string) {
	var triggered []string
	for name, present := range indicators {
		if present {
			triggered = append(triggered, name)
		}
	}
	sort.Strings(triggered)

	if len(triggered) >= 2 {
		return true, fmt.Sprintf("multiple impairment indicators: %s", strings.Join(triggered, ", "))
	}
	if indicators[IndicatorSignificantAdverseChange] {
		return true, "significant adverse change in business climate"
	}
	if indicators[IndicatorAdverseFinancialPerformance] {
		return true, "sustained underperformance vs projections"
	}
	return false, "no indicators of impairment"
}

// Quantitative measures impairment as the excess of carrying amount over
// recoverable amount, floored at zero. Impairments are appended to history.
func (t *ImpairmentTester) Quantitative(allocation model.PurchasePriceAllocation, carrying, recoverable decimal.Decimal) (decimal.Decimal, string) {
	if carrying.LessThanOrEqual(recoverable) {
		return decimal.Zero, "no impairment: recoverable amount exceeds carrying amount"
	}

	impairment := carrying.Sub(recoverable)
	t.mu.Lock()
	t.history = append(t.history, ImpairmentRecord{
		PPAID:             allocation.PPAID,
		EntityID:          allocation.EntityID,
		TestedAt:          t.now(),
		ImpairmentAmount:  impairment,
		CarryingAmount:    carrying,
		RecoverableAmount: recoverable,
	})
	t.mu.Unlock()

	return impairment, fmt.Sprintf(
		"goodwill impairment: carrying amount %s exceeds recoverable amount %s", carrying, recoverable)
}

// History returns impairment records, filtered by entity when entityID is
// non-empty.
func (t *ImpairmentTester) History(entityID string) []ImpairmentRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ImpairmentRecord, 0, len(t.history))
	for _, record := range t.history {
		if entityID == "" || record.EntityID == entityID {
			out = append(out, record)
		}
	}
	return out
}
