package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// Severity ranks validation findings. Only ERROR findings fail a run.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Rule is one check against a consolidated aggregate.
type Rule interface {
	ID() string
	Severity() Severity
	// Check returns ok and, when not ok, a finding message.
	Check(consolidated model.ConsolidatedFinancials) (bool, string)
}

var centTolerance = decimal.RequireFromString("0.01")

// BalanceSheetRule checks assets = liabilities + equity.
type BalanceSheetRule struct {
	Tolerance decimal.Decimal
}

func (r BalanceSheetRule) ID() string         { return "BS_BALANCE" }
func (r BalanceSheetRule) Severity() Severity { return SeverityError }

func (r BalanceSheetRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	diff := c.BalanceDifference()
	if diff.LessThanOrEqual(r.tolerance()) {
		return true, ""
	}
	return false, fmt.Sprintf(
		"balance sheet out of balance by %s: assets=%s, liabilities+equity=%s",
		diff, c.TotalAssets, c.TotalLiabilities.Add(c.TotalEquity))
}

func (r BalanceSheetRule) tolerance() decimal.Decimal {
	if r.Tolerance.IsPositive() {
		return r.Tolerance
	}
	return centTolerance
}

// DebitCreditRule checks total debits equal total credits on the underlying
// trial balance.
type DebitCreditRule struct{}

func (DebitCreditRule) ID() string         { return "DR_CR_BALANCE" }
func (DebitCreditRule) Severity() Severity { return SeverityError }

func (DebitCreditRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	debits, credits := decimal.Zero, decimal.Zero
	for _, entry := range c.TrialBalance {
		debits = debits.Add(entry.Original.Debit)
		credits = credits.Add(entry.Original.Credit)
	}
	diff := debits.Sub(credits).Abs()
	if diff.LessThanOrEqual(centTolerance) {
		return true, ""
	}
	return false, fmt.Sprintf("debit/credit imbalance: debits=%s, credits=%s, difference=%s", debits, credits, diff)
}

// NetIncomeRule checks net income = revenue - expenses.
type NetIncomeRule struct{}

func (NetIncomeRule) ID() string         { return "NET_INCOME" }
func (NetIncomeRule) Severity() Severity { return SeverityError }

func (NetIncomeRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	calculated := c.TotalRevenue.Sub(c.TotalExpenses)
	diff := c.NetIncome.Sub(calculated).Abs()
	if diff.LessThanOrEqual(centTolerance) {
		return true, ""
	}
	return false, fmt.Sprintf(
		"net income mismatch: reported=%s, calculated=%s, difference=%s", c.NetIncome, calculated, diff)
}

// MinEntitiesRule flags consolidations of fewer than two entities.
type MinEntitiesRule struct {
	Minimum int
}

func (r MinEntitiesRule) ID() string         { return "MIN_ENTITIES" }
func (r MinEntitiesRule) Severity() Severity { return SeverityWarning }

func (r MinEntitiesRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	minimum := r.Minimum
	if minimum <= 0 {
		minimum = 2
	}
	if len(c.EntitiesIncluded) >= minimum {
		return true, ""
	}
	return false, fmt.Sprintf("only %d entities included, expected at least %d", len(c.EntitiesIncluded), minimum)
}

// intercompanyTerms marks account names that should have been eliminated.
var intercompanyTerms = []string{"intercompany", "ic ", "related party", "affiliate"}

// EliminationCompletenessRule flags material intercompany balances that
// survived elimination.
type EliminationCompletenessRule struct {
	Materiality decimal.Decimal
}

func (r EliminationCompletenessRule) ID() string         { return "ELIMINATION_COMPLETE" }
func (r EliminationCompletenessRule) Severity() Severity { return SeverityWarning }

func (r EliminationCompletenessRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	materiality := r.Materiality
	if !materiality.IsPositive() {
		materiality = decimal.NewFromInt(10_000)
	}

	var remaining []string
	for _, entry := range c.TrialBalance {
		name := strings.ToLower(entry.Original.AccountName)
		for _, term := range intercompanyTerms {
			if strings.Contains(name, term) && entry.ConvertedAmount.Abs().GreaterThan(materiality) {
				remaining = append(remaining, fmt.Sprintf("%s: %s", entry.Original.AccountName, entry.ConvertedAmount))
				break
			}
		}
	}
	if len(remaining) == 0 {
		return true, ""
	}
	return false, fmt.Sprintf("material intercompany balances remaining after elimination: %s", strings.Join(remaining, ", "))
}

// FXConsistencyRule flags different rates applied to the same currency pair,
// date and rate type.
type FXConsistencyRule struct{}

func (FXConsistencyRule) ID() string         { return "FX_CONSISTENCY" }
func (FXConsistencyRule) Severity() Severity { return SeverityWarning }

func (FXConsistencyRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	groups := make(map[string]map[string]struct{})
	for _, entry := range c.TrialBalance {
		rate := entry.Rate
		key := fmt.Sprintf("%s/%s on %s (%s)", rate.From, rate.To, model.DayKey(rate.RateDate), rate.RateType)
		if groups[key] == nil {
			groups[key] = make(map[string]struct{})
		}
		groups[key][rate.Rate.String()] = struct{}{}
	}

	var inconsistent []string
	for key, rates := range groups {
		if len(rates) > 1 {
			inconsistent = append(inconsistent, key)
		}
	}
	if len(inconsistent) == 0 {
		return true, ""
	}
	sort.Strings(inconsistent)
	return false, fmt.Sprintf("inconsistent FX rates found: %s", strings.Join(inconsistent, ", "))
}

// ReasonablenessRule sanity-checks headline metrics.
type ReasonablenessRule struct{}

func (ReasonablenessRule) ID() string         { return "REASONABLENESS" }
func (ReasonablenessRule) Severity() Severity { return SeverityWarning }

func (ReasonablenessRule) Check(c model.ConsolidatedFinancials) (bool, string) {
	var findings []string

	if c.TotalEquity.IsNegative() {
		findings = append(findings, "negative equity position")
	}
	if c.TotalAssets.IsNegative() {
		findings = append(findings, "negative total assets")
	}
	if c.TotalEquity.IsPositive() {
		debtToEquity := c.TotalLiabilities.Div(c.TotalEquity)
		if debtToEquity.GreaterThan(decimal.NewFromInt(10)) {
			findings = append(findings, fmt.Sprintf("very high debt-to-equity ratio: %s", debtToEquity.StringFixed(2)))
		}
	}
	if c.TotalRevenue.IsNegative() {
		findings = append(findings, "negative total revenue")
	}

	if len(findings) == 0 {
		return true, ""
	}
	return false, fmt.Sprintf("reasonableness checks: %s", strings.Join(findings, "; "))
}
