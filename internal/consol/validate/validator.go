package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// DefaultAccuracyTarget is the group's accuracy bar (99.9%).
var DefaultAccuracyTarget = decimal.RequireFromString("0.999")

// Finding is one failed rule.
type Finding struct {
	RuleID   string
	Severity Severity
	Message  string
}

// Validator runs the rule set against a consolidated aggregate.
type Validator struct {
	accuracyTarget decimal.Decimal
	rules          []Rule
	logger         *slog.Logger
}

// NewValidator constructs a validator with the default rule set. A
// non-positive target falls back to 99.9%.
func NewValidator(accuracyTarget decimal.Decimal, logger *slog.Logger) *Validator {
	if !accuracyTarget.IsPositive() {
		accuracyTarget = DefaultAccuracyTarget
	}
	return &Validator{
		accuracyTarget: accuracyTarget,
		rules: []Rule{
			BalanceSheetRule{},
			DebitCreditRule{},
			NetIncomeRule{},
			MinEntitiesRule{},
			EliminationCompletenessRule{},
			FXConsistencyRule{},
			ReasonablenessRule{},
		},
		logger: logger,
	}
}

// AddRule appends a custom rule.
func (v *Validator) AddRule(rule Rule) {
	v.rules = append(v.rules, rule)
}

// ValidateAll runs every rule. The overall verdict fails only on ERROR
// findings; warnings are reported but do not gate the run.
func (v *Validator) ValidateAll(consolidated model.ConsolidatedFinancials) (bool, []Finding) {
	ok := true
	var findings []Finding
	for _, rule := range v.rules {
		passed, message := rule.Check(consolidated)
		if passed {
			continue
		}
		findings = append(findings, Finding{RuleID: rule.ID(), Severity: rule.Severity(), Message: message})
		if rule.Severity() == SeverityError {
			ok = false
		}
	}

	v.log().Info("validation completed",
		slog.Bool("passed", ok),
		slog.Int("findings", len(findings)))
	return ok, findings
}

// AccuracyScore scores the aggregate from 0 to 1 as the mean of the
// balance-sheet and net-income components, each floored at zero.
func (v *Validator) AccuracyScore(consolidated model.ConsolidatedFinancials) decimal.Decimal {
	var scores []decimal.Decimal

	if consolidated.TotalAssets.IsPositive() {
		bs := decimal.NewFromInt(1).Sub(consolidated.BalanceDifference().Div(consolidated.TotalAssets))
		scores = append(scores, decimal.Max(decimal.Zero, bs))
	}

	calculated := consolidated.TotalRevenue.Sub(consolidated.TotalExpenses)
	if !calculated.IsZero() {
		diff := consolidated.NetIncome.Sub(calculated).Abs()
		ni := decimal.NewFromInt(1).Sub(diff.Div(calculated.Abs()))
		scores = append(scores, decimal.Max(decimal.Zero, ni))
	}

	if len(scores) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, s := range scores {
		total = total.Add(s)
	}
	return total.Div(decimal.NewFromInt(int64(len(scores))))
}

// MeetsAccuracyTarget reports whether the score clears the configured bar.
func (v *Validator) MeetsAccuracyTarget(consolidated model.ConsolidatedFinancials) bool {
	return v.AccuracyScore(consolidated).GreaterThanOrEqual(v.accuracyTarget)
}

const reportRule = "======================================================================"

// Report renders the validation outcome as a reviewer-facing text report.
func (v *Validator) Report(consolidated model.ConsolidatedFinancials) string {
	ok, findings := v.ValidateAll(consolidated)
	score := v.AccuracyScore(consolidated)
	printer := message.NewPrinter(language.AmericanEnglish)

	var b strings.Builder
	b.WriteString("CONSOLIDATION VALIDATION REPORT\n")
	b.WriteString(reportRule + "\n\n")

	fmt.Fprintf(&b, "Period: %s\n", model.DayKey(consolidated.PeriodEnd))
	fmt.Fprintf(&b, "Entities: %d\n", len(consolidated.EntitiesIncluded))
	fmt.Fprintf(&b, "Accounting Standard: %s\n", consolidated.Standard)
	fmt.Fprintf(&b, "Presentation Currency: %s\n\n", consolidated.PresentationCurrency)

	status := "PASS"
	if !ok {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Overall Status: %s\n", status)
	fmt.Fprintf(&b, "Accuracy Score: %s%%\n", score.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(&b, "Target Accuracy: %s%%\n\n", v.accuracyTarget.Mul(decimal.NewFromInt(100)).StringFixed(2))

	if score.GreaterThanOrEqual(v.accuracyTarget) {
		b.WriteString("Accuracy target met\n\n")
	} else {
		b.WriteString("Accuracy target NOT met\n\n")
	}

	writeFindings(&b, "ERRORS", SeverityError, findings)
	writeFindings(&b, "WARNINGS", SeverityWarning, findings)
	writeFindings(&b, "INFORMATION", SeverityInfo, findings)

	b.WriteString("SUMMARY METRICS:\n")
	metric := func(label string, amount decimal.Decimal) {
		value, _ := amount.Round(2).Float64()
		fmt.Fprintf(&b, "  %-18s %s\n", label, printer.Sprintf("$%.2f", value))
	}
	metric("Total Assets:", consolidated.TotalAssets)
	metric("Total Liabilities:", consolidated.TotalLiabilities)
	metric("Total Equity:", consolidated.TotalEquity)
	metric("Total Revenue:", consolidated.TotalRevenue)
	metric("Total Expenses:", consolidated.TotalExpenses)
	metric("Net Income:", consolidated.NetIncome)

	b.WriteString("\n" + reportRule + "\n")
	return b.String()
}

func writeFindings(b *strings.Builder, heading string, severity Severity, findings []Finding) {
	var matched []Finding
	for _, finding := range findings {
		if finding.Severity == severity {
			matched = append(matched, finding)
		}
	}
	if len(matched) == 0 {
		return
	}
	b.WriteString(heading + ":\n")
	for _, finding := range matched {
		fmt.Fprintf(b, "  [%s] %s\n", finding.RuleID, finding.Message)
	}
	b.WriteString("\n")
}

func (v *Validator) log() *slog.Logger {
	if v != nil && v.logger != nil {
		return v.logger.With(slog.String("component", "validator"))
	}
	return slog.Default().With(slog.String("component", "validator"))
}
