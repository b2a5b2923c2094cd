package gaap

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

const disclosureRule = "======================================================================"

// Disclosure renders the reconciliation as SEC filing text, amounts printed
// with thousands separators.
func (e *Engine) Disclosure(reconciliation model.GAAPReconciliation) string {
	printer := message.NewPrinter(language.AmericanEnglish)

	var b strings.Builder
	b.WriteString("RECONCILIATION OF NET INCOME UNDER IFRS TO US GAAP\n")
	b.WriteString(disclosureRule + "\n\n")

	for _, row := range e.Table(reconciliation) {
		value, _ := row.Amount.Round(2).Float64()
		amount := printer.Sprintf("$%.2f", value)
		fmt.Fprintf(&b, "%-50s %18s\n", row.Description, amount)
	}

	b.WriteString("\n" + disclosureRule + "\n")

	if notes := adjustmentNotes(reconciliation); notes != "" {
		b.WriteString("\nNotes:\n")
		b.WriteString(notes)
	}
	return b.String()
}

func adjustmentNotes(reconciliation model.GAAPReconciliation) string {
	var notes []string

	if !reconciliation.DevelopmentCostsCapitalization.IsZero() {
		notes = append(notes,
			"Development Costs: Under IFRS, development costs meeting certain "+
				"criteria are capitalized. Under US GAAP, research and development "+
				"costs are generally expensed as incurred.")
	}
	if !reconciliation.GoodwillImpairment.IsZero() {
		notes = append(notes,
			"Goodwill Impairment: IFRS uses a single-step impairment test, while "+
				"US GAAP allows for qualitative assessment. This may result in "+
				"timing differences in impairment recognition.")
	}
	if !reconciliation.RevenueRecognition.IsZero() {
		notes = append(notes,
			"Revenue Recognition: While IFRS 15 and ASC 606 are largely converged, "+
				"differences exist in specific areas such as principal vs. agent "+
				"considerations and licensing arrangements.")
	}

	numbered := make([]string, len(notes))
	for i, note := range notes {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, note)
	}
	return strings.Join(numbered, "\n\n")
}
