package validate

import (
	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// ComplianceChecker lists missing disclosures for the reporting standard.
type ComplianceChecker struct {
	Standard model.AccountingStandard
}

// MissingDisclosures returns disclosure gaps for the consolidated aggregate.
func (c ComplianceChecker) MissingDisclosures(consolidated model.ConsolidatedFinancials) []string {
	switch c.Standard {
	case model.USGAAP:
		return usGAAPDisclosures(consolidated)
	default:
		return ifrsDisclosures(consolidated)
	}
}

func ifrsDisclosures(consolidated model.ConsolidatedFinancials) []string {
	var missing []string
	if len(consolidated.EntitiesIncluded) == 0 {
		missing = append(missing, "IAS 1: list of consolidated entities not provided")
	}
	if !consolidated.TotalCTA.IsZero() {
		missing = append(missing, "IAS 21: CTA movement disclosure required")
	}
	return missing
}

func usGAAPDisclosures(consolidated model.ConsolidatedFinancials) []string {
	var missing []string
	if len(consolidated.EntitiesIncluded) == 0 {
		missing = append(missing, "ASC 810: consolidation policy disclosure missing")
	}
	return missing
}
