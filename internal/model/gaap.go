package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GAAPReconciliation bridges IFRS net income to US GAAP via named adjustments.
type GAAPReconciliation struct {
	ReconciliationID string
	PeriodEnd        time.Time
	IFRSNetIncome    decimal.Decimal
	USGAAPNetIncome  decimal.Decimal

	// Adjustments maps category name to amount.
	Adjustments map[string]decimal.Decimal

	DevelopmentCostsCapitalization decimal.Decimal
	LeaseClassification            decimal.Decimal
	RevenueRecognition             decimal.Decimal
	GoodwillImpairment             decimal.Decimal
	OtherAdjustments               decimal.Decimal
}

// TotalAdjustments sums all reconciling items.
func (r GAAPReconciliation) TotalAdjustments() decimal.Decimal {
	total := decimal.Zero
	for _, v := range r.Adjustments {
		total = total.Add(v)
	}
	return total
}

// Validate checks ifrs + adjustments == usgaap within tolerance.
func (r GAAPReconciliation) Validate(tolerance decimal.Decimal) bool {
	calculated := r.IFRSNetIncome.Add(r.TotalAdjustments())
	return calculated.Sub(r.USGAAPNetIncome).Abs().LessThanOrEqual(tolerance)
}
