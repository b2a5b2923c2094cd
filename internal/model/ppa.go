package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchasePriceAllocation splits an acquisition's consideration into
// identifiable net assets, intangibles and residual goodwill.
type PurchasePriceAllocation struct {
	PPAID              string
	EntityID           string
	AcquisitionDate    time.Time
	PurchasePrice      decimal.Decimal
	FairValueNetAssets decimal.Decimal
	Goodwill           decimal.Decimal
	// IntangibleAssets maps asset name to fair value.
	IntangibleAssets map[string]decimal.Decimal
	// UsefulLives maps asset name to useful life in years.
	UsefulLives map[string]int
	Currency    Currency
}

// TotalIntangibles sums the identified intangible fair values.
func (p PurchasePriceAllocation) TotalIntangibles() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.IntangibleAssets {
		total = total.Add(v)
	}
	return total
}

// ExpectedGoodwill recomputes goodwill from the allocation inputs.
func (p PurchasePriceAllocation) ExpectedGoodwill() decimal.Decimal {
	return p.PurchasePrice.Sub(p.FairValueNetAssets).Sub(p.TotalIntangibles())
}

// AmortizationEntry is one monthly straight-line amortization line for a PPA
// intangible. Generated in bulk at PPA creation, immutable thereafter.
type AmortizationEntry struct {
	AmortizationID          string
	PPAID                   string
	PeriodEnd               time.Time
	AssetName               string
	MonthlyAmortization     decimal.Decimal
	AccumulatedAmortization decimal.Decimal
	RemainingValue          decimal.Decimal
	DebitAccount            string
	CreditAccount           string
}
