package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceEntry is one ledger line for an entity and period. Entries are
// supplied pre-validated by the connector layer and are read-only afterwards.
type TrialBalanceEntry struct {
	EntryID     string
	EntityID    string
	PeriodEnd   time.Time
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Currency    Currency
	Description string
	// OpeningBalance is the prior-period closing net amount in functional
	// currency. Used for the CTA opening/movement split; zero when the
	// connector has no history for the account.
	OpeningBalance decimal.Decimal
}

// NetAmount is debit minus credit.
func (e TrialBalanceEntry) NetAmount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// FunctionalAmount is the absolute net amount in functional currency.
func (e TrialBalanceEntry) FunctionalAmount() decimal.Decimal {
	return e.NetAmount().Abs()
}

// ConvertedEntry wraps a trial balance entry with the rate used, the
// presentation-currency amount and the entity's accumulated CTA after this
// conversion. Converted entries are never mutated once created.
type ConvertedEntry struct {
	Original             TrialBalanceEntry
	PresentationCurrency Currency
	Rate                 FXRate
	ConvertedAmount      decimal.Decimal
	CTAAmount            decimal.Decimal
	ConversionMethod     string
}
