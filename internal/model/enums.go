package model

// Currency is an ISO 4217 currency code supported for FX conversion.
type Currency string

const (
	USD Currency = "USD"
	BRL Currency = "BRL"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// AccountingStandard enumerates supported reporting frameworks.
type AccountingStandard string

const (
	IFRS   AccountingStandard = "IFRS"
	USGAAP AccountingStandard = "US_GAAP"
	BRGAAP AccountingStandard = "BR_GAAP"
)

// AccountType classifies trial balance lines for FX rate selection and
// consolidated aggregation.
type AccountType string

const (
	BalanceSheetAsset     AccountType = "BS_ASSET"
	BalanceSheetLiability AccountType = "BS_LIABILITY"
	BalanceSheetEquity    AccountType = "BS_EQUITY"
	Income                AccountType = "INCOME"
	Expense               AccountType = "EXPENSE"
	EquityTransaction     AccountType = "EQUITY_TXN"
)

// Bucket is a consolidated statement total fed by account types.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketAssets
	BucketLiabilities
	BucketEquity
	BucketRevenue
	BucketExpenses
)

// Bucket maps the account type onto its consolidated total. The mapping is a
// closed switch so aggregation never depends on free-text account naming.
func (t AccountType) Bucket() Bucket {
	switch t {
	case BalanceSheetAsset:
		return BucketAssets
	case BalanceSheetLiability:
		return BucketLiabilities
	case BalanceSheetEquity, EquityTransaction:
		return BucketEquity
	case Income:
		return BucketRevenue
	case Expense:
		return BucketExpenses
	default:
		return BucketNone
	}
}

// CreditNormal reports whether the account type carries a natural credit
// balance. Credit-normal lines contribute the negated net amount to their
// bucket so the balance-sheet identity holds whenever debits equal credits.
func (t AccountType) CreditNormal() bool {
	switch t {
	case BalanceSheetLiability, BalanceSheetEquity, Income, EquityTransaction:
		return true
	default:
		return false
	}
}

// FXRateType selects the IFRS 21 translation rate.
type FXRateType string

const (
	// RateClosing translates balance sheet items.
	RateClosing FXRateType = "CLOSING"
	// RateAverage translates P&L items over the period.
	RateAverage FXRateType = "AVERAGE"
	// RateHistorical translates equity transactions at their original rate.
	RateHistorical FXRateType = "HISTORICAL"
)

// EliminationType enumerates intercompany elimination categories.
type EliminationType string

const (
	ReceivablePayable EliminationType = "AR_AP"
	RevenueExpense    EliminationType = "REV_EXP"
	Dividend          EliminationType = "DIVIDEND"
	Loan              EliminationType = "LOAN"
	EquityInvestment  EliminationType = "EQUITY_INV"
)
