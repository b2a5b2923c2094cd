package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntercompanyTransaction is a candidate match between two entities' entries.
type IntercompanyTransaction struct {
	TransactionID   string
	EntityAID       string
	EntityBID       string
	EliminationType EliminationType
	AmountEntityA   decimal.Decimal
	AmountEntityB   decimal.Decimal
	CurrencyA       Currency
	CurrencyB       Currency
	TransactionDate time.Time
	ReferenceNumber string
	Description     string
	Eliminated      bool
	FXGainLoss      decimal.Decimal
}

// RequiresFXAdjustment reports whether the two legs are denominated in
// different currencies.
func (t IntercompanyTransaction) RequiresFXAdjustment() bool {
	return t.CurrencyA != t.CurrencyB
}

// EliminationEntry is the journal materialisation of a matched transaction.
type EliminationEntry struct {
	EliminationID     string
	Transaction       IntercompanyTransaction
	PeriodEnd         time.Time
	DebitAccount      string
	CreditAccount     string
	EliminationAmount decimal.Decimal
	Currency          Currency
	FXGainLossAccount string
	FXGainLossAmount  decimal.Decimal
	Notes             string
	CreatedAt         time.Time
	CreatedBy         string
}
