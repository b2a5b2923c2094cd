package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ConsolidatedFinancials is the output aggregate of one consolidation run.
type ConsolidatedFinancials struct {
	ConsolidationID      string
	PeriodEnd            time.Time
	PresentationCurrency Currency
	Standard             AccountingStandard
	EntitiesIncluded     []string

	TrialBalance   []ConvertedEntry
	Eliminations   []EliminationEntry
	PPAAdjustments []AmortizationEntry

	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	TotalRevenue     decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetIncome        decimal.Decimal

	// TotalCTA is the cumulative translation adjustment carried by the run.
	TotalCTA decimal.Decimal

	IsBalanced       bool
	ValidationErrors []string

	CreatedAt  time.Time
	CreatedBy  string
	ApprovedBy string
	ApprovedAt *time.Time
}

// BalanceDifference is |assets - (liabilities + equity)|.
func (c ConsolidatedFinancials) BalanceDifference() decimal.Decimal {
	return c.TotalAssets.Sub(c.TotalLiabilities.Add(c.TotalEquity)).Abs()
}

// ValidateBalance checks the balance-sheet identity within tolerance,
// recording the outcome on the aggregate.
func (c *ConsolidatedFinancials) ValidateBalance(tolerance decimal.Decimal) bool {
	diff := c.BalanceDifference()
	c.IsBalanced = diff.LessThanOrEqual(tolerance)
	if !c.IsBalanced {
		c.ValidationErrors = append(c.ValidationErrors, fmt.Sprintf(
			"balance sheet does not balance: assets=%s, liabilities+equity=%s, difference=%s",
			c.TotalAssets, c.TotalLiabilities.Add(c.TotalEquity), diff))
	}
	return c.IsBalanced
}
