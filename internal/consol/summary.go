package consol

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// Summary is the reporting snapshot of one consolidation run.
type Summary struct {
	PeriodEnd            time.Time                `json:"period_end"`
	PresentationCurrency model.Currency           `json:"presentation_currency"`
	Standard             model.AccountingStandard `json:"accounting_standard"`
	EntityCount          int                      `json:"entity_count"`
	TotalAssets          decimal.Decimal          `json:"total_assets"`
	TotalLiabilities     decimal.Decimal          `json:"total_liabilities"`
	TotalEquity          decimal.Decimal          `json:"total_equity"`
	TotalRevenue         decimal.Decimal          `json:"total_revenue"`
	TotalExpenses        decimal.Decimal          `json:"total_expenses"`
	NetIncome            decimal.Decimal          `json:"net_income"`
	TotalCTA             decimal.Decimal          `json:"total_cta"`
	IsBalanced           bool                     `json:"is_balanced"`
	BalanceDifference    decimal.Decimal          `json:"balance_difference"`
	EliminationCount     int                      `json:"elimination_count"`
	PPAAdjustmentCount   int                      `json:"ppa_adjustment_count"`
}

// Summarize condenses a consolidated aggregate into its reporting snapshot.
func Summarize(consolidated model.ConsolidatedFinancials) Summary {
	return Summary{
		PeriodEnd:            consolidated.PeriodEnd,
		PresentationCurrency: consolidated.PresentationCurrency,
		Standard:             consolidated.Standard,
		EntityCount:          len(consolidated.EntitiesIncluded),
		TotalAssets:          consolidated.TotalAssets,
		TotalLiabilities:     consolidated.TotalLiabilities,
		TotalEquity:          consolidated.TotalEquity,
		TotalRevenue:         consolidated.TotalRevenue,
		TotalExpenses:        consolidated.TotalExpenses,
		NetIncome:            consolidated.NetIncome,
		TotalCTA:             consolidated.TotalCTA,
		IsBalanced:           consolidated.IsBalanced,
		BalanceDifference:    consolidated.BalanceDifference(),
		EliminationCount:     len(consolidated.Eliminations),
		PPAAdjustmentCount:   len(consolidated.PPAAdjustments),
	}
}

// defaultChart is the fallback chart-of-accounts mapping for quick runs.
var defaultChart = map[string]string{
	"IC_RECEIVABLE":     "2000",
	"IC_PAYABLE":        "3000",
	"IC_REVENUE":        "4000",
	"IC_EXPENSE":        "5000",
	"FX_GAIN_LOSS":      "7000",
	"DIVIDEND_INCOME":   "4100",
	"DIVIDEND_PAYABLE":  "3100",
	"EQUITY_INVESTMENT": "1500",
	"SUBSIDIARY_EQUITY": "2500",
}
