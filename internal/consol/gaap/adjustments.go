package gaap

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Adjustment categories recognised by the reconciliation engine.
const (
	CategoryDevelopmentCosts   = "development_costs"
	CategoryLease              = "lease_classification"
	CategoryRevenue            = "revenue_recognition"
	CategoryGoodwillImpairment = "goodwill_impairment"
	CategoryOther              = "other"
)

// DifferenceHandler computes individual IFRS to US GAAP adjustment amounts.
type DifferenceHandler struct {
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewDifferenceHandler constructs a handler.
func NewDifferenceHandler(audit shared.AuditRecorder, logger *slog.Logger) *DifferenceHandler {
	return &DifferenceHandler{audit: audit, logger: logger}
}

// DevelopmentCosts reverses IAS 38 capitalization when the US GAAP policy is
// to expense R&D (ASC 730). A capitalize policy leaves income unchanged.
func (h *DifferenceHandler) DevelopmentCosts(ifrsCapitalized decimal.Decimal, usGAAPPolicy string) decimal.Decimal {
	if usGAAPPolicy != "expense" {
		return decimal.Zero
	}
	h.record(shared.AuditEntry{
		Action:      "GAAP_ADJUSTMENT",
		Description: fmt.Sprintf("development costs: expensed %s under US GAAP", ifrsCapitalized),
	})
	h.log().Debug("reversed development cost capitalization",
		slog.String("amount", ifrsCapitalized.StringFixed(2)))
	return ifrsCapitalized.Neg()
}

// LeaseClassification compares IFRS 16's single model to ASC 842's dual
// model. The standards are converged enough that the income effect is zero
// absent sale-leasebacks or modifications, which sit outside this engine.
func (h *DifferenceHandler) LeaseClassification(rightOfUseAsset, operatingExpense, financeExpense decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// RevenueRecognition returns the ASC 606 minus IFRS 15 revenue delta.
func (h *DifferenceHandler) RevenueRecognition(ifrsRevenue, usGAAPRevenue decimal.Decimal, reason string) decimal.Decimal {
	adjustment := usGAAPRevenue.Sub(ifrsRevenue)
	if !adjustment.IsZero() {
		h.record(shared.AuditEntry{
			Action:      "GAAP_ADJUSTMENT",
			Description: fmt.Sprintf("revenue recognition: %s, adjustment=%s", reason, adjustment),
		})
	}
	return adjustment
}

// GoodwillImpairment returns the IFRS minus US GAAP impairment delta.
// Positive means less impairment recognised under US GAAP.
func (h *DifferenceHandler) GoodwillImpairment(ifrsImpairment, usGAAPImpairment decimal.Decimal) decimal.Decimal {
	adjustment := ifrsImpairment.Sub(usGAAPImpairment)
	if !adjustment.IsZero() {
		h.record(shared.AuditEntry{
			Action:      "GAAP_ADJUSTMENT",
			Description: fmt.Sprintf("goodwill impairment: IFRS=%s, US GAAP=%s", ifrsImpairment, usGAAPImpairment),
		})
	}
	return adjustment
}

// FinancialInstruments covers IFRS 9 vs ASC 320/321/815 classification.
// Expected-credit-loss timing needs instrument-level data this engine does
// not carry, so the adjustment is zero.
func (h *DifferenceHandler) FinancialInstruments(ifrsClassification, usGAAPClassification string, value decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// InventoryCosting covers the LIFO allowance. Measuring it needs the LIFO
// reserve, which callers supply through the "other" category instead.
func (h *DifferenceHandler) InventoryCosting(ifrsValue decimal.Decimal, usGAAPAllowsLIFO bool) decimal.Decimal {
	return decimal.Zero
}

func (h *DifferenceHandler) record(entry shared.AuditEntry) {
	if h.audit != nil {
		h.audit.Record(entry)
	}
}

func (h *DifferenceHandler) log() *slog.Logger {
	if h != nil && h.logger != nil {
		return h.logger.With(slog.String("component", "gaap_differences"))
	}
	return slog.Default().With(slog.String("component", "gaap_differences"))
}
