package ppa

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// goodwillTolerance is the allowed rounding slack when re-deriving goodwill.
var goodwillTolerance = decimal.RequireFromString("0.01")

// Calculator derives goodwill from acquisition inputs.
type Calculator struct {
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewCalculator constructs a PPA calculator.
func NewCalculator(audit shared.AuditRecorder, logger *slog.Logger) *Calculator {
	return &Calculator{
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Calculate allocates the purchase price. Goodwill is the residual after fair
// value net assets and identified intangibles. A negative residual is a
// bargain purchase: accepted, recorded in the audit trail, never zeroed.
func (c *Calculator) Calculate(
	entity model.Entity,
	purchasePrice decimal.Decimal,
	fairValueNetAssets decimal.Decimal,
	intangibles map[string]decimal.Decimal,
	usefulLives map[string]int,
	currency model.Currency,
) model.PurchasePriceAllocation {
	totalIntangibles := decimal.Zero
	for _, v := range intangibles {
		totalIntangibles = totalIntangibles.Add(v)
	}
	goodwill := purchasePrice.Sub(fairValueNetAssets).Sub(totalIntangibles)

	if goodwill.IsNegative() {
		c.record(shared.AuditEntry{
			Action:      "BARGAIN_PURCHASE",
			EntityID:    entity.EntityID,
			Description: fmt.Sprintf("bargain purchase gain: %s %s", goodwill.Abs(), currency),
		})
		c.log().Warn("bargain purchase detected",
			slog.String("entity_id", entity.EntityID),
			slog.String("gain", goodwill.Abs().StringFixed(2)))
	}

	acquisitionDate := c.now()
	if entity.AcquisitionDate != nil {
		acquisitionDate = *entity.AcquisitionDate
	}

	allocation := model.PurchasePriceAllocation{
		PPAID:              uuid.NewString(),
		EntityID:           entity.EntityID,
		AcquisitionDate:    acquisitionDate,
		PurchasePrice:      purchasePrice,
		FairValueNetAssets: fairValueNetAssets,
		Goodwill:           goodwill,
		IntangibleAssets:   intangibles,
		UsefulLives:        usefulLives,
		Currency:           currency,
	}

	c.record(shared.AuditEntry{
		Action:      "CREATE_PPA",
		EntityID:    entity.EntityID,
		Description: fmt.Sprintf("PPA created: goodwill=%s, intangibles=%s", goodwill, totalIntangibles),
	})
	return allocation
}

// Validate checks an allocation for internal consistency. The returned slice
// is empty for a valid allocation.
func (c *Calculator) Validate(allocation model.PurchasePriceAllocation) []string {
	var problems []string

	if !allocation.PurchasePrice.IsPositive() {
		problems = append(problems, "purchase price must be positive")
	}
	if !allocation.FairValueNetAssets.IsPositive() {
		problems = append(problems, "fair value of net assets must be positive")
	}

	names := make([]string, 0, len(allocation.IntangibleAssets))
	for name := range allocation.IntangibleAssets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := allocation.UsefulLives[name]; !ok {
			problems = append(problems, fmt.Sprintf("no useful life for %s", name))
		}
	}

	if allocation.Goodwill.Sub(allocation.ExpectedGoodwill()).Abs().GreaterThan(goodwillTolerance) {
		problems = append(problems, fmt.Sprintf(
			"goodwill mismatch: expected %s, got %s", allocation.ExpectedGoodwill(), allocation.Goodwill))
	}
	return problems
}

func (c *Calculator) record(entry shared.AuditEntry) {
	if c.audit != nil {
		c.audit.Record(entry)
	}
}

func (c *Calculator) log() *slog.Logger {
	if c != nil && c.logger != nil {
		return c.logger.With(slog.String("component", "ppa_calculator"))
	}
	return slog.Default().With(slog.String("component", "ppa_calculator"))
}
