package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Entity is a legal entity in the consolidation structure. Entities are
// created once at group setup and treated as immutable for a run.
type Entity struct {
	EntityID            string
	Name                string
	FunctionalCurrency  Currency
	CountryCode         string
	OwnershipPercentage decimal.Decimal
	AcquisitionDate     *time.Time
	ParentEntityID      string
	Standard            AccountingStandard
	Active              bool
}

// NewEntity constructs an entity enforcing the ownership invariant.
func NewEntity(id, name string, currency Currency, country string, ownership decimal.Decimal) (Entity, error) {
	if id == "" {
		return Entity{}, fmt.Errorf("entity id is required")
	}
	if ownership.IsNegative() || ownership.GreaterThan(decimal.NewFromInt(100)) {
		return Entity{}, fmt.Errorf("ownership percentage must be between 0 and 100, got %s", ownership)
	}
	return Entity{
		EntityID:            id,
		Name:                name,
		FunctionalCurrency:  currency,
		CountryCode:         country,
		OwnershipPercentage: ownership,
		Standard:            IFRS,
		Active:              true,
	}, nil
}
