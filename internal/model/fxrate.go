package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FXRate is an exchange rate keyed by pair, date and type.
type FXRate struct {
	RateID    string
	From      Currency
	To        Currency
	RateDate  time.Time
	RateType  FXRateType
	Rate      decimal.Decimal
	Source    string
	CreatedAt time.Time
}

// NewFXRate constructs a rate enforcing positivity.
func NewFXRate(from, to Currency, rateDate time.Time, rateType FXRateType, rate decimal.Decimal, source string) (FXRate, error) {
	if !rate.IsPositive() {
		return FXRate{}, fmt.Errorf("exchange rate must be positive, got %s", rate)
	}
	return FXRate{
		RateID:    uuid.NewString(),
		From:      from,
		To:        to,
		RateDate:  rateDate,
		RateType:  rateType,
		Rate:      rate,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SameCurrencyRate returns the identity rate for a currency against itself.
func SameCurrencyRate(currency Currency, rateDate time.Time, rateType FXRateType) FXRate {
	return FXRate{
		RateID:    uuid.NewString(),
		From:      currency,
		To:        currency,
		RateDate:  rateDate,
		RateType:  rateType,
		Rate:      decimal.NewFromInt(1),
		Source:    "Same Currency",
		CreatedAt: time.Now().UTC(),
	}
}

// Invert derives the reverse-direction rate algebraically. The stored rate is
// never overwritten by inversion.
func (r FXRate) Invert() FXRate {
	return FXRate{
		RateID:    uuid.NewString(),
		From:      r.To,
		To:        r.From,
		RateDate:  r.RateDate,
		RateType:  r.RateType,
		Rate:      decimal.NewFromInt(1).Div(r.Rate),
		Source:    fmt.Sprintf("Inverse of %s", r.Source),
		CreatedAt: r.CreatedAt,
	}
}

// Key identifies the upsert slot for a rate.
func (r FXRate) Key() RateKey {
	return RateKey{From: r.From, To: r.To, Day: DayKey(r.RateDate), Type: r.RateType}
}

// RateKey addresses one stored rate.
type RateKey struct {
	From Currency
	To   Currency
	Day  string
	Type FXRateType
}

// DayKey normalises a timestamp to its calendar-day key.
func DayKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}
