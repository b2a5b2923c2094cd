package fx

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

const (
	// LookbackDays bounds the backward scan for the nearest prior rate.
	LookbackDays = 7
)

// RateManager stores exchange rates keyed by pair, calendar day and type.
// Upserts are latest-wins; contradictory same-day rates are accepted as-is and
// surfaced by the run validator, not rejected here.
type RateManager struct {
	mu     sync.RWMutex
	rates  map[model.RateKey]model.FXRate
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewRateManager constructs an empty rate table.
func NewRateManager(audit shared.AuditRecorder, logger *slog.Logger) *RateManager {
	return &RateManager{
		rates:  make(map[model.RateKey]model.FXRate),
		audit:  audit,
		logger: logger,
	}
}

// AddRate upserts the rate and records previous/new values in the audit trail.
func (m *RateManager) AddRate(rate model.FXRate) error {
	if !rate.Rate.IsPositive() {
		return fmt.Errorf("fx: exchange rate must be positive, got %s", rate.Rate)
	}
	key := rate.Key()

	m.mu.Lock()
	existing, exists := m.rates[key]
	m.rates[key] = rate
	m.mu.Unlock()

	action := "ADD_FX_RATE"
	previous := ""
	if exists {
		action = "UPDATE_FX_RATE"
		previous = existing.Rate.String()
	}
	m.record(shared.AuditEntry{
		Action:        action,
		Description:   fmt.Sprintf("%s/%s %s on %s", rate.From, rate.To, rate.RateType, model.DayKey(rate.RateDate)),
		PreviousValue: previous,
		NewValue:      rate.Rate.String(),
	})
	return nil
}

// GetRate resolves a rate for the pair, date and type. Same-currency pairs
// short-circuit to 1. Resolution order: exact match, algebraic inverse of the
// reverse pair, then the nearest prior day within LookbackDays re-stamped with
// the requested date. Returns shared.ErrRateNotFound when nothing resolves.
func (m *RateManager) GetRate(from, to model.Currency, on time.Time, rateType model.FXRateType) (model.FXRate, error) {
	if from == to {
		return model.SameCurrencyRate(from, on, rateType), nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if rate, ok := m.rates[model.RateKey{From: from, To: to, Day: model.DayKey(on), Type: rateType}]; ok {
		return rate, nil
	}
	if rate, ok := m.rates[model.RateKey{From: to, To: from, Day: model.DayKey(on), Type: rateType}]; ok {
		return rate.Invert(), nil
	}

	for daysBack := 1; daysBack <= LookbackDays; daysBack++ {
		prev := on.AddDate(0, 0, -daysBack)
		if rate, ok := m.rates[model.RateKey{From: from, To: to, Day: model.DayKey(prev), Type: rateType}]; ok {
			restamped := rate
			restamped.RateDate = on
			restamped.Source = fmt.Sprintf("%s (from %s)", rate.Source, model.DayKey(prev))
			return restamped, nil
		}
	}

	return model.FXRate{}, fmt.Errorf("fx: %s/%s %s on %s: %w", from, to, rateType, model.DayKey(on), shared.ErrRateNotFound)
}

// AverageRate returns the arithmetic mean of daily closing rates over
// [start, end]. Days without a stored rate (exact or inverse) are skipped, not
// interpolated; an empty window yields shared.ErrRateNotFound.
func (m *RateManager) AverageRate(from, to model.Currency, start, end time.Time) (model.FXRate, error) {
	if from == to {
		return model.SameCurrencyRate(from, end, model.RateAverage), nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := decimal.Zero
	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if rate, ok := m.lookupDayLocked(from, to, day, model.RateClosing); ok {
			sum = sum.Add(rate.Rate)
			count++
		}
	}
	if count == 0 {
		return model.FXRate{}, fmt.Errorf("fx: no daily rates for %s/%s between %s and %s: %w",
			from, to, model.DayKey(start), model.DayKey(end), shared.ErrRateNotFound)
	}

	avg := sum.Div(decimal.NewFromInt(int64(count)))
	return model.FXRate{
		RateID:   fmt.Sprintf("avg-%s-%s-%s", from, to, model.DayKey(end)),
		From:     from,
		To:       to,
		RateDate: end,
		RateType: model.RateAverage,
		Rate:     avg,
		Source:   fmt.Sprintf("Average of %d daily rates from %s to %s", count, model.DayKey(start), model.DayKey(end)),
	}, nil
}

// lookupDayLocked is an exact-or-inverse lookup without the lookback scan, so
// a single stale rate cannot be counted into every day of an averaging window.
func (m *RateManager) lookupDayLocked(from, to model.Currency, day time.Time, rateType model.FXRateType) (model.FXRate, bool) {
	if rate, ok := m.rates[model.RateKey{From: from, To: to, Day: model.DayKey(day), Type: rateType}]; ok {
		return rate, true
	}
	if rate, ok := m.rates[model.RateKey{From: to, To: from, Day: model.DayKey(day), Type: rateType}]; ok {
		return rate.Invert(), true
	}
	return model.FXRate{}, false
}

// Len reports the number of stored rates.
func (m *RateManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rates)
}

func (m *RateManager) record(entry shared.AuditEntry) {
	if m.audit != nil {
		m.audit.Record(entry)
	}
}

func (m *RateManager) log() *slog.Logger {
	if m != nil && m.logger != nil {
		return m.logger.With(slog.String("component", "fx_rates"))
	}
	return slog.Default().With(slog.String("component", "fx_rates"))
}
