package ppa

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// DefaultScheduleMonths caps generated schedules at ten years.
const DefaultScheduleMonths = 120

// Scheduler generates and stores straight-line monthly amortization schedules.
type Scheduler struct {
	mu sync.RWMutex
	// schedules maps PPA id to asset name to that asset's monthly entries.
	schedules map[string]map[string][]model.AmortizationEntry
}

// NewScheduler constructs an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{schedules: make(map[string]map[string][]model.AmortizationEntry)}
}

// CreateMonthlySchedule generates entries for every intangible with a useful
// life. Each asset gets min(months, life in months) entries; intangibles
// without a configured life are skipped. The schedule replaces any previous
// one for the PPA.
func (s *Scheduler) CreateMonthlySchedule(allocation model.PurchasePriceAllocation, start time.Time, months int) map[string][]model.AmortizationEntry {
	if start.IsZero() {
		start = allocation.AcquisitionDate
	}
	if months <= 0 {
		months = DefaultScheduleMonths
	}

	schedules := make(map[string][]model.AmortizationEntry)
	for name, value := range allocation.IntangibleAssets {
		lifeYears := allocation.UsefulLives[name]
		if lifeYears <= 0 {
			continue
		}

		totalMonths := lifeYears * 12
		monthly := value.Div(decimal.NewFromInt(int64(totalMonths)))

		span := months
		if totalMonths < span {
			span = totalMonths
		}

		entries := make([]model.AmortizationEntry, 0, span)
		accumulated := decimal.Zero
		for monthNum := 0; monthNum < span; monthNum++ {
			accumulated = accumulated.Add(monthly)
			entries = append(entries, model.AmortizationEntry{
				PPAID:                   allocation.PPAID,
				PeriodEnd:               start.AddDate(0, monthNum, 0),
				AssetName:               name,
				MonthlyAmortization:     monthly,
				AccumulatedAmortization: accumulated,
				RemainingValue:          value.Sub(accumulated),
			})
		}
		schedules[name] = entries
	}

	s.mu.Lock()
	s.schedules[allocation.PPAID] = schedules
	s.mu.Unlock()
	return schedules
}

// EntriesForPeriod returns every asset's entry whose period falls in the same
// calendar month as periodEnd, ordered by asset name.
func (s *Scheduler) EntriesForPeriod(ppaID string, periodEnd time.Time) []model.AmortizationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAsset, ok := s.schedules[ppaID]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(byAsset))
	for name := range byAsset {
		names = append(names, name)
	}
	sort.Strings(names)

	var matched []model.AmortizationEntry
	for _, name := range names {
		for _, entry := range byAsset[name] {
			if entry.PeriodEnd.Year() == periodEnd.Year() && entry.PeriodEnd.Month() == periodEnd.Month() {
				matched = append(matched, entry)
			}
		}
	}
	return matched
}

// TotalMonthlyAmortization sums the monthly charge across assets for a period.
func (s *Scheduler) TotalMonthlyAmortization(ppaID string, periodEnd time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range s.EntriesForPeriod(ppaID, periodEnd) {
		total = total.Add(entry.MonthlyAmortization)
	}
	return total
}
