package ppa

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Manager combines PPA calculation, amortization scheduling and impairment
// testing for the acquisitions of one consolidation group.
type Manager struct {
	Calculator *Calculator
	Scheduler  *Scheduler
	Impairment *ImpairmentTester

	mu          sync.RWMutex
	allocations map[string]model.PurchasePriceAllocation
	logger      *slog.Logger
}

// NewManager constructs a PPA manager sharing the run's audit recorder.
func NewManager(audit shared.AuditRecorder, logger *slog.Logger) *Manager {
	return &Manager{
		Calculator:  NewCalculator(audit, logger),
		Scheduler:   NewScheduler(),
		Impairment:  NewImpairmentTester(),
		allocations: make(map[string]model.PurchasePriceAllocation),
		logger:      logger,
	}
}

// CreatePPA calculates, validates, stores and schedules an allocation in one
// step. Validation failures reject the allocation before anything is stored.
func (m *Manager) CreatePPA(
	entity model.Entity,
	purchasePrice decimal.Decimal,
	fairValueNetAssets decimal.Decimal,
	intangibles map[string]decimal.Decimal,
	usefulLives map[string]int,
	currency model.Currency,
) (model.PurchasePriceAllocation, error) {
	allocation := m.Calculator.Calculate(entity, purchasePrice, fairValueNetAssets, intangibles, usefulLives, currency)

	if problems := m.Calculator.Validate(allocation); len(problems) > 0 {
		return model.PurchasePriceAllocation{}, fmt.Errorf("%w: %s", shared.ErrInvalidPPA, strings.Join(problems, ", "))
	}

	m.mu.Lock()
	m.allocations[allocation.PPAID] = allocation
	m.mu.Unlock()

	m.Scheduler.CreateMonthlySchedule(allocation, allocation.AcquisitionDate, DefaultScheduleMonths)
	m.log().Info("created purchase price allocation",
		slog.String("entity_id", entity.EntityID),
		slog.String("goodwill", allocation.Goodwill.StringFixed(2)))
	return allocation, nil
}

// Allocation returns a stored allocation by id.
func (m *Manager) Allocation(ppaID string) (model.PurchasePriceAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	allocation, ok := m.allocations[ppaID]
	if !ok {
		return model.PurchasePriceAllocation{}, fmt.Errorf("ppa %s: %w", ppaID, shared.ErrNotFound)
	}
	return allocation, nil
}

// EntriesForEntity collects amortization entries across all of an entity's
// allocations for one period.
func (m *Manager) EntriesForEntity(entityID string, periodEnd time.Time) []model.AmortizationEntry {
	var entries []model.AmortizationEntry
	for _, ppaID := range m.allocationIDsFor(entityID) {
		entries = append(entries, m.Scheduler.EntriesForPeriod(ppaID, periodEnd)...)
	}
	return entries
}

// TotalMonthlyAmortization sums the period charge across all of an entity's
// allocations.
func (m *Manager) TotalMonthlyAmortization(entityID string, periodEnd time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range m.EntriesForEntity(entityID, periodEnd) {
		total = total.Add(entry.MonthlyAmortization)
	}
	return total
}

// RunImpairmentTest screens qualitatively when indicators are supplied, then
// measures quantitatively. Entities without a PPA fail with ErrNotFound.
func (m *Manager) RunImpairmentTest(entityID string, carrying, recoverable decimal.Decimal, indicators map[string]bool) (decimal.Decimal, string, error) {
	ids := m.allocationIDsFor(entityID)
	if len(ids) == 0 {
		return decimal.Zero, "", fmt.Errorf("no ppa for entity %s: %w", entityID, shared.ErrNotFound)
	}

	m.mu.RLock()
	allocation := m.allocations[ids[0]]
	m.mu.RUnlock()

	if len(indicators) > 0 {
		required, reason := m.Impairment.Qualitative(indicators)
		if !required {
			return decimal.Zero, reason, nil
		}
	}

	impairment, explanation := m.Impairment.Quantitative(allocation, carrying, recoverable)
	return impairment, explanation, nil
}

// ImpairmentHistory returns past quantitative impairments for an entity.
func (m *Manager) ImpairmentHistory(entityID string) []ImpairmentRecord {
	return m.Impairment.History(entityID)
}

// allocationIDsFor lists an entity's PPA ids in deterministic order.
func (m *Manager) allocationIDsFor(entityID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, allocation := range m.allocations {
		if allocation.EntityID == entityID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) log() *slog.Logger {
	if m != nil && m.logger != nil {
		return m.logger.With(slog.String("component", "ppa_manager"))
	}
	return slog.Default().With(slog.String("component", "ppa_manager"))
}
