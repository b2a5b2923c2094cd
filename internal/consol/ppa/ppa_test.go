package ppa

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

func acquiredEntity(t *testing.T) model.Entity {
	t.Helper()
	entity, err := model.NewEntity("ENT-BR", "Nuvini Brasil", model.BRL, "BR", decimal.NewFromInt(100))
	require.NoError(t, err)
	acquired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entity.AcquisitionDate = &acquired
	return entity
}

func TestCreatePPAGoodwillAndSchedule(t *testing.T) {
	trail := shared.NewAuditTrail()
	mgr := NewManager(trail, nil)

	allocation, err := mgr.CreatePPA(
		acquiredEntity(t),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(600_000),
		map[string]decimal.Decimal{"customer_relationships": decimal.NewFromInt(150_000)},
		map[string]int{"customer_relationships": 5},
		model.USD,
	)
	require.NoError(t, err)

	// 1,000,000 - 600,000 - 150,000 = 250,000 goodwill.
	require.Equal(t, "250000", allocation.Goodwill.String())

	entries := mgr.Scheduler.EntriesForPeriod(allocation.PPAID, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.Len(t, entries, 1)
	// 150,000 over 60 months = 2,500/month.
	require.Equal(t, "2500.00", entries[0].MonthlyAmortization.StringFixed(2))
	require.Equal(t, "7500.00", entries[0].AccumulatedAmortization.StringFixed(2))
	require.Equal(t, "142500.00", entries[0].RemainingValue.StringFixed(2))

	// 5-year life caps the schedule at 60 entries, not the 120 default.
	all := mgr.Scheduler.schedules[allocation.PPAID]["customer_relationships"]
	require.Len(t, all, 60)
	require.True(t, all[59].RemainingValue.IsZero())

	require.Equal(t, "2500.00", mgr.TotalMonthlyAmortization("ENT-BR", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)).StringFixed(2))
}

func TestCreatePPABargainPurchaseIsAuditedNotRejected(t *testing.T) {
	trail := shared.NewAuditTrail()
	mgr := NewManager(trail, nil)

	allocation, err := mgr.CreatePPA(
		acquiredEntity(t),
		decimal.NewFromInt(500_000),
		decimal.NewFromInt(600_000),
		nil, nil, model.USD,
	)
	require.NoError(t, err)
	require.Equal(t, "-100000", allocation.Goodwill.String())

	var actions []string
	for _, entry := range trail.Entries() {
		actions = append(actions, entry.Action)
	}
	require.Contains(t, actions, "BARGAIN_PURCHASE")
}

func TestCreatePPARejectsMissingUsefulLife(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.CreatePPA(
		acquiredEntity(t),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(600_000),
		map[string]decimal.Decimal{"developed_technology": decimal.NewFromInt(150_000)},
		nil, model.USD,
	)
	require.True(t, errors.Is(err, shared.ErrInvalidPPA))
	require.Contains(t, err.Error(), "developed_technology")
}

func TestImpairmentQualitativeScreening(t *testing.T) {
	tester := NewImpairmentTester()

	required, reason := tester.Qualitative(map[string]bool{
		IndicatorIncreasedCompetition:  true,
		IndicatorRegulatoryChanges:     true,
		IndicatorKeyPersonnelDeparture: false,
	})
	require.True(t, required)
	require.Contains(t, reason, "increased_competition, regulatory_changes")

	required, _ = tester.Qualitative(map[string]bool{IndicatorSignificantAdverseChange: true})
	require.True(t, required)

	required, reason = tester.Qualitative(map[string]bool{IndicatorIncreasedCompetition: true})
	require.False(t, required)
	require.Equal(t, "no indicators of impairment", reason)
}

func TestRunImpairmentTest(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.CreatePPA(
		acquiredEntity(t),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(600_000),
		nil, nil, model.USD,
	)
	require.NoError(t, err)

	// Single weak indicator screens out the quantitative step.
	impairment, _, err := mgr.RunImpairmentTest("ENT-BR",
		decimal.NewFromInt(400_000), decimal.NewFromInt(300_000),
		map[string]bool{IndicatorIncreasedCompetition: true})
	require.NoError(t, err)
	require.True(t, impairment.IsZero())
	require.Empty(t, mgr.ImpairmentHistory("ENT-BR"))

	// Without indicators the quantitative test runs directly.
	impairment, explanation, err := mgr.RunImpairmentTest("ENT-BR",
		decimal.NewFromInt(400_000), decimal.NewFromInt(300_000), nil)
	require.NoError(t, err)
	require.Equal(t, "100000", impairment.String())
	require.Contains(t, explanation, "exceeds recoverable amount")
	require.Len(t, mgr.ImpairmentHistory("ENT-BR"), 1)

	_, _, err = mgr.RunImpairmentTest("ENT-XX", decimal.Zero, decimal.Zero, nil)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
