package consol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/platform/db"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Repository provides Postgres persistence for run summaries, audit trails
// and FX rates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a consolidation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores the summary of a completed run.
func (r *Repository) SaveRun(ctx context.Context, runID string, summary Summary) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("consol repo not initialised")
	}
	const query = `
INSERT INTO consolidation_runs (
    run_id, period_end, presentation_currency, accounting_standard,
    entity_count, total_assets, total_liabilities, total_equity,
    total_revenue, total_expenses, net_income, total_cta,
    is_balanced, balance_difference, elimination_count, ppa_adjustment_count,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())`
	_, err := r.pool.Exec(ctx, query,
		runID, summary.PeriodEnd, string(summary.PresentationCurrency), string(summary.Standard),
		summary.EntityCount, summary.TotalAssets, summary.TotalLiabilities, summary.TotalEquity,
		summary.TotalRevenue, summary.TotalExpenses, summary.NetIncome, summary.TotalCTA,
		summary.IsBalanced, summary.BalanceDifference, summary.EliminationCount, summary.PPAAdjustmentCount,
	)
	return err
}

// LatestSummary returns the most recent stored run summary.
func (r *Repository) LatestSummary(ctx context.Context) (Summary, error) {
	var zero Summary
	if r == nil || r.pool == nil {
		return zero, fmt.Errorf("consol repo not initialised")
	}
	const query = `
SELECT period_end, presentation_currency, accounting_standard, entity_count,
       total_assets, total_liabilities, total_equity, total_revenue,
       total_expenses, net_income, total_cta, is_balanced, balance_difference,
       elimination_count, ppa_adjustment_count
FROM consolidation_runs
ORDER BY created_at DESC
LIMIT 1`
	var s Summary
	var currency, standard string
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.PeriodEnd, &currency, &standard, &s.EntityCount,
		&s.TotalAssets, &s.TotalLiabilities, &s.TotalEquity, &s.TotalRevenue,
		&s.TotalExpenses, &s.NetIncome, &s.TotalCTA, &s.IsBalanced, &s.BalanceDifference,
		&s.EliminationCount, &s.PPAAdjustmentCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, shared.ErrNotFound
		}
		return zero, err
	}
	s.PresentationCurrency = model.Currency(currency)
	s.Standard = model.AccountingStandard(standard)
	return s, nil
}

// SaveAuditEntries stores a run's audit trail atomically. Partial trails are
// worse than none for a regulator, so the batch runs in one transaction.
func (r *Repository) SaveAuditEntries(ctx context.Context, runID string, entries []shared.AuditEntry) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("consol repo not initialised")
	}
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const query = `
INSERT INTO consolidation_audit (
    audit_id, run_id, at, username, action, entity_id, description,
    previous_value, new_value
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, entry := range entries {
		batch.Queue(query,
			entry.ID, runID, entry.At, entry.User, entry.Action,
			entry.EntityID, entry.Description, entry.PreviousValue, entry.NewValue)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range entries {
			if _, err := results.Exec(); err != nil {
				return errors.Join(err, results.Close())
			}
		}
		return results.Close()
	})
}

// AuditEntries returns a run's stored audit trail in recorded order.
func (r *Repository) AuditEntries(ctx context.Context, runID string) ([]shared.AuditEntry, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("consol repo not initialised")
	}
	const query = `
SELECT audit_id, at, username, action, entity_id, description, previous_value, new_value
FROM consolidation_audit
WHERE run_id = $1
ORDER BY at, audit_id`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []shared.AuditEntry
	for rows.Next() {
		var entry shared.AuditEntry
		entry.RunID = runID
		if err := rows.Scan(&entry.ID, &entry.At, &entry.User, &entry.Action,
			&entry.EntityID, &entry.Description, &entry.PreviousValue, &entry.NewValue); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpsertRates persists FX quotes, last write wins per pair/date/type.
func (r *Repository) UpsertRates(ctx context.Context, rates []model.FXRate) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("consol repo not initialised")
	}
	if len(rates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const query = `
INSERT INTO fx_rates (from_currency, to_currency, rate_date, rate_type, rate, source)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (from_currency, to_currency, rate_date, rate_type)
DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source`
	for _, rate := range rates {
		if !rate.Rate.IsPositive() {
			return fmt.Errorf("fx rate must be positive for %s/%s", rate.From, rate.To)
		}
		batch.Queue(query,
			string(rate.From), string(rate.To),
			rate.RateDate, string(rate.RateType), rate.Rate, rate.Source)
	}
	results := r.pool.SendBatch(ctx, batch)
	for range rates {
		if _, err := results.Exec(); err != nil {
			return errors.Join(err, results.Close())
		}
	}
	return results.Close()
}

// RatesOn returns every stored rate quoted for the given day.
func (r *Repository) RatesOn(ctx context.Context, day time.Time) ([]model.FXRate, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("consol repo not initialised")
	}
	const query = `
SELECT from_currency, to_currency, rate_date, rate_type, rate, source
FROM fx_rates
WHERE rate_date = $1
ORDER BY from_currency, to_currency, rate_type`
	rows, err := r.pool.Query(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rates []model.FXRate
	for rows.Next() {
		var from, to, rateType, source string
		var rateDate time.Time
		var value decimal.Decimal
		if err := rows.Scan(&from, &to, &rateDate, &rateType, &value, &source); err != nil {
			return nil, err
		}
		rate, err := model.NewFXRate(model.Currency(from), model.Currency(to), rateDate, model.FXRateType(rateType), value, source)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
