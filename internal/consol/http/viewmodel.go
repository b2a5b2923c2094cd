package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// RateInput is one FX quote in an upsert request.
type RateInput struct {
	FromCurrency string `json:"from_currency" validate:"required,len=3"`
	ToCurrency   string `json:"to_currency" validate:"required,len=3,nefield=FromCurrency"`
	RateDate     string `json:"rate_date" validate:"required,datetime=2006-01-02"`
	RateType     string `json:"rate_type" validate:"required,oneof=CLOSING AVERAGE HISTORICAL"`
	Rate         string `json:"rate" validate:"required"`
	Source       string `json:"source"`
}

// toDomain builds the model rate, reusing its constructor invariants.
func (in RateInput) toDomain() (model.FXRate, error) {
	rateDate, err := time.Parse("2006-01-02", in.RateDate)
	if err != nil {
		return model.FXRate{}, err
	}
	value, err := decimal.NewFromString(in.Rate)
	if err != nil {
		return model.FXRate{}, err
	}
	return model.NewFXRate(
		model.Currency(in.FromCurrency), model.Currency(in.ToCurrency),
		rateDate, model.FXRateType(in.RateType), value, in.Source)
}

// UpsertRatesRequest is the payload of POST /fx/rates.
type UpsertRatesRequest struct {
	Rates []RateInput `json:"rates" validate:"required,min=1,dive"`
}

// EntityInput is one group entity in a run request.
type EntityInput struct {
	EntityID            string `json:"entity_id" validate:"required"`
	Name                string `json:"name" validate:"required"`
	FunctionalCurrency  string `json:"functional_currency" validate:"required,len=3"`
	CountryCode         string `json:"country_code" validate:"required,len=2"`
	OwnershipPercentage string `json:"ownership_percentage" validate:"required"`
	ParentEntityID      string `json:"parent_entity_id"`
}

// TrialBalanceEntryInput is one trial balance line in a run request.
type TrialBalanceEntryInput struct {
	EntryID        string `json:"entry_id" validate:"required"`
	EntityID       string `json:"entity_id" validate:"required"`
	AccountCode    string `json:"account_code" validate:"required"`
	AccountName    string `json:"account_name" validate:"required"`
	AccountType    string `json:"account_type" validate:"required,oneof=BS_ASSET BS_LIABILITY BS_EQUITY INCOME EXPENSE EQUITY_TXN"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	OpeningBalance string `json:"opening_balance"`
	Currency       string `json:"currency" validate:"required,len=3"`
	Description    string `json:"description"`
}

// RunRequest is the payload of POST /consolidations.
type RunRequest struct {
	PeriodStart     string                              `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd       string                              `json:"period_end" validate:"required,datetime=2006-01-02"`
	Entities        []EntityInput                       `json:"entities" validate:"required,min=1,dive"`
	TrialBalances   map[string][]TrialBalanceEntryInput `json:"trial_balances" validate:"required"`
	ChartOfAccounts map[string]string                   `json:"chart_of_accounts"`
	IncludeGAAP     bool                                `json:"include_gaap"`
	GAAPAdjustments map[string]string                   `json:"gaap_adjustments"`
}

// toDomain converts the request into service input.
func (in RunRequest) toDomain() (consol.RunInput, error) {
	periodStart, err := time.Parse("2006-01-02", in.PeriodStart)
	if err != nil {
		return consol.RunInput{}, err
	}
	periodEnd, err := time.Parse("2006-01-02", in.PeriodEnd)
	if err != nil {
		return consol.RunInput{}, err
	}

	entities := make([]model.Entity, 0, len(in.Entities))
	for _, e := range in.Entities {
		ownership, err := decimal.NewFromString(e.OwnershipPercentage)
		if err != nil {
			return consol.RunInput{}, err
		}
		entity, err := model.NewEntity(e.EntityID, e.Name, model.Currency(e.FunctionalCurrency), e.CountryCode, ownership)
		if err != nil {
			return consol.RunInput{}, err
		}
		entity.ParentEntityID = e.ParentEntityID
		entities = append(entities, entity)
	}

	balances := make(map[string][]model.TrialBalanceEntry, len(in.TrialBalances))
	for entityID, lines := range in.TrialBalances {
		converted := make([]model.TrialBalanceEntry, 0, len(lines))
		for _, line := range lines {
			entry := model.TrialBalanceEntry{
				EntryID:     line.EntryID,
				EntityID:    line.EntityID,
				PeriodEnd:   periodEnd,
				AccountCode: line.AccountCode,
				AccountName: line.AccountName,
				AccountType: model.AccountType(line.AccountType),
				Currency:    model.Currency(line.Currency),
				Description: line.Description,
			}
			if entry.Debit, err = optionalDecimal(line.Debit); err != nil {
				return consol.RunInput{}, err
			}
			if entry.Credit, err = optionalDecimal(line.Credit); err != nil {
				return consol.RunInput{}, err
			}
			if entry.OpeningBalance, err = optionalDecimal(line.OpeningBalance); err != nil {
				return consol.RunInput{}, err
			}
			converted = append(converted, entry)
		}
		balances[entityID] = converted
	}

	var adjustments map[string]decimal.Decimal
	if len(in.GAAPAdjustments) > 0 {
		adjustments = make(map[string]decimal.Decimal, len(in.GAAPAdjustments))
		for category, raw := range in.GAAPAdjustments {
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return consol.RunInput{}, err
			}
			adjustments[category] = value
		}
	}

	return consol.RunInput{
		Entities:        entities,
		TrialBalances:   balances,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		ChartOfAccounts: in.ChartOfAccounts,
		IncludeGAAP:     in.IncludeGAAP,
		GAAPAdjustments: adjustments,
	}, nil
}

func optionalDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
