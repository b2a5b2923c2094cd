package fx

import "github.com/escotilha/nuvini-ai-fpa/internal/model"

// RateTypeFor selects the IFRS 21 translation rate for an account
// classification: P&L items use the period average, equity transactions the
// historical rate, balance sheet items the closing rate.
func RateTypeFor(accountType model.AccountType) model.FXRateType {
	switch accountType {
	case model.Income, model.Expense:
		return model.RateAverage
	case model.EquityTransaction:
		return model.RateHistorical
	default:
		return model.RateClosing
	}
}
