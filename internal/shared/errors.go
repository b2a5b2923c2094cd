package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrRateNotFound indicates no FX rate resolved for a pair/date/type.
	ErrRateNotFound = errors.New("fx rate not found")
	// ErrEntityNotRegistered indicates a trial balance referenced an unknown entity.
	ErrEntityNotRegistered = errors.New("entity not registered")
	// ErrInvalidStateTransition indicates a consolidation run step was attempted out of order.
	ErrInvalidStateTransition = errors.New("consolidation state transition invalid")
	// ErrReconciliationImbalance indicates IFRS net income plus adjustments does not equal US GAAP.
	ErrReconciliationImbalance = errors.New("gaap reconciliation does not balance")
	// ErrInvalidPPA indicates a purchase price allocation failed validation.
	ErrInvalidPPA = errors.New("purchase price allocation invalid")
)
