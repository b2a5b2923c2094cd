package consol

import (
	"fmt"

	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// State tracks a consolidation run through its pipeline.
type State string

const (
	StateCreated            State = "CREATED"
	StateRegisteredEntities State = "REGISTERED_ENTITIES"
	StateLoadedBalances     State = "LOADED_BALANCES"
	StateConverted          State = "CONVERTED"
	StateEliminated         State = "ELIMINATED"
	StatePPAApplied         State = "PPA_APPLIED"
	StateAggregated         State = "AGGREGATED"
	StateValidated          State = "VALIDATED"
	StateGAAPReconciled     State = "GAAP_RECONCILED"
	StateComplete           State = "COMPLETE"
)

// ValidateTransition enforces the pipeline order. Re-entering the current
// state is allowed (registering more entities, loading more balances); the
// GAAP reconciliation step is optional between validation and completion.
func ValidateTransition(current, target State) error {
	if current == target {
		return nil
	}
	allowed := map[State][]State{
		StateCreated:            {StateRegisteredEntities},
		StateRegisteredEntities: {StateLoadedBalances},
		StateLoadedBalances:     {StateConverted, StateRegisteredEntities},
		StateConverted:          {StateEliminated},
		StateEliminated:         {StatePPAApplied},
		StatePPAApplied:         {StateAggregated},
		StateAggregated:         {StateValidated},
		StateValidated:          {StateGAAPReconciled, StateComplete},
		StateGAAPReconciled:     {StateComplete},
	}
	for _, next := range allowed[current] {
		if next == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidStateTransition, current, target)
}
