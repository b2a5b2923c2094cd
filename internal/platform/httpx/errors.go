package httpx

import (
	"errors"
	"net/http"

	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// RespondError maps consolidation domain errors to HTTP problem responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrRateNotFound),
		errors.Is(err, shared.ErrEntityNotRegistered),
		errors.Is(err, shared.ErrInvalidPPA),
		errors.Is(err, shared.ErrReconciliationImbalance):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, shared.ErrInvalidStateTransition):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
