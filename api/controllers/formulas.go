package controllers

import (
	"net/http"

	"github.com/siamtube/pricing-backend/api/responses"
	"github.com/siamtube/pricing-backend/api/validators"
	"github.com/siamtube/pricing-backend/internal/formula"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

type validateFormulaRequest struct {
	Expression string `json:"expression" validate:"required"`
}

type evaluateFormulaRequest struct {
	Expression string             `json:"expression" validate:"required"`
	Variables  map[string]float64 `json:"variables,omitempty"`
}

// ValidateFormula checks an expression without evaluating it, so editors can
// reject a broken formula before it is saved to a draft.
func ValidateFormula(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateFormulaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := formula.Validate(payload.Expression); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"valid": true})
	}
}

// EvaluateFormula runs an expression against caller-supplied variables. This
// is a dry-run surface for rule authors; it touches no master data.
func EvaluateFormula(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload evaluateFormulaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		value, err := formula.Evaluate(payload.Expression, payload.Variables)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"value": value})
	}
}
