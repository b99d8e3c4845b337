package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/siamtube/pricing-backend/api/responses"
	"github.com/siamtube/pricing-backend/api/validators"
	pricingsvc "github.com/siamtube/pricing-backend/internal/pricing"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/pagination"
)

type calculateRequest struct {
	ProductID       string  `json:"product_id" validate:"required,uuid"`
	CustomerID      *string `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	CustomerGroupID *string `json:"customer_group_id,omitempty" validate:"omitempty,uuid"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	Currency        string  `json:"currency,omitempty"`
}

func (p calculateRequest) toInput() (pricingsvc.CalculateInput, error) {
	productID, err := uuid.Parse(p.ProductID)
	if err != nil {
		return pricingsvc.CalculateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}

	input := pricingsvc.CalculateInput{
		ProductID: productID,
		Quantity:  p.Quantity,
	}
	if p.CustomerID != nil {
		id, err := uuid.Parse(*p.CustomerID)
		if err != nil {
			return pricingsvc.CalculateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		input.CustomerID = &id
	}
	if p.CustomerGroupID != nil {
		id, err := uuid.Parse(*p.CustomerGroupID)
		if err != nil {
			return pricingsvc.CalculateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer group id")
		}
		input.CustomerGroupID = &id
	}
	if raw := strings.TrimSpace(p.Currency); raw != "" {
		currency, err := enums.ParseCurrency(raw)
		if err != nil {
			return pricingsvc.CalculateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		input.Currency = currency
	}
	return input, nil
}

// CalculatePrice runs one price calculation.
func CalculatePrice(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var payload calculateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Calculate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PriceHistory pages through past calculations, optionally scoped by product.
func PriceHistory(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var productID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			productID = &id
		}

		list, err := svc.History(r.Context(), productID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// CalculationByID returns one past calculation with its full snapshot.
func CalculationByID(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "calculationID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid calculation id"))
			return
		}

		summary, err := svc.Audit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
