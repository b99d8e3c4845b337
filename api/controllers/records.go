package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/api/responses"
	"github.com/siamtube/pricing-backend/api/validators"
	"github.com/siamtube/pricing-backend/internal/formula"
	"github.com/siamtube/pricing-backend/internal/versioning"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/pagination"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// RecordRoutes mounts the Draft/Active/Archived lifecycle endpoints for one
// versioned record kind. P is the JSON payload accepted on create and update.
type RecordRoutes[T any, PT versioning.Record[T], P any] struct {
	Manager *versioning.Manager[T, PT]
	Apply   func(P, PT) error
	Logg    *logger.Logger
}

// Mount registers the lifecycle routes on r.
func (rr RecordRoutes[T, PT, P]) Mount(r chi.Router) {
	r.Post("/", rr.create)
	r.Get("/{recordID}", rr.get)
	r.Put("/{recordID}", rr.update)
	r.Delete("/{recordID}", rr.remove)
	r.Post("/{recordID}/approve", rr.approve)
	r.Post("/{recordID}/rollback", rr.rollback)
	r.Get("/{recordID}/history", rr.history)
}

func (rr RecordRoutes[T, PT, P]) create(w http.ResponseWriter, r *http.Request) {
	var payload P
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	var rec T
	ptr := PT(&rec)
	if err := rr.Apply(payload, ptr); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	if err := rr.Manager.CreateDraft(r.Context(), ptr); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, ptr)
}

func (rr RecordRoutes[T, PT, P]) get(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	rec, err := rr.Manager.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccess(w, rec)
}

func (rr RecordRoutes[T, PT, P]) update(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	var payload P
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	rec, err := rr.Manager.EditDraft(r.Context(), id, func(draft PT) error {
		return rr.Apply(payload, draft)
	})
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccess(w, rec)
}

func (rr RecordRoutes[T, PT, P]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	if err := rr.Manager.Delete(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccess(w, map[string]string{"status": "deleted"})
}

type approveRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

func (rr RecordRoutes[T, PT, P]) approve(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	var payload approveRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	rec, err := rr.Manager.Approve(r.Context(), id, payload.ApprovedBy)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccess(w, rec)
}

type rollbackRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (rr RecordRoutes[T, PT, P]) rollback(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	var payload rollbackRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	rec, err := rr.Manager.Rollback(r.Context(), id, payload.Reason)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, rec)
}

func (rr RecordRoutes[T, PT, P]) history(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	page, err := rr.Manager.ListHistory(r.Context(), id, pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		responses.WriteError(r.Context(), rr.Logg, w, err)
		return
	}

	responses.WriteSuccess(w, map[string]any{
		"records":     page.Records,
		"next_cursor": page.NextCursor,
	})
}

func recordIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "recordID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id")
	}
	return id, nil
}

// Payloads for each versioned record kind.

type CommodityPriceRequest struct {
	ItemGroupCode   string          `json:"item_group_code" validate:"required"`
	CustomerGroupID *string         `json:"customer_group_id,omitempty" validate:"omitempty,uuid"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency,omitempty"`
	ChangeReason    string          `json:"change_reason,omitempty"`
}

// ApplyCommodityPrice maps the payload onto a commodity price draft.
func ApplyCommodityPrice(payload CommodityPriceRequest, rec *models.CommodityPrice) error {
	if !payload.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	currency, err := parseCurrencyOrDefault(payload.Currency)
	if err != nil {
		return err
	}
	groupID, err := parseOptionalUUID(payload.CustomerGroupID, "customer group id")
	if err != nil {
		return err
	}

	rec.ItemGroupCode = payload.ItemGroupCode
	rec.CustomerGroupID = groupID
	rec.Price = payload.Price
	rec.Currency = currency
	rec.ChangeReason = payload.ChangeReason
	return nil
}

type FabricationAdjustmentRequest struct {
	ItemGroupCode   string          `json:"item_group_code" validate:"required"`
	CustomerGroupID *string         `json:"customer_group_id,omitempty" validate:"omitempty,uuid"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	ChangeReason    string          `json:"change_reason,omitempty"`
}

// ApplyFabricationAdjustment maps the payload onto an adjustment draft. A
// negative amount is allowed; adjustments can discount as well as surcharge.
func ApplyFabricationAdjustment(payload FabricationAdjustmentRequest, rec *models.FabricationAdjustment) error {
	currency, err := parseCurrencyOrDefault(payload.Currency)
	if err != nil {
		return err
	}
	groupID, err := parseOptionalUUID(payload.CustomerGroupID, "customer group id")
	if err != nil {
		return err
	}

	rec.ItemGroupCode = payload.ItemGroupCode
	rec.CustomerGroupID = groupID
	rec.Amount = payload.Amount
	rec.Currency = currency
	rec.ChangeReason = payload.ChangeReason
	return nil
}

type MarkupFactorRequest struct {
	TubeSize     string          `json:"tube_size" validate:"required"`
	Factor       decimal.Decimal `json:"factor"`
	ChangeReason string          `json:"change_reason,omitempty"`
}

// ApplyMarkupFactor maps the payload onto a markup factor draft.
func ApplyMarkupFactor(payload MarkupFactorRequest, rec *models.MarkupFactor) error {
	if !payload.Factor.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "factor must be positive")
	}
	rec.TubeSize = payload.TubeSize
	rec.Factor = payload.Factor
	rec.ChangeReason = payload.ChangeReason
	return nil
}

type ExchangeRateRequest struct {
	FromCurrency string          `json:"from_currency" validate:"required"`
	ToCurrency   string          `json:"to_currency" validate:"required"`
	Rate         decimal.Decimal `json:"rate"`
	ChangeReason string          `json:"change_reason,omitempty"`
}

// ApplyExchangeRate maps the payload onto an exchange rate draft.
func ApplyExchangeRate(payload ExchangeRateRequest, rec *models.ExchangeRate) error {
	from, err := enums.ParseCurrency(payload.FromCurrency)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from currency")
	}
	to, err := enums.ParseCurrency(payload.ToCurrency)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to currency")
	}
	if from == to {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency pair must differ")
	}
	if !payload.Rate.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate must be positive")
	}

	rec.FromCurrency = from
	rec.ToCurrency = to
	rec.Rate = payload.Rate
	rec.ChangeReason = payload.ChangeReason
	return nil
}

type BaseFormulaRequest struct {
	Name                      string             `json:"name" validate:"required"`
	IsDefault                 bool               `json:"is_default"`
	MaterialCostFormula       string             `json:"material_cost_formula,omitempty"`
	TotalCostFormula          string             `json:"total_cost_formula" validate:"required"`
	SellingPriceFormula       string             `json:"selling_price_formula" validate:"required"`
	MarginFormula             string             `json:"margin_formula" validate:"required"`
	CurrencyConversionFormula string             `json:"currency_conversion_formula,omitempty"`
	Constants                 map[string]float64 `json:"constants,omitempty"`
	ChangeReason              string             `json:"change_reason,omitempty"`
}

// ApplyBaseFormula maps the payload onto a base formula draft. Every formula
// string is validated before the draft is accepted.
func ApplyBaseFormula(payload BaseFormulaRequest, rec *models.BaseFormula) error {
	formulas := map[string]string{
		"material_cost_formula":       payload.MaterialCostFormula,
		"total_cost_formula":          payload.TotalCostFormula,
		"selling_price_formula":       payload.SellingPriceFormula,
		"margin_formula":              payload.MarginFormula,
		"currency_conversion_formula": payload.CurrencyConversionFormula,
	}
	for field, expr := range formulas {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if err := formula.Validate(expr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid "+field)
		}
	}

	rec.Name = payload.Name
	rec.IsDefault = payload.IsDefault
	rec.MaterialCostFormula = payload.MaterialCostFormula
	rec.TotalCostFormula = payload.TotalCostFormula
	rec.SellingPriceFormula = payload.SellingPriceFormula
	rec.MarginFormula = payload.MarginFormula
	rec.CurrencyConversionFormula = payload.CurrencyConversionFormula
	rec.Constants = payload.Constants
	rec.ChangeReason = payload.ChangeReason
	return nil
}

type OverrideRuleRequest struct {
	Name                string                    `json:"name" validate:"required"`
	Priority            int                       `json:"priority"`
	Conditions          types.RuleConditions      `json:"conditions"`
	FormulaOverrides    types.FormulaOverrides    `json:"formula_overrides"`
	VariableAdjustments types.VariableAdjustments `json:"variable_adjustments,omitempty"`
	Actions             types.RuleActions         `json:"actions,omitempty"`
	ChangeReason        string                    `json:"change_reason,omitempty"`
}

// ApplyOverrideRule maps the payload onto an override rule draft. Condition
// expressions, formula overrides and formula adjustments are all validated.
func ApplyOverrideRule(payload OverrideRuleRequest, rec *models.OverrideRule) error {
	if expr := strings.TrimSpace(payload.Conditions.Expression); expr != "" {
		if err := formula.Validate(expr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid condition expression")
		}
	}
	overrides := map[string]string{
		"material_cost":       payload.FormulaOverrides.MaterialCost,
		"total_cost":          payload.FormulaOverrides.TotalCost,
		"selling_price":       payload.FormulaOverrides.SellingPrice,
		"margin":              payload.FormulaOverrides.Margin,
		"currency_conversion": payload.FormulaOverrides.CurrencyConversion,
	}
	for field, expr := range overrides {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if err := formula.Validate(expr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid "+field+" override")
		}
	}
	for name, adjustment := range payload.VariableAdjustments {
		if adjustment.IsLiteral() {
			continue
		}
		if err := formula.Validate(adjustment.Formula); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid adjustment for "+name)
		}
	}
	for _, action := range payload.Actions {
		if !action.Type.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown action type "+action.Type.String())
		}
	}

	priority := payload.Priority
	if priority == 0 {
		priority = 100
	}

	rec.Name = payload.Name
	rec.Priority = priority
	rec.Conditions = payload.Conditions
	rec.FormulaOverrides = payload.FormulaOverrides
	rec.VariableAdjustments = payload.VariableAdjustments
	rec.Actions = payload.Actions
	rec.ChangeReason = payload.ChangeReason
	return nil
}

func parseCurrencyOrDefault(raw string) (enums.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.CurrencyTHB, nil
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return currency, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}
