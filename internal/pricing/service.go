package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	currencysvc "github.com/siamtube/pricing-backend/internal/currency"
	"github.com/siamtube/pricing-backend/internal/customers"
	"github.com/siamtube/pricing-backend/internal/formula"
	"github.com/siamtube/pricing-backend/internal/materials"
	"github.com/siamtube/pricing-backend/internal/rules"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/metrics"
	"github.com/siamtube/pricing-backend/pkg/pagination"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// Service runs price calculations end to end.
type Service interface {
	Calculate(ctx context.Context, input CalculateInput) (*CalculationResult, error)
	History(ctx context.Context, productID *uuid.UUID, params pagination.Params) (*AuditList, error)
	Audit(ctx context.Context, id uuid.UUID) (*AuditSummary, error)
}

// calculationReader is the repository surface one calculation reads.
type calculationReader interface {
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
	BOMLines(ctx context.Context, productID uuid.UUID) ([]models.BOMLine, error)
	ActiveBaseFormula(ctx context.Context) (*models.BaseFormula, error)
	ActiveMarkupFactor(ctx context.Context, tubeSize string) (*models.MarkupFactor, error)
	ActiveRules(ctx context.Context) ([]models.OverrideRule, error)
	CreateAudit(ctx context.Context, audit *models.CalculationAudit) error
	ListAudits(ctx context.Context, productID *uuid.UUID, params pagination.Params) ([]models.CalculationAudit, string, error)
	AuditByID(ctx context.Context, id uuid.UUID) (*models.CalculationAudit, error)
}

// lineResolver prices a single bill-of-materials line.
type lineResolver interface {
	Resolve(ctx context.Context, line models.BOMLine, orderQuantity decimal.Decimal, customerGroupID *uuid.UUID) (materials.MaterialCostDetail, error)
}

// groupResolver decides which customer group scopes the lookups.
type groupResolver interface {
	ResolveGroup(ctx context.Context, customerID, groupID *uuid.UUID) (*customers.Resolution, error)
}

// rateResolver supplies currency conversion rates.
type rateResolver interface {
	Rate(ctx context.Context, from, to enums.Currency) (*currencysvc.RateResult, error)
}

type service struct {
	repo         calculationReader
	resolver     lineResolver
	groups       groupResolver
	fx           rateResolver
	logg         *logger.Logger
	calcMetrics  *metrics.CalculationMetrics
	baseCurrency enums.Currency
	auditOff     bool
}

// Options bundles the orchestrator dependencies.
type Options struct {
	Repository    calculationReader
	Resolver      lineResolver
	Groups        groupResolver
	Rates         rateResolver
	Logger        *logger.Logger
	Metrics       *metrics.CalculationMetrics
	BaseCurrency  enums.Currency
	AuditDisabled bool
}

// NewService builds the pricing orchestrator.
func NewService(opts Options) (Service, error) {
	if opts.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("material resolver is required")
	}
	if opts.Groups == nil {
		return nil, fmt.Errorf("group resolver is required")
	}
	if opts.Rates == nil {
		return nil, fmt.Errorf("rate resolver is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	base := opts.BaseCurrency
	if base == "" {
		base = enums.CurrencyTHB
	}
	return &service{
		repo:         opts.Repository,
		resolver:     opts.Resolver,
		groups:       opts.Groups,
		fx:           opts.Rates,
		logg:         opts.Logger,
		calcMetrics:  opts.Metrics,
		baseCurrency: base,
		auditOff:     opts.AuditDisabled,
	}, nil
}

// defaultFormulas cover a calculation when no base formula record has been
// approved yet. The result then carries a warning.
func defaultFormulas() rules.FormulaSet {
	return rules.FormulaSet{
		TotalCost:    "materialCost",
		SellingPrice: "totalCost * sellingFactor",
		Margin:       "(sellingPrice - totalCost) / sellingPrice",
		Constants:    map[string]float64{},
	}
}

// Calculate prices one product for one order. Master-data lookups are scoped
// by the resolved customer group; every record the calculation read lands in
// the snapshot so the result can be replayed.
func (s *service) Calculate(ctx context.Context, input CalculateInput) (*CalculationResult, error) {
	started := time.Now()
	result, err := s.calculate(ctx, input)
	s.calcMetrics.ObserveDuration("calculate", time.Since(started))
	if err != nil {
		s.calcMetrics.IncFailure("calculate")
		return nil, err
	}
	s.calcMetrics.IncSuccess("calculate")
	return result, nil
}

func (s *service) calculate(ctx context.Context, input CalculateInput) (*CalculationResult, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	targetCurrency := input.Currency
	if targetCurrency == "" {
		targetCurrency = s.baseCurrency
	}
	if !targetCurrency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown currency")
	}

	calculationID := uuid.New()
	ctx = s.logg.WithCalculationID(ctx, calculationID.String())
	ctx = s.logg.WithProductID(ctx, input.ProductID.String())

	warnings := []string{}

	resolution, err := s.groups.ResolveGroup(ctx, input.CustomerID, input.CustomerGroupID)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, resolution.Warnings...)

	product, err := s.repo.Product(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	lines, err := s.repo.BOMLines(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading bill of materials")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoBillOfMaterials, "product has no bill of materials")
	}

	orderQty := decimal.NewFromFloat(input.Quantity)
	snapshot := types.VersionSnapshot{}
	materialCost := decimal.Zero
	lineDTOs := make([]MaterialLineDTO, 0, len(lines))
	itemGroupCodes := make([]string, 0, len(lines))
	hasCommodity := false

	for _, line := range lines {
		detail, err := s.resolver.Resolve(ctx, line, orderQty, resolution.GroupID)
		if err != nil {
			return nil, err
		}
		materialCost = materialCost.Add(detail.TotalCost)
		if detail.PriceSource == enums.PriceSourceCommodity {
			hasCommodity = true
		}
		if detail.PriceSource == enums.PriceSourceNone {
			warnings = append(warnings, fmt.Sprintf("material %s has no price source", detail.MaterialCode))
		}
		itemGroupCodes = append(itemGroupCodes, detail.ItemGroupCode)
		for _, ref := range detail.UsedRecords {
			snapshot = snapshot.Add(ref)
		}
		lineDTOs = append(lineDTOs, MaterialLineDTO{
			LineID:        detail.LineID,
			MaterialCode:  detail.MaterialCode,
			MaterialName:  detail.MaterialName,
			ItemGroupCode: detail.ItemGroupCode,
			Unit:          detail.Unit,
			BOMQuantity:   detail.BOMQuantity,
			UnitPrice:     detail.UnitPrice,
			CostPerUnit:   detail.CostPerUnit,
			TotalCost:     detail.TotalCost,
			PriceSource:   detail.PriceSource,
		})
	}

	baseSet, baseWarnings, baseRef, err := s.loadFormulas(ctx)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, baseWarnings...)
	if baseRef != nil {
		snapshot = snapshot.Add(*baseRef)
	}

	sellingFactor, factorWarnings, factorRef, err := s.loadMarkup(ctx, product.TubeSize)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, factorWarnings...)
	if factorRef != nil {
		snapshot = snapshot.Add(*factorRef)
	}

	materialCostF, _ := materialCost.Float64()
	variables := map[string]float64{}
	for name, value := range baseSet.Constants {
		variables[name] = value
	}
	variables["materialCost"] = materialCostF
	variables["quantity"] = input.Quantity
	variables["sellingFactor"] = sellingFactor

	activeRules, err := s.repo.ActiveRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading override rules")
	}
	matched := rules.Match(ctx, activeRules, rules.MatchContext{
		ProductID:         product.ID,
		CustomerGroupID:   resolution.GroupID,
		Quantity:          input.Quantity,
		ItemGroupCodes:    itemGroupCodes,
		HasCommodityPrice: hasCommodity,
		Variables:         variables,
	}, s.logg)
	for _, rule := range matched {
		snapshot = snapshot.Add(types.RecordRef{
			Kind:    enums.RecordKindOverrideRule.String(),
			ID:      rule.ID,
			Version: rule.Version,
		})
	}

	merged := rules.Merge(baseSet, matched)
	variables, failures := rules.ApplyAdjustments(variables, merged.Adjustments)
	for _, failure := range failures {
		warnings = append(warnings, fmt.Sprintf("adjustment for %s skipped: %v", failure.Variable, failure.Err))
	}
	for _, action := range merged.Actions {
		if action.Type == enums.RuleActionWarn {
			warnings = append(warnings, action.Message)
		}
	}

	if merged.Formulas.MaterialCost != "" {
		adjusted, err := formula.Evaluate(merged.Formulas.MaterialCost, variables)
		if err != nil {
			return nil, err
		}
		variables["materialCost"] = adjusted
	}
	totalCost, err := formula.Evaluate(merged.Formulas.TotalCost, variables)
	if err != nil {
		return nil, err
	}
	variables["totalCost"] = totalCost
	sellingPrice, err := formula.Evaluate(merged.Formulas.SellingPrice, variables)
	if err != nil {
		return nil, err
	}
	variables["sellingPrice"] = sellingPrice
	margin, err := formula.Evaluate(merged.Formulas.Margin, variables)
	if err != nil {
		return nil, err
	}
	variables["margin"] = margin

	totalCostDec := decimal.NewFromFloat(totalCost)
	sellingPriceDec := decimal.NewFromFloat(sellingPrice)
	materialCostDec := decimal.NewFromFloat(variables["materialCost"])

	if targetCurrency != s.baseCurrency {
		rate, err := s.fx.Rate(ctx, s.baseCurrency, targetCurrency)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, rate.Warnings...)
		if ref := rate.SnapshotRef(); ref != nil {
			snapshot = snapshot.Add(*ref)
		}
		rateF, _ := rate.Rate.Float64()
		variables["exchangeRate"] = rateF
		if merged.Formulas.CurrencyConversion != "" {
			converted, err := formula.Evaluate(merged.Formulas.CurrencyConversion, variables)
			if err != nil {
				return nil, err
			}
			sellingPriceDec = decimal.NewFromFloat(converted)
			totalCostDec = totalCostDec.Mul(rate.Rate)
			materialCostDec = materialCostDec.Mul(rate.Rate)
		} else {
			sellingPriceDec = sellingPriceDec.Mul(rate.Rate)
			totalCostDec = totalCostDec.Mul(rate.Rate)
			materialCostDec = materialCostDec.Mul(rate.Rate)
		}
	}

	unitPrice := decimal.Zero
	if !orderQty.IsZero() {
		unitPrice = sellingPriceDec.Div(orderQty)
	}

	result := &CalculationResult{
		CalculationID:   calculationID,
		ProductID:       product.ID,
		CustomerGroupID: resolution.GroupID,
		Quantity:        orderQty,
		Currency:        targetCurrency,
		MaterialCost:    materialCostDec,
		TotalCost:       totalCostDec,
		SellingPrice:    sellingPriceDec,
		UnitPrice:       unitPrice,
		Margin:          decimal.NewFromFloat(margin),
		Lines:           lineDTOs,
		Formulas: FormulaSetDTO{
			MaterialCost:       merged.Formulas.MaterialCost,
			TotalCost:          merged.Formulas.TotalCost,
			SellingPrice:       merged.Formulas.SellingPrice,
			Margin:             merged.Formulas.Margin,
			CurrencyConversion: merged.Formulas.CurrencyConversion,
		},
		Variables:    variables,
		AppliedRules: merged.Applied,
		Actions:      merged.Actions,
		Warnings:     warnings,
		Snapshot:     snapshot,
		CalculatedAt: time.Now().UTC(),
	}

	s.writeAudit(ctx, input, result)
	return result, nil
}

// History pages through past calculations.
func (s *service) History(ctx context.Context, productID *uuid.UUID, params pagination.Params) (*AuditList, error) {
	audits, next, err := s.repo.ListAudits(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing calculation history")
	}
	summaries := make([]AuditSummary, 0, len(audits))
	for _, audit := range audits {
		summaries = append(summaries, auditSummary(audit))
	}
	return &AuditList{Calculations: summaries, NextCursor: next}, nil
}

// Audit loads one past calculation by its calculation id so the snapshot can
// be replayed.
func (s *service) Audit(ctx context.Context, id uuid.UUID) (*AuditSummary, error) {
	audit, err := s.repo.AuditByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading calculation audit")
	}
	if audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "calculation not found")
	}
	summary := auditSummary(*audit)
	return &summary, nil
}

func auditSummary(audit models.CalculationAudit) AuditSummary {
	return AuditSummary{
		ID:              audit.ID,
		ProductID:       audit.ProductID,
		CustomerGroupID: audit.CustomerGroupID,
		Quantity:        audit.Quantity,
		Currency:        audit.Currency,
		TotalCost:       audit.TotalCost,
		SellingPrice:    audit.SellingPrice,
		Margin:          audit.Margin,
		AppliedRules:    audit.AppliedRules,
		Snapshot:        audit.Snapshot,
		Warnings:        audit.Warnings,
		CreatedAt:       audit.CreatedAt,
	}
}

func (s *service) loadFormulas(ctx context.Context) (rules.FormulaSet, []string, *types.RecordRef, error) {
	base, err := s.repo.ActiveBaseFormula(ctx)
	if err != nil {
		return rules.FormulaSet{}, nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading base formula")
	}
	if base == nil {
		return defaultFormulas(), []string{"no approved base formula, using built-in defaults"}, nil, nil
	}
	ref := &types.RecordRef{
		Kind:    enums.RecordKindBaseFormula.String(),
		ID:      base.ID,
		Version: base.Version,
	}
	return rules.FormulaSetFromBase(*base), nil, ref, nil
}

func (s *service) loadMarkup(ctx context.Context, tubeSize string) (float64, []string, *types.RecordRef, error) {
	if tubeSize == "" {
		return 1, []string{"product has no tube size, selling factor defaults to 1"}, nil, nil
	}
	factor, err := s.repo.ActiveMarkupFactor(ctx, tubeSize)
	if err != nil {
		return 0, nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading markup factor")
	}
	if factor == nil {
		return 1, []string{fmt.Sprintf("no approved markup factor for tube size %s, selling factor defaults to 1", tubeSize)}, nil, nil
	}
	value, _ := factor.Factor.Float64()
	ref := &types.RecordRef{
		Kind:    enums.RecordKindMarkupFactor.String(),
		ID:      factor.ID,
		Version: factor.Version,
	}
	return value, nil, ref, nil
}

// writeAudit persists the trace best-effort. A failed write degrades to a log
// line, never a failed calculation.
func (s *service) writeAudit(ctx context.Context, input CalculateInput, result *CalculationResult) {
	if s.auditOff {
		return
	}
	audit := &models.CalculationAudit{
		ID:              result.CalculationID,
		ProductID:       result.ProductID,
		CustomerID:      input.CustomerID,
		CustomerGroupID: result.CustomerGroupID,
		Quantity:        result.Quantity,
		Currency:        result.Currency,
		TotalCost:       result.TotalCost,
		SellingPrice:    result.SellingPrice,
		Margin:          result.Margin,
		AppliedRules:    result.AppliedRules,
		Snapshot:        result.Snapshot,
		Warnings:        result.Warnings,
	}
	if err := s.repo.CreateAudit(ctx, audit); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("writing calculation audit failed: %v", err))
	}
}
