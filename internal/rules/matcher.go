// Package rules selects and folds pricing override rules. Matching is a pure
// predicate pass; merging is a pure, deterministic fold that records an audit
// trail of every override it applies.
package rules

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/siamtube/pricing-backend/internal/formula"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

// MatchContext is the read-only view of one calculation the matcher sees.
// Variables is the flattened context handed to free-form rule expressions.
type MatchContext struct {
	ProductID         uuid.UUID
	CustomerGroupID   *uuid.UUID
	Quantity          float64
	ItemGroupCodes    []string
	HasCommodityPrice bool
	Variables         map[string]float64
}

// Match returns the enabled rules whose every present condition holds,
// sorted by priority ascending with rule id as the deterministic tiebreak.
// A rule whose free-form condition fails to evaluate is skipped and logged,
// never fatal to the calculation.
func Match(ctx context.Context, allRules []models.OverrideRule, mctx MatchContext, logg *logger.Logger) []models.OverrideRule {
	matched := make([]models.OverrideRule, 0, len(allRules))
	for _, rule := range allRules {
		if !rule.IsActive {
			continue
		}
		ok, err := conditionsHold(rule, mctx)
		if err != nil {
			if logg != nil {
				logg.Error(logg.WithFields(ctx, map[string]any{
					"rule_id":   rule.ID.String(),
					"rule_name": rule.Name,
				}), "rule condition evaluation failed, rule skipped", err)
			}
			continue
		}
		if ok {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority < matched[j].Priority
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return matched
}

// conditionsHold ANDs every present condition field; an absent field is
// "don't care". Quantity bounds are inclusive-min, exclusive-max.
func conditionsHold(rule models.OverrideRule, mctx MatchContext) (bool, error) {
	cond := rule.Conditions

	if len(cond.CustomerGroupIDs) > 0 {
		if mctx.CustomerGroupID == nil || !containsUUID(cond.CustomerGroupIDs, *mctx.CustomerGroupID) {
			return false, nil
		}
	}

	if len(cond.ProductIDs) > 0 && !containsUUID(cond.ProductIDs, mctx.ProductID) {
		return false, nil
	}

	if len(cond.ItemGroupCodes) > 0 && !intersects(cond.ItemGroupCodes, mctx.ItemGroupCodes) {
		return false, nil
	}

	if cond.HasCommodityPrice != nil && *cond.HasCommodityPrice != mctx.HasCommodityPrice {
		return false, nil
	}

	if cond.QuantityMin != nil && mctx.Quantity < *cond.QuantityMin {
		return false, nil
	}
	if cond.QuantityMax != nil && mctx.Quantity >= *cond.QuantityMax {
		return false, nil
	}

	if cond.Expression != "" {
		ok, err := formula.EvaluateBool(cond.Expression, mctx.Variables)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func containsUUID(haystack []uuid.UUID, needle uuid.UUID) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

// intersects reports whether any BOM item-group code appears in the rule's
// code set.
func intersects(ruleCodes, contextCodes []string) bool {
	for _, code := range contextCodes {
		for _, candidate := range ruleCodes {
			if candidate == code {
				return true
			}
		}
	}
	return false
}
