package rules

import (
	"sort"

	"github.com/siamtube/pricing-backend/internal/formula"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// FormulaSet is the five formula strings a calculation evaluates, plus the
// named constants seeded into the variable map.
type FormulaSet struct {
	MaterialCost       string
	TotalCost          string
	SellingPrice       string
	Margin             string
	CurrencyConversion string
	Constants          map[string]float64
}

// FormulaSetFromBase lifts the persisted default formulas into a FormulaSet.
func FormulaSetFromBase(base models.BaseFormula) FormulaSet {
	constants := make(map[string]float64, len(base.Constants))
	for name, value := range base.Constants {
		constants[name] = value
	}
	return FormulaSet{
		MaterialCost:       base.MaterialCostFormula,
		TotalCost:          base.TotalCostFormula,
		SellingPrice:       base.SellingPriceFormula,
		Margin:             base.MarginFormula,
		CurrencyConversion: base.CurrencyConversionFormula,
		Constants:          constants,
	}
}

// MergedFormulaSet is the deterministic result of folding matched rules over
// the base formulas: the final formula strings, the accumulated variable
// adjustments (later rules win per key), the declared side-effect actions,
// and the ordered audit trail of what changed.
type MergedFormulaSet struct {
	Formulas    FormulaSet
	Adjustments types.VariableAdjustments
	Actions     types.RuleActions
	Applied     types.AppliedRules
}

// Merge folds matchedInPriorityOrder over base. Identical inputs always
// produce identical output, including the Applied ordering; the audit trail
// is what makes a calculation replayable from its snapshot.
func Merge(base FormulaSet, matchedInPriorityOrder []models.OverrideRule) MergedFormulaSet {
	merged := MergedFormulaSet{
		Formulas:    base,
		Adjustments: types.VariableAdjustments{},
		Actions:     types.RuleActions{},
		Applied:     types.AppliedRules{},
	}

	for _, rule := range matchedInPriorityOrder {
		applyFormulaOverrides(&merged, rule)
		applyVariableAdjustments(&merged, rule)
		merged.Actions = append(merged.Actions, rule.Actions...)
	}
	return merged
}

func applyFormulaOverrides(merged *MergedFormulaSet, rule models.OverrideRule) {
	overrides := []struct {
		target string
		value  string
		field  *string
	}{
		{"material_cost", rule.FormulaOverrides.MaterialCost, &merged.Formulas.MaterialCost},
		{"total_cost", rule.FormulaOverrides.TotalCost, &merged.Formulas.TotalCost},
		{"selling_price", rule.FormulaOverrides.SellingPrice, &merged.Formulas.SellingPrice},
		{"margin", rule.FormulaOverrides.Margin, &merged.Formulas.Margin},
		{"currency_conversion", rule.FormulaOverrides.CurrencyConversion, &merged.Formulas.CurrencyConversion},
	}
	for _, override := range overrides {
		if override.value == "" {
			continue
		}
		*override.field = override.value
		merged.Applied = append(merged.Applied, types.AppliedRule{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Priority: rule.Priority,
			Kind:     types.AppliedRuleFormula,
			Target:   override.target,
		})
	}
}

func applyVariableAdjustments(merged *MergedFormulaSet, rule models.OverrideRule) {
	keys := make([]string, 0, len(rule.VariableAdjustments))
	for key := range rule.VariableAdjustments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		merged.Adjustments[key] = rule.VariableAdjustments[key]
		merged.Applied = append(merged.Applied, types.AppliedRule{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Priority: rule.Priority,
			Kind:     types.AppliedRuleVariable,
			Target:   key,
		})
	}
}

// AdjustmentFailure reports one adjustment whose formula did not evaluate.
// The variable keeps its prior value; the failure is surfaced, not fatal.
type AdjustmentFailure struct {
	Variable string
	Err      error
}

// ApplyAdjustments returns a new variable map with every adjustment applied.
// Formula adjustments evaluate against the variable set as it stood before
// any adjustment in this pass, so adjustment order cannot change results.
func ApplyAdjustments(variables map[string]float64, adjustments types.VariableAdjustments) (map[string]float64, []AdjustmentFailure) {
	snapshot := make(map[string]float64, len(variables))
	for name, value := range variables {
		snapshot[name] = value
	}
	out := make(map[string]float64, len(variables))
	for name, value := range variables {
		out[name] = value
	}

	keys := make([]string, 0, len(adjustments))
	for key := range adjustments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failures []AdjustmentFailure
	for _, key := range keys {
		adjustment := adjustments[key]
		if adjustment.IsLiteral() {
			out[key] = *adjustment.Literal
			continue
		}
		value, err := formula.Evaluate(adjustment.Formula, snapshot)
		if err != nil {
			failures = append(failures, AdjustmentFailure{Variable: key, Err: err})
			continue
		}
		out[key] = value
	}
	return out, failures
}
