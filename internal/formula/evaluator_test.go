package formula

import (
	"math"
	"testing"

	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
)

func TestEvaluateArithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		vars map[string]float64
		want float64
	}{
		{name: "precedence", expr: "2+3*4", want: 14},
		{name: "parentheses", expr: "(2+3)*4", want: 20},
		{name: "unary minus", expr: "-3+5", want: 2},
		{name: "power right assoc", expr: "2^3^2", want: 512},
		{name: "modulo", expr: "10%3", want: 1},
		{name: "variables", expr: "materialCost*sellingFactor", vars: map[string]float64{"materialCost": 3000, "sellingFactor": 1.25}, want: 3750},
		{name: "function call", expr: "round(2.456, 2)", want: 2.46},
		{name: "nested functions", expr: "max(min(5,10), abs(-3))", want: 5},
		{name: "constant pi", expr: "round(pi, 2)", want: 3.14},
		{name: "comparison true", expr: "1500 >= 1000", want: 1},
		{name: "comparison false", expr: "2 > 3", want: 0},
		{name: "boolean and", expr: "1 && 0", want: 0},
		{name: "boolean or", expr: "0 || 1", want: 1},
		{name: "not", expr: "!0", want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(tt.expr, tt.vars)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		vars map[string]float64
		code pkgerrors.Code
	}{
		{name: "unknown variable", expr: "unknownVar*2", code: pkgerrors.CodeEvalError},
		{name: "division by zero", expr: "1/0", code: pkgerrors.CodeEvalError},
		{name: "modulo by zero", expr: "1%0", code: pkgerrors.CodeEvalError},
		{name: "sqrt of negative is not finite", expr: "sqrt(0-1)", code: pkgerrors.CodeEvalError},
		{name: "log of zero is not finite", expr: "log(0)", code: pkgerrors.CodeEvalError},
		{name: "empty", expr: "", code: pkgerrors.CodeInvalidFormula},
		{name: "dangling operator", expr: "2+", code: pkgerrors.CodeInvalidFormula},
		{name: "unbalanced parens", expr: "(2+3", code: pkgerrors.CodeInvalidFormula},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Evaluate(tt.expr, tt.vars)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			if !pkgerrors.HasCode(err, tt.code) {
				t.Fatalf("Evaluate(%q) expected code %s, got %v", tt.expr, tt.code, err)
			}
		})
	}
}

func TestValidateRejectsInjectionShapes(t *testing.T) {
	t.Parallel()

	rejected := []string{
		"import(something)",
		"eval(1+2)",
		"exec(1)",
		"require(x)",
		"compile(y)",
		"system(1)",
		"os.system(1)",
		`"string literal"`,
		"a; b",
		"x = 2",
	}
	for _, expr := range rejected {
		if err := Validate(expr); err == nil {
			t.Fatalf("Validate(%q) should have failed", expr)
		} else if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidFormula) {
			t.Fatalf("Validate(%q) expected INVALID_FORMULA, got %v", expr, err)
		}
	}
}

func TestValidateRejectsUnknownFunctions(t *testing.T) {
	t.Parallel()

	if err := Validate("mystery(1)"); err == nil {
		t.Fatal("unknown function should fail validation")
	}
	if err := Validate("min(1)"); err == nil {
		t.Fatal("min with one argument should fail arity check")
	}
	if err := Validate("abs(1,2)"); err == nil {
		t.Fatal("abs with two arguments should fail arity check")
	}
}

func TestValidateAllowsUnboundVariables(t *testing.T) {
	t.Parallel()

	// Variables are bound at evaluation time; authoring only checks shape.
	if err := Validate("materialCost * sellingFactor + fabricationCost"); err != nil {
		t.Fatalf("expected valid formula, got %v", err)
	}
}

func TestEvaluateBoolTruthiness(t *testing.T) {
	t.Parallel()

	ok, err := EvaluateBool("quantity >= 1000 && hasCommodityPrice == 1", map[string]float64{
		"quantity":          1500,
		"hasCommodityPrice": 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected condition to hold")
	}

	ok, err = EvaluateBool("quantity >= 1000", map[string]float64{"quantity": 999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected condition to fail")
	}
}
