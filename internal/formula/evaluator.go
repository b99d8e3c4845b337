// Package formula implements the restricted expression language used by
// pricing formulas and rule conditions. Expressions are validated once at
// authoring time and evaluated later against a plain variable map; there is
// no dynamic code path and no access to ambient state.
package formula

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
)

// forbiddenIdents are rejected outright wherever they appear, even as bare
// variables, so injection-shaped formulas fail loudly at authoring time.
var forbiddenIdents = map[string]struct{}{
	"import":   {},
	"eval":     {},
	"exec":     {},
	"compile":  {},
	"require":  {},
	"function": {},
	"system":   {},
}

// Validate parses the expression and checks every call against the function
// whitelist. It is the authoring-time gate: a formula that fails here is
// never stored and never reaches Evaluate.
func Validate(expression string) error {
	root, err := parse(expression)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid formula").
			WithDetails(map[string]any{"formula": expression})
	}
	if err := checkNode(root); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid formula").
			WithDetails(map[string]any{"formula": expression})
	}
	return nil
}

// Evaluate parses and evaluates the expression against the variable map.
// Boolean operators yield 1 or 0. Non-finite results are an error, never a
// silently propagated NaN.
func Evaluate(expression string, variables map[string]float64) (float64, error) {
	root, err := parse(expression)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid formula").
			WithDetails(map[string]any{"formula": expression})
	}
	if err := checkNode(root); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInvalidFormula, err, "invalid formula").
			WithDetails(map[string]any{"formula": expression})
	}

	result, err := evalNode(root, variables)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeEvalError, err, "formula evaluation failed").
			WithDetails(map[string]any{"formula": expression})
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, pkgerrors.New(pkgerrors.CodeEvalError, "formula produced a non-finite result").
			WithDetails(map[string]any{"formula": expression})
	}
	return result, nil
}

// EvaluateBool runs Evaluate and applies the language's truthiness rule:
// any non-zero number is true.
func EvaluateBool(expression string, variables map[string]float64) (bool, error) {
	result, err := Evaluate(expression, variables)
	if err != nil {
		return false, err
	}
	return result != 0, nil
}

func checkNode(n *node) error {
	switch n.kind {
	case nodeVariable:
		if _, forbidden := forbiddenIdents[strings.ToLower(n.name)]; forbidden {
			return fmt.Errorf("identifier %q is not allowed", n.name)
		}
	case nodeCall:
		lowered := strings.ToLower(n.name)
		if _, forbidden := forbiddenIdents[lowered]; forbidden {
			return fmt.Errorf("function %q is not allowed", n.name)
		}
		spec, ok := functions[lowered]
		if !ok {
			return fmt.Errorf("unknown function %q", n.name)
		}
		if len(n.args) < spec.MinArgs {
			return fmt.Errorf("function %q expects at least %d arguments", n.name, spec.MinArgs)
		}
		if spec.MaxArgs >= 0 && len(n.args) > spec.MaxArgs {
			return fmt.Errorf("function %q expects at most %d arguments", n.name, spec.MaxArgs)
		}
	}
	for _, arg := range n.args {
		if err := checkNode(arg); err != nil {
			return err
		}
	}
	return nil
}

func evalNode(n *node, variables map[string]float64) (float64, error) {
	switch n.kind {
	case nodeNumber:
		return n.value, nil

	case nodeVariable:
		if value, ok := constants[strings.ToLower(n.name)]; ok {
			return value, nil
		}
		value, ok := variables[n.name]
		if !ok {
			return 0, fmt.Errorf("unknown variable %q", n.name)
		}
		return value, nil

	case nodeUnary:
		operand, err := evalNode(n.args[0], variables)
		if err != nil {
			return 0, err
		}
		switch n.name {
		case "-":
			return -operand, nil
		case "!":
			return boolToFloat(operand == 0), nil
		}
		return 0, fmt.Errorf("unknown unary operator %q", n.name)

	case nodeBinary:
		left, err := evalNode(n.args[0], variables)
		if err != nil {
			return 0, err
		}
		// short circuit before evaluating the right side
		switch n.name {
		case "&&":
			if left == 0 {
				return 0, nil
			}
		case "||":
			if left != 0 {
				return 1, nil
			}
		}
		right, err := evalNode(n.args[1], variables)
		if err != nil {
			return 0, err
		}
		return applyBinary(n.name, left, right)

	case nodeCall:
		args := make([]float64, len(n.args))
		for i, argNode := range n.args {
			value, err := evalNode(argNode, variables)
			if err != nil {
				return 0, err
			}
			args[i] = value
		}
		return functions[strings.ToLower(n.name)].Apply(args), nil
	}
	return 0, fmt.Errorf("unknown node kind %d", n.kind)
}

func applyBinary(op string, left, right float64) (float64, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return math.Mod(left, right), nil
	case "^":
		return math.Pow(left, right), nil
	case "<":
		return boolToFloat(left < right), nil
	case "<=":
		return boolToFloat(left <= right), nil
	case ">":
		return boolToFloat(left > right), nil
	case ">=":
		return boolToFloat(left >= right), nil
	case "==":
		return boolToFloat(left == right), nil
	case "!=":
		return boolToFloat(left != right), nil
	case "&&":
		return boolToFloat(right != 0), nil
	case "||":
		return boolToFloat(right != 0), nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
