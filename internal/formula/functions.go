package formula

import "math"

// funcSpec describes one whitelisted function. Arity is checked at validation
// time; MaxArgs = -1 means variadic (at least MinArgs).
type funcSpec struct {
	MinArgs int
	MaxArgs int
	Apply   func(args []float64) float64
}

// functions is the closed whitelist. Anything called outside this table fails
// validation before it can ever be stored or evaluated.
var functions = map[string]funcSpec{
	"abs":   {1, 1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"sqrt":  {1, 1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"floor": {1, 1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, 1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, 2, applyRound},
	"min":   {2, -1, applyMin},
	"max":   {2, -1, applyMax},
	"pow":   {2, 2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"sin":   {1, 1, func(a []float64) float64 { return math.Sin(a[0]) }},
	"cos":   {1, 1, func(a []float64) float64 { return math.Cos(a[0]) }},
	"tan":   {1, 1, func(a []float64) float64 { return math.Tan(a[0]) }},
	"log":   {1, 1, func(a []float64) float64 { return math.Log(a[0]) }},
}

// constants are resolved before variables so a caller cannot shadow them.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

func applyRound(args []float64) float64 {
	if len(args) == 1 {
		return math.Round(args[0])
	}
	shift := math.Pow(10, math.Trunc(args[1]))
	return math.Round(args[0]*shift) / shift
}

func applyMin(args []float64) float64 {
	out := args[0]
	for _, v := range args[1:] {
		out = math.Min(out, v)
	}
	return out
}

func applyMax(args []float64) float64 {
	out := args[0]
	for _, v := range args[1:] {
		out = math.Max(out, v)
	}
	return out
}
