package hcl

import (
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// maxSpaceNum bounds the number of values linspace and logspace generate.
const maxSpaceNum = 1_000_000

// LinspaceFunc returns num evenly spaced numbers over [start, stop]. The last
// element is exactly stop.
var LinspaceFunc = function.New(&function.Spec{
	Description: "Returns num evenly spaced numbers from start to stop, inclusive.",
	Params: []function.Parameter{
		{Name: "start", Type: cty.Number},
		{Name: "stop", Type: cty.Number},
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		num, err := wholeNumber(args[2])
		if err != nil {
			return cty.UnknownVal(retType), function.NewArgError(2, err)
		}
		if num < 0 {
			return cty.UnknownVal(retType), function.NewArgErrorf(2, "num must not be negative, got %d", num)
		}
		if num > maxSpaceNum {
			return cty.UnknownVal(retType), function.NewArgErrorf(2, "num must be at most %d, got %d", maxSpaceNum, num)
		}
		if num == 0 {
			return cty.ListValEmpty(cty.Number), nil
		}

		start, _ := args[0].AsBigFloat().Float64()
		stop, _ := args[1].AsBigFloat().Float64()
		if num == 1 {
			return cty.ListVal([]cty.Value{cty.NumberFloatVal(start)}), nil
		}

		step := (stop - start) / float64(num-1)
		vals := make([]cty.Value, num)
		for i := range num - 1 {
			vals[i] = cty.NumberFloatVal(start + float64(i)*step)
		}
		vals[num-1] = cty.NumberFloatVal(stop)
		return cty.ListVal(vals), nil
	},
})

// LogspaceFunc returns num numbers spaced evenly on a log scale, from
// base^start to base^stop inclusive, with base 10.
var LogspaceFunc = function.New(&function.Spec{
	Description: "Returns num numbers spaced evenly on a base 10 log scale.",
	Params: []function.Parameter{
		{Name: "start", Type: cty.Number},
		{Name: "stop", Type: cty.Number},
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		exps, err := LinspaceFunc.Call(args)
		if err != nil {
			return cty.UnknownVal(retType), err
		}
		if exps.LengthInt() == 0 {
			return exps, nil
		}
		vals := make([]cty.Value, 0, exps.LengthInt())
		for it := exps.ElementIterator(); it.Next(); {
			_, e := it.Element()
			f, _ := e.AsBigFloat().Float64()
			vals = append(vals, cty.NumberFloatVal(math.Pow(10, f)))
		}
		return cty.ListVal(vals), nil
	},
})

// functions is the function table available in sweep expressions.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"linspace": LinspaceFunc,
		"logspace": LogspaceFunc,
		"range":    stdlib.RangeFunc,
		"concat":   stdlib.ConcatFunc,
		"min":      stdlib.MinFunc,
		"max":      stdlib.MaxFunc,
		"abs":      stdlib.AbsoluteFunc,
		"floor":    stdlib.FloorFunc,
		"ceil":     stdlib.CeilFunc,
		"pow":      stdlib.PowFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"format":   stdlib.FormatFunc,
	}
}

// wholeNumber converts a known number value to int, rejecting fractions.
func wholeNumber(v cty.Value) (int, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("value must not be null")
	}
	if !v.IsKnown() {
		return 0, fmt.Errorf("value must be known")
	}
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("value must be a number, got %s", v.Type().FriendlyName())
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("value must be a whole number, got %s", bf.Text('g', -1))
	}
	n, acc := bf.Int64()
	if acc != big.Exact || n > math.MaxInt || n < math.MinInt {
		return 0, fmt.Errorf("value is too large, got %s", bf.Text('g', -1))
	}
	return int(n), nil
}
