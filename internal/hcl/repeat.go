package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// repeatRule is a compiled `repeat` block.
type repeatRule struct {
	count hcl.Expression
	when  hcl.Expression
}

// newRepeatRule validates a repeat block. References must name declared
// parameters, and literal counts must be whole numbers.
func newRepeatRule(ctx context.Context, b *repeatBlock, params map[string]struct{}) (*repeatRule, hcl.Diagnostics) {
	rule := &repeatRule{count: b.Count}
	diags := checkReferences(b.Count, params)
	diags = append(diags, parseStaticCount(b.Count)...)

	if isExprDefined(ctx, b.When, "when") {
		rule.when = b.When
		diags = append(diags, checkReferences(b.When, params)...)
	}
	return rule, diags
}

// checkReferences rejects variables that are not parameters of the sweep.
func checkReferences(expr hcl.Expression, params map[string]struct{}) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := params[name]; ok {
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Reference to undeclared parameter",
			Detail:   fmt.Sprintf("There is no parameter named %q in this sweep.", name),
			Subject:  traversal.SourceRange().Ptr(),
		})
	}
	return diags
}

// parseStaticCount validates a count expression that has no variables, so
// that obviously wrong literals fail at load time instead of at run time.
func parseStaticCount(expr hcl.Expression) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if len(expr.Variables()) > 0 {
		return diags
	}

	val, valDiags := expr.Value(staticEvalContext())
	diags = append(diags, valDiags...)
	if valDiags.HasErrors() || val.IsNull() {
		return diags
	}

	if val.Type() != cty.Number {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid count value",
			Detail:   "The 'count' attribute must be a number or null.",
			Subject:  expr.Range().Ptr(),
		})
	}
	if _, err := wholeNumber(val); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid count value",
			Detail:   fmt.Sprintf("The 'count' attribute is invalid: %s.", err),
			Subject:  expr.Range().Ptr(),
		})
	}
	return diags
}

// Count evaluates the rule against one assignment. A false `when` or a null
// count defers to the previously resolved count.
func (r *repeatRule) Count(a sweep.Assignment) (int, bool, error) {
	evalCtx := &hcl.EvalContext{
		Variables: a.Map(),
		Functions: functions(),
	}

	if r.when != nil {
		cond, diags := r.when.Value(evalCtx)
		if diags.HasErrors() {
			return 0, false, diags
		}
		cond, err := convert.Convert(cond, cty.Bool)
		if err != nil {
			return 0, false, fmt.Errorf("%s: 'when' must be a bool: %w", r.when.Range(), err)
		}
		if cond.IsNull() || cond.False() {
			return 0, false, nil
		}
	}

	val, diags := r.count.Value(evalCtx)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, nil
	}
	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, false, fmt.Errorf("%s: 'count' must be a number: %w", r.count.Range(), err)
	}
	n, err := wholeNumber(val)
	if err != nil {
		return 0, false, fmt.Errorf("%s: 'count' %w", r.count.Range(), err)
	}
	return n, true, nil
}
