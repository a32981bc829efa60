package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// staticEvalContext is used for attributes that may call functions but must
// not reference variables.
func staticEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: functions()}
}

// translateSweep converts a decoded sweep block into a Definition.
func translateSweep(ctx context.Context, b *sweepBlock, filename string) (*Definition, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx).With("sweep", b.Name)
	var diags hcl.Diagnostics

	params := make(sweep.Parameters, 0, len(b.Parameters))
	seen := make(map[string]hcl.Range, len(b.Parameters))
	for _, p := range b.Parameters {
		if prev, dup := seen[p.Name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter",
				Detail:   fmt.Sprintf("Parameter %q was already declared at %s.", p.Name, prev),
				Subject:  p.DeclRange.Ptr(),
			})
			continue
		}
		seen[p.Name] = p.DeclRange

		domain, dDiags := translateParameter(p)
		diags = append(diags, dDiags...)
		if !dDiags.HasErrors() {
			params = append(params, domain)
			logger.Debug("Parameter translated.", "parameter", p.Name, "values", domain.Len())
		}
	}

	opts := make([]sweep.Option, 0, 2)

	if isExprDefined(ctx, b.DefaultRepeats, "default_repeats") {
		n, dDiags := parseDefaultRepeats(b.DefaultRepeats)
		diags = append(diags, dDiags...)
		opts = append(opts, sweep.WithDefaultRepeats(n))
	}

	if isExprDefined(ctx, b.Joint, "joint") {
		groups, jDiags := parseJoint(b.Joint)
		diags = append(diags, jDiags...)
		opts = append(opts, sweep.WithJointGroups(groups...))
	}

	names := make(map[string]struct{}, len(params))
	for _, d := range params {
		names[d.Name] = struct{}{}
	}
	for i, r := range b.Repeats {
		rule, rDiags := newRepeatRule(ctx, r, names)
		diags = append(diags, rDiags...)
		if !rDiags.HasErrors() {
			opts = append(opts, sweep.WithCountFuncs(rule.Count))
			logger.Debug("Repeat rule translated.", "index", i, "conditional", rule.when != nil)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}

	return &Definition{
		Name:        b.Name,
		Description: b.Description,
		File:        filename,
		Scan:        sweep.New(params, opts...),
	}, diags
}

// translateParameter evaluates a parameter's `values` expression into a
// Domain. Values must be an ordered collection of known, non-null numbers,
// strings or bools.
func translateParameter(p *parameterBlock) (sweep.Domain, hcl.Diagnostics) {
	val, diags := p.Values.Value(staticEvalContext())
	if diags.HasErrors() {
		return sweep.Domain{}, diags
	}

	ty := val.Type()
	if val.IsNull() || !(ty.IsListType() || ty.IsTupleType()) {
		return sweep.Domain{}, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter values",
			Detail:   fmt.Sprintf("The 'values' of parameter %q must be a list, got %s.", p.Name, ty.FriendlyName()),
			Subject:  p.Values.Range().Ptr(),
		})
	}
	if !val.IsWhollyKnown() {
		return sweep.Domain{}, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter values",
			Detail:   fmt.Sprintf("The 'values' of parameter %q must be known when the sweep is loaded.", p.Name),
			Subject:  p.Values.Range().Ptr(),
		})
	}

	values := make([]cty.Value, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		idx, v := it.Element()
		if v.IsNull() || !v.Type().IsPrimitiveType() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid parameter value",
				Detail:   fmt.Sprintf("Element %s of parameter %q must be a number, string or bool.", idx.GoString(), p.Name),
				Subject:  p.Values.Range().Ptr(),
			})
			// Report the first bad element only.
			break
		}
		values = append(values, v)
	}
	return sweep.NewDomain(p.Name, values...), diags
}

// parseDefaultRepeats validates the `default_repeats` attribute, mirroring
// the static checks of repeat `count` literals.
func parseDefaultRepeats(expr hcl.Expression) (int, hcl.Diagnostics) {
	val, diags := expr.Value(staticEvalContext())
	if diags.HasErrors() {
		return sweep.DefaultRepeats, diags
	}
	n, err := wholeNumber(val)
	if err == nil && n < 0 {
		err = fmt.Errorf("value must not be negative, got %d", n)
	}
	if err != nil {
		return sweep.DefaultRepeats, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid default_repeats value",
			Detail:   fmt.Sprintf("The 'default_repeats' attribute is invalid: %s.", err),
			Subject:  expr.Range().Ptr(),
		})
	}
	return n, diags
}

// parseJoint converts the `joint` attribute, a list of lists of parameter
// names, into joint groups. Name checks are left to the scan.
func parseJoint(expr hcl.Expression) ([]sweep.JointGroup, hcl.Diagnostics) {
	val, diags := expr.Value(staticEvalContext())
	if diags.HasErrors() {
		return nil, diags
	}

	invalid := func(err error) hcl.Diagnostics {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid joint value",
			Detail:   fmt.Sprintf("The 'joint' attribute must be a list of lists of parameter names: %s.", err),
			Subject:  expr.Range().Ptr(),
		})
	}

	want := cty.List(cty.List(cty.String))
	converted, err := convert.Convert(val, want)
	if err != nil {
		return nil, invalid(err)
	}
	if converted.IsNull() {
		return nil, diags
	}

	var raw [][]string
	if err := gocty.FromCtyValue(converted, &raw); err != nil {
		return nil, invalid(err)
	}
	groups := make([]sweep.JointGroup, len(raw))
	for i, g := range raw {
		groups[i] = sweep.JointGroup(g)
	}
	return groups, diags
}
