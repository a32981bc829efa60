package sweep

import (
	"fmt"
	"strconv"

	"github.com/zclconf/go-cty/cty"
)

// Domain is the ordered list of candidate values for one parameter.
type Domain struct {
	Name   string
	Values []cty.Value
}

// NewDomain creates a Domain from arbitrary cty values.
func NewDomain(name string, values ...cty.Value) Domain {
	return Domain{Name: name, Values: append([]cty.Value(nil), values...)}
}

// Numbers creates a numeric Domain.
func Numbers(name string, values ...float64) Domain {
	d := Domain{Name: name, Values: make([]cty.Value, len(values))}
	for i, v := range values {
		d.Values[i] = cty.NumberFloatVal(v)
	}
	return d
}

// Strings creates a string Domain.
func Strings(name string, values ...string) Domain {
	d := Domain{Name: name, Values: make([]cty.Value, len(values))}
	for i, v := range values {
		d.Values[i] = cty.StringVal(v)
	}
	return d
}

// Len returns the number of candidate values.
func (d Domain) Len() int {
	return len(d.Values)
}

// Parameters is an ordered mapping from parameter name to Domain.
type Parameters []Domain

// Names returns the parameter names in declaration order.
func (p Parameters) Names() []string {
	names := make([]string, len(p))
	for i, d := range p {
		names[i] = d.Name
	}
	return names
}

// clone deep-copies the parameter list so a Scan never aliases caller slices.
func (p Parameters) clone() Parameters {
	out := make(Parameters, len(p))
	for i, d := range p {
		out[i] = NewDomain(d.Name, d.Values...)
	}
	return out
}

// index maps each name to its declaration position. Duplicate and empty names
// are configuration errors.
func (p Parameters) index() (map[string]int, error) {
	idx := make(map[string]int, len(p))
	for i, d := range p {
		if d.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("parameter %d has an empty name", i)}
		}
		if _, dup := idx[d.Name]; dup {
			return nil, &ConfigurationError{Name: d.Name, Reason: "parameter is declared more than once"}
		}
		for j, v := range d.Values {
			if err := checkValue(v); err != nil {
				return nil, &ConfigurationError{Name: d.Name, Reason: fmt.Sprintf("value %d: %v", j, err)}
			}
		}
		idx[d.Name] = i
	}
	return idx, nil
}

func checkValue(v cty.Value) error {
	switch {
	case v == cty.NilVal:
		return fmt.Errorf("value is unset")
	case v.IsNull():
		return fmt.Errorf("value is null")
	case !v.IsWhollyKnown():
		return fmt.Errorf("value is unknown")
	case !v.Type().IsPrimitiveType():
		return fmt.Errorf("value must be a number, string or bool, got %s", v.Type().FriendlyName())
	}
	return nil
}

// FormatValue renders a parameter value the way it appears on a command line:
// whole numbers without a fraction, other numbers in their shortest float64
// form, strings verbatim.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "(unknown)"
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return bf.Text('f', 0)
		}
		f, _ := bf.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case cty.String:
		return v.AsString()
	case cty.Bool:
		return strconv.FormatBool(v.True())
	default:
		return v.GoString()
	}
}
