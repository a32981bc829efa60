package sweep

import (
	"iter"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Assignment binds every parameter of a scan to one value. Names follow the
// declaration order of the scan's Parameters, not the axis order.
type Assignment struct {
	names  []string
	values []cty.Value
}

// NewAssignment builds an Assignment from parallel name and value slices.
// It panics if the slices differ in length.
func NewAssignment(names []string, values []cty.Value) Assignment {
	if len(names) != len(values) {
		panic("sweep: assignment names and values differ in length")
	}
	return Assignment{
		names:  append([]string(nil), names...),
		values: append([]cty.Value(nil), values...),
	}
}

// Len returns the number of bound parameters.
func (a Assignment) Len() int {
	return len(a.names)
}

// Names returns the bound parameter names in order.
func (a Assignment) Names() []string {
	return append([]string(nil), a.names...)
}

// Get returns the value bound to name.
func (a Assignment) Get(name string) (cty.Value, bool) {
	for i, n := range a.names {
		if n == name {
			return a.values[i], true
		}
	}
	return cty.NilVal, false
}

// All iterates over the (name, value) pairs in order.
func (a Assignment) All() iter.Seq2[string, cty.Value] {
	return func(yield func(string, cty.Value) bool) {
		for i, n := range a.names {
			if !yield(n, a.values[i]) {
				return
			}
		}
	}
}

// Object returns the assignment as a cty object, suitable as an HCL variable
// set.
func (a Assignment) Object() cty.Value {
	return cty.ObjectVal(a.Map())
}

// Map returns the assignment as an unordered map.
func (a Assignment) Map() map[string]cty.Value {
	m := make(map[string]cty.Value, len(a.names))
	for i, n := range a.names {
		m[n] = a.values[i]
	}
	return m
}

// Equal reports whether both assignments bind the same names, in the same
// order, to identical values.
func (a Assignment) Equal(b Assignment) bool {
	if len(a.names) != len(b.names) {
		return false
	}
	for i := range a.names {
		if a.names[i] != b.names[i] || !a.values[i].RawEquals(b.values[i]) {
			return false
		}
	}
	return true
}

// String renders the assignment as space separated name=value pairs.
func (a Assignment) String() string {
	var b strings.Builder
	for i, n := range a.names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(FormatValue(a.values[i]))
	}
	return b.String()
}
