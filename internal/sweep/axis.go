package sweep

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// JointGroup names parameters that vary in lock-step.
type JointGroup []string

// Axis is one independent dimension of the expansion. A singleton axis holds
// one parameter; a joint axis holds the zipped values of a joint group.
type Axis struct {
	// slots are the positions of the axis parameters inside an Assignment.
	slots   []int
	columns [][]cty.Value
	length  int
}

// Len returns the number of steps along the axis.
func (x Axis) Len() int {
	return x.length
}

// Joint reports whether the axis was built from a joint group.
func (x Axis) Joint() bool {
	return len(x.slots) > 1
}

// set writes step i of the axis into values.
func (x Axis) set(values []cty.Value, i int) {
	for k, slot := range x.slots {
		values[slot] = x.columns[k][i]
	}
}

// buildAxes turns parameters and joint groups into the ordered axis list:
// ungrouped parameters first, in declaration order, then one axis per joint
// group, in declaration order.
func buildAxes(params Parameters, groups []JointGroup) ([]Axis, error) {
	idx, err := params.index()
	if err != nil {
		return nil, err
	}

	owner := make(map[string]int, len(params))
	for g, group := range groups {
		if len(group) < 2 {
			return nil, &ConfigurationError{Group: group, Reason: "a joint group needs at least two parameters"}
		}
		for _, name := range group {
			if _, ok := idx[name]; !ok {
				return nil, &ConfigurationError{Group: group, Name: name, Reason: "unknown parameter"}
			}
			if prev, taken := owner[name]; taken {
				reason := fmt.Sprintf("parameter already belongs to joint group %d", prev)
				if prev == g {
					reason = "parameter is listed twice"
				}
				return nil, &ConfigurationError{Group: group, Name: name, Reason: reason}
			}
			owner[name] = g
		}
	}

	if err := validateJointSizes(params, idx, groups); err != nil {
		return nil, err
	}

	axes := make([]Axis, 0, len(params))
	for i, d := range params {
		if _, grouped := owner[d.Name]; grouped {
			continue
		}
		axes = append(axes, Axis{
			slots:   []int{i},
			columns: [][]cty.Value{d.Values},
			length:  d.Len(),
		})
	}
	for _, group := range groups {
		x := Axis{
			slots:   make([]int, len(group)),
			columns: make([][]cty.Value, len(group)),
		}
		for k, name := range group {
			slot := idx[name]
			x.slots[k] = slot
			x.columns[k] = params[slot].Values
		}
		x.length = len(x.columns[0])
		axes = append(axes, x)
	}
	return axes, nil
}

// validateJointSizes checks that every member of every joint group has a
// value list of the same length.
func validateJointSizes(params Parameters, idx map[string]int, groups []JointGroup) error {
	for _, group := range groups {
		lengths := make([]int, len(group))
		mismatch := false
		for k, name := range group {
			lengths[k] = params[idx[name]].Len()
			if lengths[k] != lengths[0] {
				mismatch = true
			}
		}
		if mismatch {
			return &JointParameterListSizeError{
				Group:   append([]string(nil), group...),
				Lengths: lengths,
			}
		}
	}
	return nil
}
