package sweep

import (
	"iter"

	"github.com/zclconf/go-cty/cty"
)

// combinations yields the cross product of axes with odometer semantics: the
// last axis advances on every step, the first one only after all inner axes
// wrap. Each call of the returned sequence starts over from the beginning.
// With no axes the product is a single empty assignment.
func combinations(names []string, axes []Axis) iter.Seq[Assignment] {
	return func(yield func(Assignment) bool) {
		for _, x := range axes {
			if x.Len() == 0 {
				return
			}
		}

		pos := make([]int, len(axes))
		for {
			values := make([]cty.Value, len(names))
			for k, x := range axes {
				x.set(values, pos[k])
			}
			if !yield(Assignment{names: names, values: values}) {
				return
			}

			k := len(axes) - 1
			for ; k >= 0; k-- {
				pos[k]++
				if pos[k] < axes[k].Len() {
					break
				}
				pos[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}

// size returns the number of combinations across axes, the product of
// their lengths.
func size(axes []Axis) int {
	n := 1
	for _, x := range axes {
		n *= x.Len()
	}
	return n
}
