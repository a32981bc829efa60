// Package hcl loads sweep definitions from HCL files and turns them into
// sweep.Scan values. It owns everything HCL-specific: file discovery and
// parsing, the block schema, the functions available in expressions, and the
// translation of `repeat` blocks into repeat-count rules.
//
// A sweep file looks like this:
//
//	sweep "cells" {
//	  default_repeats = 2
//
//	  parameter "a" { values = linspace(0, 10, 5) }
//	  parameter "b" { values = linspace(0.1, -0.5, 5) }
//	  parameter "c" { values = [10, 15, 20] }
//
//	  joint = [["a", "b"]]
//
//	  repeat { count = 2 }
//	  repeat { count = c >= 14 ? 1 : null }
//	}
//
// Parameters keep the order of their blocks. Repeat blocks are evaluated in
// order against every assignment, with each parameter bound as a variable; a
// null count defers to the count resolved by earlier blocks.
package hcl
