// Package sweep expands a declarative parameter space into the concrete
// parameter assignments of an experiment, and decides how many repeated
// trials each assignment receives.
//
// # Core Concepts
//
//   - Domain: the ordered candidate values of one parameter. Parameters is an
//     ordered list of domains; declaration order is significant.
//
//   - JointGroup: names of parameters that vary in lock-step instead of
//     combining freely. All members must have domains of the same length.
//
//   - Axis: one independent dimension of the expansion. Ungrouped parameters
//     become singleton axes, in declaration order; each joint group becomes one
//     axis appended after all singletons, in declaration order. The first axis
//     varies slowest, the last one fastest.
//
//   - Assignment: one concrete binding of every parameter to a value.
//
//   - CountFunc: an overridable repeat-count rule. Rules run in registration
//     order; a concrete count overrides whatever was resolved before it, and a
//     deferral leaves the previous count in place.
//
// A Scan owns all of the above. Nothing is validated until the scan runs, so a
// Scan can be assembled piecemeal (for example by the HCL loader) and every
// configuration problem surfaces from Run with one of the typed errors in this
// package. The package performs no I/O and keeps no state between runs.
package sweep
