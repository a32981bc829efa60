package sweep

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a parameter or joint group declaration that
// cannot be expanded: unknown or duplicated names, undersized groups, or
// values that are not usable as parameter values.
type ConfigurationError struct {
	// Group is the offending joint group, if the problem belongs to one.
	Group []string
	// Name is the offending parameter name, if any.
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid sweep configuration")
	if len(e.Group) > 0 {
		fmt.Fprintf(&b, " in joint group [%s]", strings.Join(e.Group, ", "))
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " for parameter %q", e.Name)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// JointParameterListSizeError reports a joint group whose members have value
// lists of different lengths. Lengths is index-aligned with Group.
type JointParameterListSizeError struct {
	Group   []string
	Lengths []int
}

func (e *JointParameterListSizeError) Error() string {
	parts := make([]string, len(e.Group))
	for i, name := range e.Group {
		parts[i] = fmt.Sprintf("%s=%d", name, e.Lengths[i])
	}
	return fmt.Sprintf("joint parameters must have value lists of equal size, got %s", strings.Join(parts, ", "))
}

// InvalidRepeatCountError reports a negative repeat count. Rule is the index
// of the CountFunc that produced it, or -1 for the scan's default count.
type InvalidRepeatCountError struct {
	Count      int
	Rule       int
	Assignment Assignment
}

func (e *InvalidRepeatCountError) Error() string {
	if e.Rule < 0 {
		return fmt.Sprintf("default repeat count must not be negative, got %d", e.Count)
	}
	return fmt.Sprintf("repeat rule %d returned negative count %d for %s", e.Rule, e.Count, e.Assignment)
}

// CountFuncError wraps a failure reported by a CountFunc itself.
type CountFuncError struct {
	Rule       int
	Assignment Assignment
	Err        error
}

func (e *CountFuncError) Error() string {
	return fmt.Sprintf("repeat rule %d failed for %s: %v", e.Rule, e.Assignment, e.Err)
}

func (e *CountFuncError) Unwrap() error {
	return e.Err
}
