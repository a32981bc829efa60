package sweep

import (
	"fmt"
	"iter"
)

// DefaultRepeats is the repeat count of a Scan created without
// WithDefaultRepeats.
const DefaultRepeats = 1

// Scan is a parameter sweep definition. It is configured once, then run any
// number of times; runs share no state.
type Scan struct {
	params         Parameters
	joints         []JointGroup
	defaultRepeats int
	chain          []CountFunc
}

// Option configures a Scan.
type Option func(*Scan)

// WithJointGroups declares parameters that vary in lock-step.
func WithJointGroups(groups ...JointGroup) Option {
	return func(s *Scan) {
		for _, g := range groups {
			s.joints = append(s.joints, append(JointGroup(nil), g...))
		}
	}
}

// WithDefaultRepeats sets the repeat count every assignment starts with.
func WithDefaultRepeats(n int) Option {
	return func(s *Scan) {
		s.defaultRepeats = n
	}
}

// WithCountFuncs registers an initial repeat-count chain.
func WithCountFuncs(fns ...CountFunc) Option {
	return func(s *Scan) {
		s.chain = append(s.chain, fns...)
	}
}

// New creates a Scan over params. It never fails; problems with the
// declaration are reported by Run.
func New(params Parameters, opts ...Option) *Scan {
	s := &Scan{
		params:         params.clone(),
		joints:         []JointGroup{},
		defaultRepeats: DefaultRepeats,
		chain:          []CountFunc{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCount appends fn to the repeat-count chain. Rules run in the order they
// were added, and later rules override earlier ones.
func (s *Scan) AddCount(fn CountFunc) {
	s.chain = append(s.chain, fn)
}

// Parameters returns a copy of the scan's parameters.
func (s *Scan) Parameters() Parameters {
	return s.params.clone()
}

// JointGroups returns a copy of the declared joint groups.
func (s *Scan) JointGroups() []JointGroup {
	out := make([]JointGroup, len(s.joints))
	for i, g := range s.joints {
		out[i] = append(JointGroup(nil), g...)
	}
	return out
}

// DefaultRepeats returns the starting repeat count.
func (s *Scan) DefaultRepeats() int {
	return s.defaultRepeats
}

// Axes validates the declaration and returns the ordered axis list.
func (s *Scan) Axes() ([]Axis, error) {
	return buildAxes(s.params, s.joints)
}

// Combinations validates the declaration and returns every assignment of the
// cross product once, ignoring repeat counts.
func (s *Scan) Combinations() (iter.Seq[Assignment], error) {
	axes, err := s.Axes()
	if err != nil {
		return nil, err
	}
	return combinations(s.params.Names(), axes), nil
}

// Run expands the scan and calls visit once per emission: every assignment is
// passed as many times as its resolved repeat count, consecutively. Any error,
// from validation, from a repeat rule or from visit, stops the run.
func (s *Scan) Run(visit func(Assignment) error) error {
	if s.defaultRepeats < 0 {
		return &InvalidRepeatCountError{Count: s.defaultRepeats, Rule: -1}
	}
	// Snapshot the chain so registrations made from inside visit do not
	// affect this run.
	chain := append([]CountFunc(nil), s.chain...)

	seq, err := s.Combinations()
	if err != nil {
		return err
	}

	emitted := 0
	for a := range seq {
		n, err := resolveRepeats(a, s.defaultRepeats, chain)
		if err != nil {
			return err
		}
		for range n {
			if err := visit(a); err != nil {
				return fmt.Errorf("emission %d (%s): %w", emitted, a, err)
			}
			emitted++
		}
	}
	return nil
}

// Expand runs the scan and collects every emission, repeats included.
func (s *Scan) Expand() ([]Assignment, error) {
	var out []Assignment
	err := s.Run(func(a Assignment) error {
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count runs the scan without collecting it and returns the number of
// emissions.
func (s *Scan) Count() (int, error) {
	n := 0
	err := s.Run(func(Assignment) error {
		n++
		return nil
	})
	return n, err
}

// Size returns the number of distinct combinations, ignoring repeat counts.
func (s *Scan) Size() (int, error) {
	axes, err := s.Axes()
	if err != nil {
		return 0, err
	}
	return size(axes), nil
}
