package sweep

// CountFunc is one link of the repeat-count chain. It returns the repeat count
// for a and ok=true to override the count resolved so far, or ok=false to
// defer to it. A non-nil error aborts the scan.
type CountFunc func(a Assignment) (count int, ok bool, err error)

// Fixed returns a CountFunc that always answers n.
func Fixed(n int) CountFunc {
	return func(Assignment) (int, bool, error) {
		return n, true, nil
	}
}

// When returns a CountFunc that answers n for assignments matching pred and
// defers for all others.
func When(pred func(Assignment) bool, n int) CountFunc {
	return func(a Assignment) (int, bool, error) {
		if pred(a) {
			return n, true, nil
		}
		return 0, false, nil
	}
}

// resolveRepeats folds the chain over a, starting from def. The most recent
// concrete answer wins; deferrals keep the previous value.
func resolveRepeats(a Assignment, def int, chain []CountFunc) (int, error) {
	count := def
	for i, fn := range chain {
		n, ok, err := fn(a)
		if err != nil {
			return 0, &CountFuncError{Rule: i, Assignment: a, Err: err}
		}
		if !ok {
			continue
		}
		if n < 0 {
			return 0, &InvalidRepeatCountError{Count: n, Rule: i, Assignment: a}
		}
		count = n
	}
	return count, nil
}
