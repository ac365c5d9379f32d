package recur

import "time"

// maxEmptyPeriods bounds how many consecutive periods without a surviving
// candidate an iterator scans before concluding the rule can never match
// again. Sparse-but-legitimate rules stay far below it: a Feb-29-only yearly
// rule sees at most seven empty years in a row around century boundaries.
const maxEmptyPeriods = 5000

// Iterator is a lazy, ordered sequence of instants. Next performs no work
// until called and returns false once the sequence is exhausted, after which
// Err reports the resolution error that stopped it, if any. Iterators are
// single-use and must not be shared between goroutines; obtain a fresh one to
// restart from the beginning.
type Iterator interface {
	Next() (time.Time, bool)
	Err() error
}

// ruleIterator drives one rule period by period: it asks the generator for
// the period's candidates, resolves each through the zone under the policy,
// and emits the survivors in order, honoring COUNT/UNTIL and the empty-period
// guard.
type ruleIterator struct {
	rule   *RRule
	policy AmbiguityPolicy

	cursor  time.Time // start of the period to generate next
	pending []time.Time
	yielded int
	empty   int

	last    time.Time
	hasLast bool
	done    bool
	err     error
}

func newRuleIterator(r *RRule, policy AmbiguityPolicy) *ruleIterator {
	return &ruleIterator{
		rule:   r,
		policy: policy,
		cursor: r.periodStart(r.dtstart),
	}
}

func (it *ruleIterator) Next() (time.Time, bool) {
	for !it.done {
		if len(it.pending) > 0 {
			inst := it.pending[0]
			it.pending = it.pending[1:]

			// Permissive gap handling can shift an instant past a later
			// candidate or onto it; enforcing strict growth keeps the
			// sequence ordered and duplicate-free.
			if it.hasLast && !inst.After(it.last) {
				continue
			}
			if until, ok := it.rule.until.Get(); ok && inst.After(until) {
				it.done = true
				return time.Time{}, false
			}

			it.last, it.hasLast = inst, true
			it.yielded++
			if count, ok := it.rule.count.Get(); ok && it.yielded >= count {
				it.done = true
			}
			return inst, true
		}
		it.refill()
	}
	return time.Time{}, false
}

func (it *ruleIterator) refill() {
	// Fine frequencies cross excluded days one slot per tick rather than one
	// period per tick, so a sparse-but-matching rule cannot exhaust the guard
	// on its way to the next match.
	if next, ok := it.rule.skipEmptySlot(it.cursor); ok {
		it.cursor = next
		it.countEmpty()
		return
	}

	candidates := it.rule.generate(it.cursor)
	it.cursor = it.rule.advance(it.cursor)

	survived := false
	for _, c := range candidates {
		inst, skip, err := resolveCivil(c, it.rule.loc, it.policy)
		if err != nil {
			it.err = err
			it.done = true
			it.pending = nil
			return
		}
		if skip {
			continue
		}
		it.pending = append(it.pending, inst)
		survived = true
	}

	if survived {
		it.empty = 0
		return
	}
	it.countEmpty()
}

func (it *ruleIterator) countEmpty() {
	it.empty++
	if it.empty >= maxEmptyPeriods {
		// Structurally non-matching rule (Feb 30 and friends): terminate
		// with an empty remainder, not an error.
		it.done = true
	}
}

func (it *ruleIterator) Err() error { return it.err }

// sliceIterator adapts a pre-sorted list of instants (RDATE/EXDATE sets) to
// the Iterator contract.
type sliceIterator struct {
	items []time.Time
	i     int
}

func (it *sliceIterator) Next() (time.Time, bool) {
	if it.i >= len(it.items) {
		return time.Time{}, false
	}
	v := it.items[it.i]
	it.i++
	return v, true
}

func (it *sliceIterator) Err() error { return nil }
