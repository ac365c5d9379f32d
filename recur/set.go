package recur

import (
	"sort"
	"strings"
	"time"
)

// RRuleSet combines inclusion rules and dates (RRULE, RDATE) with exclusion
// rules and dates (EXRULE, EXDATE) under one DTSTART anchor, which every rule
// in the set shares for its relative computations. Construction-time fields
// are immutable once iteration starts; each evaluation owns private cursor
// state, so one set can serve concurrent queries.
type RRuleSet struct {
	dtstart  time.Time      // wall clock, carried in UTC
	loc      *time.Location // nil for floating times
	hasStart bool
	policy   AmbiguityPolicy

	rrules  []*RRule
	exrules []*RRule
	rdates  []time.Time
	exdates []time.Time
}

// NewRRuleSet anchors a set at dtstart, taking the zone from the value's
// location.
func NewRRuleSet(dtstart time.Time) *RRuleSet {
	s := &RRuleSet{}
	s.DTStart(dtstart)
	return s
}

// DTStart re-anchors the set and every rule already added to it.
func (s *RRuleSet) DTStart(dtstart time.Time) {
	s.dtstart = civilOf(dtstart)
	s.loc = dtstart.Location()
	s.hasStart = true
	for i, r := range s.rrules {
		s.rrules[i] = r.withDtstart(s.dtstart, s.loc)
	}
	for i, r := range s.exrules {
		s.exrules[i] = r.withDtstart(s.dtstart, s.loc)
	}
}

// GetDTStart returns the anchor in its zone.
func (s *RRuleSet) GetDTStart() time.Time {
	if s.loc == nil {
		return s.dtstart
	}
	d := s.dtstart
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, s.loc)
}

// SetPolicy installs the fold/gap resolution policy for evaluations of this
// set. The policy is global per evaluation, not per rule.
func (s *RRuleSet) SetPolicy(p AmbiguityPolicy) { s.policy = p }

// RRule adds an inclusion rule. The rule is re-anchored to the set's DTSTART;
// the original is not modified.
func (s *RRuleSet) RRule(r *RRule) {
	if s.hasStart {
		r = r.withDtstart(s.dtstart, s.loc)
	}
	s.rrules = append(s.rrules, r)
}

// ExRule adds an exclusion rule, re-anchored like RRule.
func (s *RRuleSet) ExRule(r *RRule) {
	if s.hasStart {
		r = r.withDtstart(s.dtstart, s.loc)
	}
	s.exrules = append(s.exrules, r)
}

// RDate adds one explicit inclusion instant, carrying its own zone.
func (s *RRuleSet) RDate(t time.Time) {
	s.rdates = append(s.rdates, t.Truncate(time.Second))
}

// ExDate adds one explicit exclusion instant. An exclusion matching no
// inclusion is a no-op, not an error.
func (s *RRuleSet) ExDate(t time.Time) {
	s.exdates = append(s.exdates, t.Truncate(time.Second))
}

// Iterator returns a fresh lazy iterator over the set: the chronological
// merge of all inclusion streams, deduplicated by instant, minus the
// exclusion streams.
func (s *RRuleSet) Iterator() Iterator {
	include := make([]Iterator, 0, len(s.rrules)+1)
	for _, r := range s.rrules {
		include = append(include, newRuleIterator(r, s.policy))
	}
	if len(s.rdates) > 0 {
		include = append(include, &sliceIterator{items: sortedInstants(s.rdates)})
	}

	exclude := make([]Iterator, 0, len(s.exrules)+1)
	for _, r := range s.exrules {
		exclude = append(exclude, newRuleIterator(r, s.policy))
	}
	if len(s.exdates) > 0 {
		exclude = append(exclude, &sliceIterator{items: sortedInstants(s.exdates)})
	}

	return &setIterator{
		include: &mergeIterator{streams: include},
		exclude: &mergeIterator{streams: exclude},
	}
}

// String serializes the set in its textual form, one property per line.
func (s *RRuleSet) String() string {
	var b strings.Builder
	if s.hasStart {
		b.WriteString("DTSTART")
		writeZonedValue(&b, s.dtstart, s.loc)
	}
	for _, r := range s.rrules {
		b.WriteString("\nRRULE:")
		b.WriteString(r.String())
	}
	for _, t := range s.rdates {
		b.WriteString("\nRDATE:")
		b.WriteString(formatUTC(t))
	}
	for _, r := range s.exrules {
		b.WriteString("\nEXRULE:")
		b.WriteString(r.String())
	}
	for _, t := range s.exdates {
		b.WriteString("\nEXDATE:")
		b.WriteString(formatUTC(t))
	}
	return strings.TrimPrefix(b.String(), "\n")
}

func writeZonedValue(b *strings.Builder, civil time.Time, loc *time.Location) {
	switch {
	case loc == nil:
		b.WriteString(":" + civil.Format("20060102T150405"))
	case loc == time.UTC:
		b.WriteString(":" + civil.Format("20060102T150405") + "Z")
	default:
		b.WriteString(";TZID=" + loc.String() + ":" + civil.Format("20060102T150405"))
	}
}

func sortedInstants(ts []time.Time) []time.Time {
	out := append([]time.Time(nil), ts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// mergeIterator performs a k-way chronological merge of ordered streams,
// dropping duplicate instants. A stream error stops the merge and becomes
// the merge's error.
type mergeIterator struct {
	streams []Iterator
	heads   []time.Time
	ok      []bool
	primed  bool

	last    time.Time
	hasLast bool
	err     error
	done    bool
}

func (m *mergeIterator) Next() (time.Time, bool) {
	if m.done {
		return time.Time{}, false
	}
	if !m.primed {
		m.heads = make([]time.Time, len(m.streams))
		m.ok = make([]bool, len(m.streams))
		for i := range m.streams {
			if !m.pull(i) {
				return time.Time{}, false
			}
		}
		m.primed = true
	}
	for {
		min := -1
		for i, ok := range m.ok {
			if !ok {
				continue
			}
			if min < 0 || m.heads[i].Before(m.heads[min]) {
				min = i
			}
		}
		if min < 0 {
			m.done = true
			return time.Time{}, false
		}
		v := m.heads[min]
		if !m.pull(min) {
			return time.Time{}, false
		}
		if m.hasLast && v.Equal(m.last) {
			continue
		}
		m.last, m.hasLast = v, true
		return v, true
	}
}

// pull advances stream i into heads[i]; false means a stream error aborted
// the merge.
func (m *mergeIterator) pull(i int) bool {
	v, ok := m.streams[i].Next()
	m.heads[i], m.ok[i] = v, ok
	if !ok {
		if err := m.streams[i].Err(); err != nil {
			m.err = err
			m.done = true
			return false
		}
	}
	return true
}

func (m *mergeIterator) Err() error { return m.err }

// setIterator subtracts the merged exclusion stream from the merged inclusion
// stream by instant equality. Both inputs are ordered and deduplicated, so
// each exclusion instant removes at most the one matching inclusion.
type setIterator struct {
	include *mergeIterator
	exclude *mergeIterator

	excHead   time.Time
	excOK     bool
	excPrimed bool
	err       error
}

func (it *setIterator) Next() (time.Time, bool) {
	if it.err != nil {
		return time.Time{}, false
	}
	if !it.excPrimed {
		it.excHead, it.excOK = it.exclude.Next()
		it.excPrimed = true
	}
	for {
		v, ok := it.include.Next()
		if !ok {
			it.err = it.include.Err()
			return time.Time{}, false
		}
		for it.excOK && it.excHead.Before(v) {
			it.excHead, it.excOK = it.exclude.Next()
		}
		if it.exclude.Err() != nil {
			it.err = it.exclude.Err()
			return time.Time{}, false
		}
		if it.excOK && it.excHead.Equal(v) {
			continue
		}
		return v, true
	}
}

func (it *setIterator) Err() error { return it.err }
