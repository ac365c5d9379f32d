package recur

import "time"

// All collects at most limit instants from the set, in chronological order.
// The limit caps work even when every input is notionally infinite.
func (s *RRuleSet) All(limit int) ([]time.Time, error) {
	return collect(s.Iterator(), limit)
}

// AllUnchecked collects every instant the set produces, bounded only by the
// rules' own COUNT/UNTIL and the guard against structurally non-matching
// rules. Combining only infinite, always-matching rules makes this
// non-terminating; that is the documented contract, not a defect.
func (s *RRuleSet) AllUnchecked() ([]time.Time, error) {
	return collect(s.Iterator(), -1)
}

// Between returns the instants in the window from start to end. With
// inclusive true the boundary instants themselves are included. Consumption
// of the underlying streams stops at the first instant past the window.
func (s *RRuleSet) Between(start, end time.Time, inclusive bool) ([]time.Time, error) {
	it := s.Iterator()
	var out []time.Time
	for {
		v, ok := it.Next()
		if !ok {
			return out, it.Err()
		}
		if v.Before(start) || (!inclusive && v.Equal(start)) {
			continue
		}
		if v.After(end) || (!inclusive && v.Equal(end)) {
			return out, nil
		}
		out = append(out, v)
	}
}

// JustBefore returns the last instant before t (or at t, with inclusive
// true). The boolean is false when no instant precedes t.
func (s *RRuleSet) JustBefore(t time.Time, inclusive bool) (time.Time, bool, error) {
	it := s.Iterator()
	var best time.Time
	var found bool
	for {
		v, ok := it.Next()
		if !ok {
			return best, found, it.Err()
		}
		if v.After(t) || (!inclusive && v.Equal(t)) {
			return best, found, nil
		}
		best, found = v, true
	}
}

// JustAfter returns the first instant after t (or at t, with inclusive
// true). The boolean is false when the sequence ends before reaching t.
func (s *RRuleSet) JustAfter(t time.Time, inclusive bool) (time.Time, bool, error) {
	it := s.Iterator()
	for {
		v, ok := it.Next()
		if !ok {
			return time.Time{}, false, it.Err()
		}
		if v.After(t) || (inclusive && v.Equal(t)) {
			return v, true, nil
		}
	}
}

// collect drains it into a slice, stopping at limit when limit >= 0. On
// error the instants gathered so far are returned alongside it.
func collect(it Iterator, limit int) ([]time.Time, error) {
	var out []time.Time
	for limit < 0 || len(out) < limit {
		v, ok := it.Next()
		if !ok {
			return out, it.Err()
		}
		out = append(out, v)
	}
	return out, nil
}
