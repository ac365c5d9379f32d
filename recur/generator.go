package recur

import (
	"time"

	"github.com/cyp0633/librecur/internal/civil"
)

// periodStart aligns t to the start of the frequency period containing it.
func (r *RRule) periodStart(t time.Time) time.Time {
	switch r.freq {
	case Yearly:
		return civil.StartOfYear(t)
	case Monthly:
		return civil.StartOfMonth(t)
	case Weekly:
		return civil.WeekStart(t, r.wkst)
	case Daily:
		return civil.StartOfDay(t)
	case Hourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Minutely:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	default: // Secondly
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	}
}

// advance moves a period start forward by interval periods.
func (r *RRule) advance(cursor time.Time) time.Time {
	switch r.freq {
	case Yearly:
		return cursor.AddDate(r.interval, 0, 0)
	case Monthly:
		return civil.AddMonths(cursor, r.interval)
	case Weekly:
		return cursor.AddDate(0, 0, 7*r.interval)
	case Daily:
		return cursor.AddDate(0, 0, r.interval)
	case Hourly:
		return cursor.Add(time.Duration(r.interval) * time.Hour)
	case Minutely:
		return cursor.Add(time.Duration(r.interval) * time.Minute)
	default: // Secondly
		return cursor.Add(time.Duration(r.interval) * time.Second)
	}
}

// generate produces the ordered wall-clock candidates of the period starting
// at cursor: the days consistent with all date-level filters, crossed with
// the rule's time set, with candidates before DTSTART dropped and BYSETPOS
// applied to what remains.
func (r *RRule) generate(cursor time.Time) []time.Time {
	var out []time.Time
	if r.freq <= Daily {
		start, end := r.periodBounds(cursor)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if !r.matchesDay(d) {
				continue
			}
			for _, tod := range r.times {
				out = append(out, d.Add(tod.duration()))
			}
		}
	} else {
		out = r.generateFine(cursor)
	}

	// The seed instant stays eligible; anything strictly before it goes.
	kept := out[:0]
	for _, c := range out {
		if !c.Before(r.dtstart) {
			kept = append(kept, c)
		}
	}
	out = kept

	if len(r.setPos) > 0 {
		out = selectSetPos(out, r.setPos)
	}
	return out
}

func (r *RRule) periodBounds(cursor time.Time) (start, end time.Time) {
	switch r.freq {
	case Yearly:
		return cursor, cursor.AddDate(1, 0, 0)
	case Monthly:
		return cursor, civil.AddMonths(cursor, 1)
	case Weekly:
		return cursor, cursor.AddDate(0, 0, 7)
	default: // Daily
		return cursor, cursor.AddDate(0, 0, 1)
	}
}

// skipEmptySlot reports that a fine-frequency cursor sits inside a day, hour
// or minute its coarser filters rule out, and returns the phase-aligned cursor
// just past that slot. Stepping hour by hour through months a day filter
// excludes would exhaust the empty-period guard on rules that still match
// later; jumping a whole slot at a time makes each guard tick cover one
// excluded day, hour or minute instead of one period.
func (r *RRule) skipEmptySlot(cursor time.Time) (time.Time, bool) {
	if r.freq <= Daily {
		return time.Time{}, false
	}
	day := civil.StartOfDay(cursor)
	if !r.matchesDay(day) {
		return r.alignAfter(cursor, day.AddDate(0, 0, 1)), true
	}
	if r.freq >= Minutely && len(r.hours) > 0 && !containsInt(r.hours, cursor.Hour()) {
		hourStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), cursor.Hour(), 0, 0, 0, time.UTC)
		return r.alignAfter(cursor, hourStart.Add(time.Hour)), true
	}
	if r.freq == Secondly && len(r.minutes) > 0 && !containsInt(r.minutes, cursor.Minute()) {
		minuteStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), cursor.Hour(), cursor.Minute(), 0, 0, time.UTC)
		return r.alignAfter(cursor, minuteStart.Add(time.Minute)), true
	}
	return time.Time{}, false
}

// alignAfter advances cursor by whole interval steps to the first position at
// or past target, so skipping never changes which instants the rule can hit.
func (r *RRule) alignAfter(cursor, target time.Time) time.Time {
	var unit time.Duration
	switch r.freq {
	case Hourly:
		unit = time.Hour
	case Minutely:
		unit = time.Minute
	default:
		unit = time.Second
	}
	step := time.Duration(r.interval) * unit
	n := int64((target.Sub(cursor) + step - 1) / step)
	return cursor.Add(time.Duration(n) * step)
}

// generateFine handles hour-or-finer frequencies, where the period is a
// single clock slot and the by-filters finer than the frequency expand while
// the rest restrict.
func (r *RRule) generateFine(cursor time.Time) []time.Time {
	day := civil.StartOfDay(cursor)
	if !r.matchesDay(day) {
		return nil
	}
	hour := cursor.Hour()
	if len(r.hours) > 0 && !containsInt(r.hours, hour) {
		return nil
	}

	var out []time.Time
	switch r.freq {
	case Hourly:
		for _, m := range r.minutes {
			for _, s := range r.seconds {
				out = append(out, day.Add(timeOfDay{hour, m, s}.duration()))
			}
		}
	case Minutely:
		minute := cursor.Minute()
		if len(r.minutes) > 0 && !containsInt(r.minutes, minute) {
			return nil
		}
		for _, s := range r.seconds {
			out = append(out, day.Add(timeOfDay{hour, minute, s}.duration()))
		}
	default: // Secondly
		minute, second := cursor.Minute(), cursor.Second()
		if len(r.minutes) > 0 && !containsInt(r.minutes, minute) {
			return nil
		}
		if len(r.seconds) > 0 && !containsInt(r.seconds, second) {
			return nil
		}
		out = append(out, cursor)
	}
	return out
}

// matchesDay applies every specified date-level filter to midnight d; a day
// survives only if it is consistent with all of them.
func (r *RRule) matchesDay(d time.Time) bool {
	if len(r.months) > 0 && !containsInt(r.months, int(d.Month())) {
		return false
	}
	if len(r.weekNos) > 0 {
		week, weekYear := civil.WeekNumber(d, r.wkst)
		total := civil.WeeksInYear(weekYear, r.wkst)
		if !matchesSigned(r.weekNos, week, total) {
			return false
		}
	}
	if len(r.yearDays) > 0 && !matchesSigned(r.yearDays, d.YearDay(), civil.DaysInYear(d.Year())) {
		return false
	}
	if len(r.monthDays) > 0 && !matchesSigned(r.monthDays, d.Day(), civil.DaysInMonth(d.Year(), d.Month())) {
		return false
	}
	if len(r.days) > 0 && !r.matchesByDay(d) {
		return false
	}
	return true
}

// matchesByDay reports whether d satisfies any BYDAY entry. Ordinal entries
// resolve against the month for Monthly frequency (and Yearly with BYMONTH),
// against the whole year otherwise.
func (r *RRule) matchesByDay(d time.Time) bool {
	wd := weekdayFromTime(d.Weekday())
	for _, w := range r.days {
		if w.day != wd.day {
			continue
		}
		if w.n == 0 {
			return true
		}
		var scopeStart, scopeEnd time.Time
		if r.freq == Monthly || (r.freq == Yearly && len(r.months) > 0) {
			scopeStart = civil.StartOfMonth(d)
			scopeEnd = civil.AddMonths(scopeStart, 1)
		} else {
			scopeStart = civil.StartOfYear(d)
			scopeEnd = scopeStart.AddDate(1, 0, 0)
		}
		if nth, ok := civil.NthWeekdayInRange(scopeStart, scopeEnd, d.Weekday(), w.n); ok && nth.Equal(d) {
			return true
		}
	}
	return false
}

// matchesSigned reports whether value (1-based, out of total) matches any of
// vals, where negative entries count back from total.
func matchesSigned(vals []int, value, total int) bool {
	for _, v := range vals {
		if v > 0 && v == value {
			return true
		}
		if v < 0 && total+v+1 == value {
			return true
		}
	}
	return false
}

// selectSetPos keeps the 1-based positions named by setPos from the sorted
// per-period batch; negative positions count from the end, out-of-range ones
// select nothing.
func selectSetPos(candidates []time.Time, setPos []int) []time.Time {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	picked := make([]bool, n)
	for _, p := range setPos {
		idx := p
		if idx < 0 {
			idx = n + idx + 1
		}
		if idx >= 1 && idx <= n {
			picked[idx-1] = true
		}
	}
	var out []time.Time
	for i, ok := range picked {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out
}

func containsInt(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
