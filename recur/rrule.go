package recur

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// ROption holds the recurrence rule fields as given by the caller or the
// parser. Zero values mean "unset"; NewRRule validates the combination and
// applies the RFC 5545 defaults derived from Dtstart.
type ROption struct {
	Freq       Frequency
	Dtstart    time.Time
	Interval   int
	Wkst       Weekday
	Count      int
	Until      time.Time
	BySecond   []int
	ByMinute   []int
	ByHour     []int
	ByDay      []Weekday
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByMonth    []int
	BySetPos   []int
}

// RRule is a validated, immutable recurrence rule. It is safe to share across
// concurrent evaluations; every evaluation owns its own iterator state.
type RRule struct {
	opts ROption

	freq     Frequency
	interval int
	count    mo.Option[int]
	until    mo.Option[time.Time] // instant, UTC
	wkst     time.Weekday

	dtstart time.Time      // wall clock, carried in UTC
	loc     *time.Location // nil for floating times

	// Derived by-filter sets after defaulting. The time sets are expansion
	// values for frequencies coarser than their unit and membership filters
	// otherwise.
	months, weekNos, yearDays, monthDays []int
	days                                 []Weekday
	setPos                               []int
	hours, minutes, seconds              []int
	times                                []timeOfDay
}

type timeOfDay struct{ hour, minute, second int }

func (t timeOfDay) duration() time.Duration {
	return time.Duration(t.hour)*time.Hour + time.Duration(t.minute)*time.Minute + time.Duration(t.second)*time.Second
}

// NewRRule validates opt and builds a rule. All range and consistency checks
// happen here; iteration never re-validates.
func NewRRule(opt ROption) (*RRule, error) {
	if err := validateOption(opt); err != nil {
		return nil, err
	}

	r := &RRule{opts: opt, freq: opt.Freq}

	r.interval = opt.Interval
	if r.interval == 0 {
		r.interval = 1
	}
	if opt.Count > 0 {
		r.count = mo.Some(opt.Count)
	}
	if !opt.Until.IsZero() {
		r.until = mo.Some(opt.Until.UTC())
	}

	dt := opt.Dtstart
	if dt.IsZero() {
		dt = time.Now()
	}
	r.setDtstart(civilOf(dt), dt.Location())
	return r, nil
}

func validateOption(opt ROption) error {
	if opt.Freq < Yearly || opt.Freq > Secondly {
		return fmt.Errorf("recur: %w: unknown frequency %d", ErrInvalidRule, int(opt.Freq))
	}
	if opt.Interval < 0 {
		return fmt.Errorf("recur: %w: INTERVAL must be positive, got %d", ErrInvalidRule, opt.Interval)
	}
	if opt.Count < 0 {
		return fmt.Errorf("recur: %w: COUNT must be positive, got %d", ErrInvalidRule, opt.Count)
	}
	if opt.Count > 0 && !opt.Until.IsZero() {
		return fmt.Errorf("recur: %w: COUNT and UNTIL are mutually exclusive", ErrInvalidRule)
	}
	if err := checkRange("BYSECOND", opt.BySecond, 0, 59, false); err != nil {
		return err
	}
	if err := checkRange("BYMINUTE", opt.ByMinute, 0, 59, false); err != nil {
		return err
	}
	if err := checkRange("BYHOUR", opt.ByHour, 0, 23, false); err != nil {
		return err
	}
	if err := checkRange("BYMONTH", opt.ByMonth, 1, 12, false); err != nil {
		return err
	}
	if err := checkRange("BYMONTHDAY", opt.ByMonthDay, 1, 31, true); err != nil {
		return err
	}
	if err := checkRange("BYYEARDAY", opt.ByYearDay, 1, 366, true); err != nil {
		return err
	}
	if err := checkRange("BYWEEKNO", opt.ByWeekNo, 1, 53, true); err != nil {
		return err
	}
	if err := checkRange("BYSETPOS", opt.BySetPos, 1, 366, true); err != nil {
		return err
	}
	if len(opt.ByWeekNo) > 0 && opt.Freq != Yearly {
		return fmt.Errorf("recur: %w: BYWEEKNO requires FREQ=YEARLY", ErrInvalidRule)
	}
	for _, w := range opt.ByDay {
		if w.n == 0 {
			continue
		}
		if w.n < -53 || w.n > 53 {
			return fmt.Errorf("recur: %w: BYDAY ordinal %d out of range [-53,53]", ErrInvalidRule, w.n)
		}
		if opt.Freq != Monthly && opt.Freq != Yearly {
			return fmt.Errorf("recur: %w: ordinal BYDAY entry %s requires FREQ=MONTHLY or FREQ=YEARLY", ErrInvalidRule, w)
		}
		if len(opt.ByWeekNo) > 0 {
			return fmt.Errorf("recur: %w: ordinal BYDAY entry %s cannot be combined with BYWEEKNO", ErrInvalidRule, w)
		}
	}
	if len(opt.BySetPos) > 0 &&
		len(opt.BySecond) == 0 && len(opt.ByMinute) == 0 && len(opt.ByHour) == 0 &&
		len(opt.ByDay) == 0 && len(opt.ByMonthDay) == 0 && len(opt.ByYearDay) == 0 &&
		len(opt.ByWeekNo) == 0 && len(opt.ByMonth) == 0 {
		return fmt.Errorf("recur: %w: BYSETPOS requires at least one other by-filter", ErrInvalidRule)
	}
	return nil
}

func checkRange(name string, vals []int, lo, hi int, signed bool) error {
	for _, v := range vals {
		ok := v >= lo && v <= hi
		if signed {
			ok = (v >= lo && v <= hi) || (v >= -hi && v <= -lo)
		}
		if !ok {
			if signed {
				return fmt.Errorf("recur: %w: %s value %d out of range [-%d,-%d] or [%d,%d]", ErrInvalidRule, name, v, hi, lo, lo, hi)
			}
			return fmt.Errorf("recur: %w: %s value %d out of range [%d,%d]", ErrInvalidRule, name, v, lo, hi)
		}
	}
	return nil
}

// setDtstart anchors the rule and recomputes the defaults that depend on the
// anchor. civil is the wall clock in the UTC carrier; loc is nil for
// floating times.
func (r *RRule) setDtstart(civil time.Time, loc *time.Location) {
	r.dtstart = civil
	r.loc = loc
	r.compile()
}

// withDtstart returns a copy of the rule anchored elsewhere, for rule sets
// sharing one DTSTART across their rules.
func (r *RRule) withDtstart(civil time.Time, loc *time.Location) *RRule {
	c := *r
	c.setDtstart(civil, loc)
	return &c
}

// compile derives the effective by-filter sets from the options and the
// anchor, per the RFC 5545 defaulting rules.
func (r *RRule) compile() {
	opt := r.opts
	dt := r.dtstart

	r.wkst = opt.Wkst.timeWeekday()

	r.months = sortedCopy(opt.ByMonth)
	r.weekNos = append([]int(nil), opt.ByWeekNo...)
	r.yearDays = append([]int(nil), opt.ByYearDay...)
	r.monthDays = append([]int(nil), opt.ByMonthDay...)
	r.days = append([]Weekday(nil), opt.ByDay...)
	r.setPos = append([]int(nil), opt.BySetPos...)

	switch r.freq {
	case Yearly:
		if len(r.weekNos) == 0 && len(r.yearDays) == 0 && len(r.monthDays) == 0 && len(r.days) == 0 {
			r.monthDays = []int{dt.Day()}
			if len(r.months) == 0 {
				r.months = []int{int(dt.Month())}
			}
		}
	case Monthly:
		if len(r.monthDays) == 0 && len(r.days) == 0 {
			r.monthDays = []int{dt.Day()}
		}
	case Weekly:
		if len(r.days) == 0 {
			r.days = []Weekday{weekdayFromTime(dt.Weekday())}
		}
	}

	r.hours = sortedCopy(opt.ByHour)
	if r.freq < Hourly && len(r.hours) == 0 {
		r.hours = []int{dt.Hour()}
	}
	r.minutes = sortedCopy(opt.ByMinute)
	if r.freq < Minutely && len(r.minutes) == 0 {
		r.minutes = []int{dt.Minute()}
	}
	r.seconds = sortedCopy(opt.BySecond)
	if r.freq < Secondly && len(r.seconds) == 0 {
		r.seconds = []int{dt.Second()}
	}

	// Precomputed cross product for day-or-coarser frequencies; sorted
	// because each factor is.
	r.times = nil
	if r.freq <= Daily {
		for _, h := range r.hours {
			for _, m := range r.minutes {
				for _, s := range r.seconds {
					r.times = append(r.times, timeOfDay{h, m, s})
				}
			}
		}
	}
}

// Frequency returns the rule's frequency.
func (r *RRule) Frequency() Frequency { return r.freq }

// Interval returns the step multiplier between successive periods.
func (r *RRule) Interval() int { return r.interval }

// Count returns the COUNT bound, if any.
func (r *RRule) Count() mo.Option[int] { return r.count }

// Until returns the inclusive UNTIL instant, if any.
func (r *RRule) Until() mo.Option[time.Time] { return r.until }

// DTStart returns the anchor in its zone.
func (r *RRule) DTStart() time.Time {
	if r.loc == nil {
		return r.dtstart
	}
	d := r.dtstart
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, r.loc)
}

// Iterator returns a fresh lazy iterator over the rule's instants under the
// default ambiguity policy. Iterators are single-use and not safe for
// concurrent access; the rule itself is.
func (r *RRule) Iterator() Iterator {
	return newRuleIterator(r, DefaultPolicy)
}

// String serializes the rule in RRULE content form, e.g.
// "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO". Only explicitly set fields appear.
func (r *RRule) String() string {
	opt := r.opts
	parts := []string{"FREQ=" + opt.Freq.String()}
	if opt.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(opt.Interval))
	}
	if opt.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(opt.Count))
	}
	if !opt.Until.IsZero() {
		parts = append(parts, "UNTIL="+formatUTC(opt.Until))
	}
	if opt.Wkst != MO {
		parts = append(parts, "WKST="+opt.Wkst.String())
	}
	parts = appendIntList(parts, "BYMONTH", opt.ByMonth)
	parts = appendIntList(parts, "BYWEEKNO", opt.ByWeekNo)
	parts = appendIntList(parts, "BYYEARDAY", opt.ByYearDay)
	parts = appendIntList(parts, "BYMONTHDAY", opt.ByMonthDay)
	if len(opt.ByDay) > 0 {
		ss := make([]string, len(opt.ByDay))
		for i, w := range opt.ByDay {
			ss[i] = w.String()
		}
		parts = append(parts, "BYDAY="+strings.Join(ss, ","))
	}
	parts = appendIntList(parts, "BYHOUR", opt.ByHour)
	parts = appendIntList(parts, "BYMINUTE", opt.ByMinute)
	parts = appendIntList(parts, "BYSECOND", opt.BySecond)
	parts = appendIntList(parts, "BYSETPOS", opt.BySetPos)
	return strings.Join(parts, ";")
}

func appendIntList(parts []string, name string, vals []int) []string {
	if len(vals) == 0 {
		return parts
	}
	ss := make([]string, len(vals))
	for i, v := range vals {
		ss[i] = strconv.Itoa(v)
	}
	return append(parts, name+"="+strings.Join(ss, ","))
}

func sortedCopy(vals []int) []int {
	if len(vals) == 0 {
		return nil
	}
	out := append([]int(nil), vals...)
	sort.Ints(out)
	return out
}

// civilOf reinterprets t's wall clock in the UTC carrier, discarding zone and
// sub-second precision.
func civilOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
