package recur

import (
	"fmt"
	"time"
)

// Frequency is the recurrence period unit, ordered from coarsest to finest.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var freqNames = [...]string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY", "HOURLY", "MINUTELY", "SECONDLY"}

func (f Frequency) String() string {
	if f < Yearly || f > Secondly {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return freqNames[f]
}

// Weekday is a day of the week, optionally qualified by an ordinal for use in
// BYDAY: MO.Nth(3) is the third Monday of the period, FR.Nth(-1) the last
// Friday. The zero ordinal means every such weekday.
type Weekday struct {
	day int // 0 = Monday … 6 = Sunday, per RFC 5545
	n   int
}

var (
	MO = Weekday{day: 0}
	TU = Weekday{day: 1}
	WE = Weekday{day: 2}
	TH = Weekday{day: 3}
	FR = Weekday{day: 4}
	SA = Weekday{day: 5}
	SU = Weekday{day: 6}
)

// Nth returns w qualified by ordinal n.
func (w Weekday) Nth(n int) Weekday {
	return Weekday{day: w.day, n: n}
}

// N returns the ordinal, zero when unqualified.
func (w Weekday) N() int {
	return w.n
}

var weekdayNames = [...]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

func (w Weekday) String() string {
	if w.n != 0 {
		return fmt.Sprintf("%d%s", w.n, weekdayNames[w.day])
	}
	return weekdayNames[w.day]
}

// timeWeekday converts to the time package's Sunday-based numbering.
func (w Weekday) timeWeekday() time.Weekday {
	return time.Weekday((w.day + 1) % 7)
}

func weekdayFromTime(d time.Weekday) Weekday {
	return Weekday{day: (int(d) + 6) % 7}
}
