// Package civil provides pure proleptic-Gregorian calendar arithmetic over
// wall-clock values. Values are carried as time.Time in the UTC location so
// that day and duration math never crosses a zone transition; attaching real
// zone semantics is the caller's concern.
package civil

import "time"

// IsLeapYear reports whether year has 366 days.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month, accounting for
// leap years.
func DaysInMonth(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return monthDays[month]
}

// StartOfDay truncates t to midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth truncates t to the first of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StartOfYear truncates t to January 1 of its year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances t by n calendar months, clamping the day-of-month to the
// last valid day of the target month (Jan 31 + 1 month = Feb 28/29). This
// differs from time.Time.AddDate, which overflows into the following month.
func AddMonths(t time.Time, n int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + n
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	m := time.Month(month + 1)
	day := t.Day()
	if max := DaysInMonth(year, m); day > max {
		day = max
	}
	return time.Date(year, m, day, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// WeekStart returns midnight of the first day of the week containing t, with
// weeks starting on wkst.
func WeekStart(t time.Time, wkst time.Weekday) time.Time {
	d := StartOfDay(t)
	off := (int(d.Weekday()) - int(wkst) + 7) % 7
	return d.AddDate(0, 0, -off)
}

// firstWeekStart returns midnight of the first day of week 1 of year: the
// first wkst-aligned week containing at least four days of that year.
func firstWeekStart(year int, wkst time.Weekday) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	off := (int(jan1.Weekday()) - int(wkst) + 7) % 7
	ws := jan1.AddDate(0, 0, -off)
	if off > 3 {
		ws = ws.AddDate(0, 0, 7)
	}
	return ws
}

// WeekNumber returns the week number of t and the year that week belongs to,
// using wkst-aligned weeks. Days before week 1 of their calendar year belong
// to the last week of the previous year, and late-December days may belong to
// week 1 of the next year.
func WeekNumber(t time.Time, wkst time.Weekday) (week, year int) {
	d := StartOfDay(t)
	year = d.Year()
	if ws := firstWeekStart(year+1, wkst); !d.Before(ws) {
		return 1, year + 1
	}
	ws := firstWeekStart(year, wkst)
	if d.Before(ws) {
		year--
		ws = firstWeekStart(year, wkst)
	}
	week = int(d.Sub(ws)/(24*time.Hour))/7 + 1
	return week, year
}

// WeeksInYear returns the number of wkst-aligned weeks in year (52 or 53).
func WeeksInYear(year int, wkst time.Weekday) int {
	span := firstWeekStart(year+1, wkst).Sub(firstWeekStart(year, wkst))
	return int(span/(24*time.Hour)) / 7
}

// NthWeekdayInRange resolves "the n-th wd within [start, end)"; n counts from
// the start when positive ("2nd Monday") and from the end when negative
// ("last Friday"). The boolean is false when the range holds no such day.
func NthWeekdayInRange(start, end time.Time, wd time.Weekday, n int) (time.Time, bool) {
	if n > 0 {
		off := (int(wd) - int(start.Weekday()) + 7) % 7
		d := start.AddDate(0, 0, off+(n-1)*7)
		if d.Before(end) && !d.Before(start) {
			return d, true
		}
	} else if n < 0 {
		last := end.AddDate(0, 0, -1)
		off := (int(last.Weekday()) - int(wd) + 7) % 7
		d := last.AddDate(0, 0, -off+(n+1)*7)
		if !d.Before(start) && d.Before(end) {
			return d, true
		}
	}
	return time.Time{}, false
}
