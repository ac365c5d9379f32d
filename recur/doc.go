/*
Package recur computes the occurrences of recurring events described by
iCalendar recurrence rules (RFC 5545 RRULE), explicit inclusion/exclusion
dates, and exclusion rules.

# Basic Usage

Parse a rule set and query it:

	set, err := recur.StrToRRuleSet(
		"DTSTART;TZID=Europe/Paris:20210214T093000\n" +
			"RRULE:FREQ=WEEKLY;UNTIL=20210508T083000Z;INTERVAL=2;BYDAY=MO;WKST=MO")
	if err != nil {
		log.Fatal(err)
	}
	dates, err := set.All(100)

Rules can also be built programmatically:

	r, err := recur.NewRRule(recur.ROption{
		Freq:    recur.Monthly,
		ByDay:   []recur.Weekday{recur.FR.Nth(-1)},
		Dtstart: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	})

# Time Zones

Occurrences are generated as wall-clock times in the DTSTART zone and then
resolved to instants. A wall clock skipped by a forward transition (gap) or
revisited by a backward one (fold) is handled according to the set's
AmbiguityPolicy; the default refuses both with InvalidTimeError and
AmbiguousTimeError rather than silently picking an instant the caller did not
ask for.

# Unbounded Rules

A rule without COUNT or UNTIL is infinite. All(limit) and Between are always
bounded; AllUnchecked is bounded only by the rules themselves and by the
internal guard against rules that can structurally never match (such as
BYMONTH=2;BYMONTHDAY=30), which terminate with an empty result instead of
looping forever.
*/
package recur
