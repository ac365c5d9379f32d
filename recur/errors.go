package recur

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRule is wrapped by all rule construction failures: out-of-range
// by-filter values, COUNT together with UNTIL, ordinal BYDAY entries with an
// incompatible frequency, and similar contradictions.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// ParseError reports malformed recurrence text. Construction never partially
// recovers: the first offending segment aborts the parse.
type ParseError struct {
	Segment string // the line or property that failed
	Reason  string
	Err     error // underlying error, when any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recur: cannot parse %q: %s: %v", e.Segment, e.Reason, e.Err)
	}
	return fmt.Sprintf("recur: cannot parse %q: %s", e.Segment, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AmbiguousTimeError reports a wall clock that occurs twice in its zone
// (fold) while the policy demands an error. Earlier and Later are the two
// candidate instants, each carrying its offset.
type AmbiguousTimeError struct {
	Civil   time.Time
	Zone    string
	Earlier time.Time
	Later   time.Time
}

func (e *AmbiguousTimeError) Error() string {
	return fmt.Sprintf("recur: ambiguous local time %s in %s: occurs at both %s and %s",
		e.Civil.Format("2006-01-02 15:04:05"), e.Zone,
		e.Earlier.Format("2006-01-02T15:04:05-07:00"),
		e.Later.Format("2006-01-02T15:04:05-07:00"))
}

// InvalidTimeError reports a wall clock that does not exist in its zone
// because a forward transition skipped it, while the policy demands an error.
type InvalidTimeError struct {
	Civil time.Time
	Zone  string
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("recur: invalid local time %s in %s: skipped by clock transition",
		e.Civil.Format("2006-01-02 15:04:05"), e.Zone)
}
