// Package tz classifies wall-clock timestamps against IANA time zones. A wall
// clock is carried as a time.Time in UTC whose calendar fields are the civil
// reading; classification decides whether that reading names one instant in
// the zone, none (skipped by a forward transition), or two (revisited by a
// backward transition).
package tz

import "time"

// Kind is the classification of a wall clock in a zone.
type Kind int

const (
	// Unique means exactly one instant carries this wall clock.
	Unique Kind = iota
	// Gap means no instant does: the clock jumped forward across it.
	Gap
	// Fold means two instants do: the clock fell back across it.
	Fold
)

// Result holds the instants a wall clock maps to in a zone.
//
// For Unique, Earlier is the single instant. For Fold, Earlier and Later are
// the pre- and post-transition instants. For Gap, Shifted is the instant
// obtained by reading the wall clock with the offset in effect before the
// transition; it lands just after the transition at a shifted wall clock and
// is what permissive gap handling resolves to.
type Result struct {
	Kind    Kind
	Earlier time.Time
	Later   time.Time
	Shifted time.Time
}

// Classify maps the wall clock carried by civil (a UTC-located time.Time with
// zero nanoseconds) onto instants in loc. A nil loc is treated as UTC.
func Classify(civil time.Time, loc *time.Location) Result {
	if loc == nil || loc == time.UTC {
		return Result{Kind: Unique, Earlier: civil}
	}

	// Probe the offsets in effect a day before and after the pseudo-instant.
	// Any transition affecting this wall clock lies between the probes, so
	// the two offsets cover both sides of it.
	sec := civil.Unix()
	before := offsetAt(sec-86400, loc)
	after := offsetAt(sec+86400, loc)

	var matches []time.Time
	for _, off := range dedupe(before, offsetAt(sec, loc), after) {
		inst := time.Unix(sec-int64(off), 0).In(loc)
		if sameWall(inst, civil) {
			matches = appendInstant(matches, inst)
		}
	}

	switch len(matches) {
	case 0:
		shifted := time.Unix(sec-int64(before), 0).In(loc)
		return Result{Kind: Gap, Shifted: shifted}
	case 1:
		return Result{Kind: Unique, Earlier: matches[0]}
	default:
		return Result{Kind: Fold, Earlier: matches[0], Later: matches[1]}
	}
}

func offsetAt(unix int64, loc *time.Location) int {
	_, off := time.Unix(unix, 0).In(loc).Zone()
	return off
}

func sameWall(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

func dedupe(offs ...int) []int {
	out := offs[:0]
	for _, o := range offs {
		seen := false
		for _, p := range out {
			if p == o {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, o)
		}
	}
	return out
}

// appendInstant inserts inst keeping the slice sorted and free of duplicates.
func appendInstant(insts []time.Time, inst time.Time) []time.Time {
	for i, v := range insts {
		if inst.Equal(v) {
			return insts
		}
		if inst.Before(v) {
			insts = append(insts, time.Time{})
			copy(insts[i+1:], insts[i:])
			insts[i] = inst
			return insts
		}
	}
	return append(insts, inst)
}
