// Package expand answers range queries over recurring calendar events: given
// a master event with its recurrence properties, which occurrences fall in a
// window, and does any occurrence fall in it at all. It builds on the recur
// core and adds result caching and iCalendar component bridging.
package expand

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/librecur/recur"
)

// RecurrenceInfo contains all recurrence-related properties of an event.
type RecurrenceInfo struct {
	RRule        string      // RRULE content (without the "RRULE:" prefix)
	RDates       []time.Time // additional recurrence instants
	ExDates      []time.Time // excluded instants
	RecurrenceID *time.Time  // for exception instances: the occurrence overridden
}

// Occurrence is a single occurrence of an event in time.
type Occurrence struct {
	Start        time.Time
	End          time.Time
	RecurrenceID time.Time // the occurrence's position in the master's sequence
}

// displayPolicy resolves DST edges permissively: calendar rendering must not
// abort on a fold or gap, so folds take the earlier instant and gaps shift
// past the transition.
var displayPolicy = recur.AmbiguityPolicy{Fold: recur.FoldEarlier, Gap: recur.GapShift}

// Engine expands recurring events. Safe for concurrent use.
type Engine struct {
	cache  *Cache
	config Config
	logger *slog.Logger
}

// NewEngine creates an engine with DefaultConfig.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultConfig)
}

// NewEngineWithConfig creates an engine with custom configuration.
func NewEngineWithConfig(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var cache *Cache
	if config.CacheEnabled {
		cache = NewCache(config.Cache)
	}
	return &Engine{cache: cache, config: config, logger: config.Logger}
}

// Close releases the engine's cache resources.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// HasOccurrenceInRange checks whether the event has any occurrence
// overlapping [rangeStart, rangeEnd]. It is cheaper than a full expansion:
// the master event and explicit RDATEs are checked first, and very large
// ranges get a limited expansion pass before the full one.
func (e *Engine) HasOccurrenceInRange(
	masterStart, masterEnd time.Time,
	info RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	// Fast path: the master occurrence itself. Overlap means
	// start <= rangeEnd AND end >= rangeStart.
	if !masterStart.After(rangeEnd) && !masterEnd.Before(rangeStart) && !isExcluded(masterStart, info.ExDates) {
		return true, nil
	}

	duration := masterEnd.Sub(masterStart)
	for _, rdate := range info.RDates {
		if !rdate.After(rangeEnd) && !rdate.Add(duration).Before(rangeStart) && !isExcluded(rdate, info.ExDates) {
			return true, nil
		}
	}

	if info.RRule == "" {
		return false, nil
	}

	if key, ok := e.cacheGetBool("has", masterStart, masterEnd, info, rangeStart, rangeEnd); ok {
		return key, nil
	}

	// Limit the first pass on very large ranges; most hits are early.
	limitedEnd := rangeEnd
	if rangeEnd.Sub(rangeStart) > e.config.LargeRangeThreshold {
		limitedEnd = rangeStart.Add(e.config.LargeRangeLimit)
	}

	found, err := e.hasRRuleOccurrence(masterStart, info, rangeStart, limitedEnd)
	if err != nil {
		return false, fmt.Errorf("failed to check RRULE occurrences: %w", err)
	}
	if !found && limitedEnd.Before(rangeEnd) {
		found, err = e.hasRRuleOccurrence(masterStart, info, limitedEnd, rangeEnd)
		if err != nil {
			return false, fmt.Errorf("failed to check RRULE occurrences: %w", err)
		}
	}

	e.cachePut("has", masterStart, masterEnd, info, rangeStart, rangeEnd, found)
	return found, nil
}

func (e *Engine) hasRRuleOccurrence(masterStart time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) (bool, error) {
	set, err := e.buildSet(masterStart, info)
	if err != nil {
		return false, err
	}
	first, found, err := set.JustAfter(rangeStart, true)
	if err != nil {
		return false, err
	}
	return found && !first.After(rangeEnd), nil
}

// ExpandBetween returns the event's occurrences whose start falls in
// [rangeStart, rangeEnd], capped at the configured maximum.
func (e *Engine) ExpandBetween(
	masterStart, masterEnd time.Time,
	info RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) ([]Occurrence, error) {
	if cached, ok := e.cacheGetOccurrences("expand", masterStart, masterEnd, info, rangeStart, rangeEnd); ok {
		return cached, nil
	}

	set, err := e.buildSet(masterStart, info)
	if err != nil {
		return nil, err
	}
	starts, err := set.Between(rangeStart, rangeEnd, true)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recurrence: %w", err)
	}
	if max := e.config.MaxOccurrences; max > 0 && len(starts) > max {
		e.logger.Debug("expansion truncated", "max", max, "generated", len(starts))
		starts = starts[:max]
	}

	duration := masterEnd.Sub(masterStart)
	occurrences := make([]Occurrence, len(starts))
	for i, start := range starts {
		occurrences[i] = Occurrence{
			Start:        start,
			End:          start.Add(duration),
			RecurrenceID: start,
		}
	}

	e.cachePut("expand", masterStart, masterEnd, info, rangeStart, rangeEnd, occurrences)
	return occurrences, nil
}

// buildSet assembles the recur rule set for one event. Without an RRULE the
// master start is the single (explicit) occurrence.
func (e *Engine) buildSet(masterStart time.Time, info RecurrenceInfo) (*recur.RRuleSet, error) {
	set := recur.NewRRuleSet(masterStart)
	set.SetPolicy(displayPolicy)

	if info.RRule != "" {
		r, err := recur.StrToRRule(info.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE %q: %w", info.RRule, err)
		}
		set.RRule(r)
	} else {
		set.RDate(masterStart)
	}
	for _, t := range info.RDates {
		set.RDate(t)
	}
	for _, t := range info.ExDates {
		set.ExDate(t)
	}
	return set, nil
}

// isExcluded checks whether t is named by the EXDATE list, either exactly or
// as a date-only exclusion stored at midnight UTC.
func isExcluded(t time.Time, exdates []time.Time) bool {
	for _, exdate := range exdates {
		if t.Equal(exdate) {
			return true
		}
		if exdate.Hour() == 0 && exdate.Minute() == 0 && exdate.Second() == 0 && exdate.Location() == time.UTC {
			midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if midnight.Equal(exdate) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) cacheGetBool(op string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) (bool, bool) {
	if e.cache == nil {
		return false, false
	}
	v, ok := e.cache.Get(cacheKey(op, masterStart, masterEnd, info, rangeStart, rangeEnd))
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func (e *Engine) cacheGetOccurrences(op string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) ([]Occurrence, bool) {
	if e.cache == nil {
		return nil, false
	}
	v, ok := e.cache.Get(cacheKey(op, masterStart, masterEnd, info, rangeStart, rangeEnd))
	if !ok {
		return nil, false
	}
	occs, ok := v.([]Occurrence)
	return occs, ok
}

func (e *Engine) cachePut(op string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time, value any) {
	if e.cache != nil {
		e.cache.Put(cacheKey(op, masterStart, masterEnd, info, rangeStart, rangeEnd), value)
	}
}
