package expand

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// RecurrenceInfoFromComponent extracts the recurrence properties of an iCal
// component.
func RecurrenceInfoFromComponent(comp *ical.Component) RecurrenceInfo {
	info := RecurrenceInfo{}

	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		info.RRule = prop.Value
	}
	if prop := comp.Props.Get(ical.PropRecurrenceDates); prop != nil && prop.Value != "" {
		info.RDates = parseDateList(prop.Value, prop.Params)
	}
	if prop := comp.Props.Get(ical.PropExceptionDates); prop != nil && prop.Value != "" {
		info.ExDates = parseDateList(prop.Value, prop.Params)
	}
	if prop := comp.Props.Get("RECURRENCE-ID"); prop != nil && prop.Value != "" {
		if recID, err := parseDateTime(prop.Value, prop.Params); err == nil {
			info.RecurrenceID = &recID
		}
	}
	return info
}

// TimeRangeFromComponent extracts the master start and end of a component.
// The end comes from DTEND, then DURATION; a date-only event defaults to one
// day and a timed one to an instantaneous event.
func TimeRangeFromComponent(comp *ical.Component) (start, end time.Time, ok bool) {
	dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = dtstart

	if dtend, err := comp.Props.DateTime(ical.PropDateTimeEnd, nil); err == nil {
		end = dtend
	} else if durProp := comp.Props.Get(ical.PropDuration); durProp != nil {
		dur, err := durProp.Duration()
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end = start.Add(dur)
	} else if isAllDayDate(comp) {
		end = start.AddDate(0, 0, 1)
	} else {
		end = start
	}
	return start, end, true
}

// ExpandComponent materializes the occurrences of a recurring component in
// [rangeStart, rangeEnd] as standalone components, each carrying a
// RECURRENCE-ID. A master without a UID gets a generated one so the
// occurrences stay correlated.
func (e *Engine) ExpandComponent(comp *ical.Component, rangeStart, rangeEnd time.Time) ([]*ical.Component, error) {
	start, end, ok := TimeRangeFromComponent(comp)
	if !ok {
		return nil, fmt.Errorf("component %s has no usable DTSTART", comp.Name)
	}
	info := RecurrenceInfoFromComponent(comp)

	occurrences, err := e.ExpandBetween(start, end, info, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	uid := ""
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		uid = prop.Value
	}
	if uid == "" {
		uid = uuid.New().String()
	}

	out := make([]*ical.Component, 0, len(occurrences))
	for _, occ := range occurrences {
		instance := ical.NewComponent(comp.Name)
		instance.Props.SetText(ical.PropUID, uid)
		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			instance.Props.SetText(ical.PropSummary, prop.Value)
		}
		instance.Props.SetDateTime(ical.PropDateTimeStart, occ.Start)
		instance.Props.SetDateTime(ical.PropDateTimeEnd, occ.End)
		instance.Props.SetDateTime("RECURRENCE-ID", occ.RecurrenceID)
		instance.Props.SetDateTime(ical.PropDateTimeStamp, time.Now())
		out = append(out, instance)
	}
	return out, nil
}

// parseDateList parses a comma-separated RDATE/EXDATE value.
func parseDateList(value string, params map[string][]string) []time.Time {
	var out []time.Time
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if t, err := parseDateTime(part, params); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// parseDateTime parses one iCal date or date-time value, honoring the TZID
// and VALUE=DATE parameters.
func parseDateTime(value string, params map[string][]string) (time.Time, error) {
	loc := time.UTC
	if tz := params["TZID"]; len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			loc = l
		}
	}

	dateOnly := false
	if vp := params["VALUE"]; len(vp) > 0 && strings.EqualFold(vp[0], "DATE") {
		dateOnly = true
	}

	switch {
	case strings.HasSuffix(value, "Z"):
		return time.Parse("20060102T150405Z", value)
	case dateOnly || len(value) == 8:
		return time.ParseInLocation("20060102", value, loc)
	default:
		return time.ParseInLocation("20060102T150405", value, loc)
	}
}

// isAllDayDate reports whether the component's DTSTART is a date-only value.
func isAllDayDate(comp *ical.Component) bool {
	prop := comp.Props.Get(ical.PropDateTimeStart)
	if prop == nil {
		return false
	}
	if vp := prop.Params["VALUE"]; len(vp) > 0 && strings.EqualFold(vp[0], "DATE") {
		return true
	}
	return len(prop.Value) == 8
}
