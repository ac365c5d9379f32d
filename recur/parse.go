package recur

import (
	"strconv"
	"strings"
	"time"
)

// StrToRRule parses RRULE content ("FREQ=WEEKLY;BYDAY=MO", with or without
// the "RRULE:" prefix) into a validated rule.
func StrToRRule(s string) (*RRule, error) {
	content := strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := parseRRuleContent(content)
	if err != nil {
		return nil, err
	}
	r, err := NewRRule(opt)
	if err != nil {
		return nil, &ParseError{Segment: content, Reason: "contradictory rule", Err: err}
	}
	return r, nil
}

// StrToRRuleSet parses newline-joined DTSTART/RRULE/RDATE/EXRULE/EXDATE lines
// into a rule set under the default ambiguity policy. A DTSTART naming an
// ambiguous or non-existent wall clock fails here rather than at query time.
func StrToRRuleSet(s string) (*RRuleSet, error) {
	return StrToRRuleSetWithPolicy(s, DefaultPolicy)
}

// StrToRRuleSetWithPolicy is StrToRRuleSet with an explicit fold/gap policy,
// which also governs later evaluations of the returned set.
func StrToRRuleSetWithPolicy(s string, policy AmbiguityPolicy) (*RRuleSet, error) {
	set := &RRuleSet{policy: policy}

	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n"), "\n")

	// DTSTART first, whatever the line order: it anchors every rule.
	for _, line := range lines {
		name, params, value, err := splitContentLine(line)
		if err != nil {
			return nil, err
		}
		if name != "DTSTART" {
			continue
		}
		if set.hasStart {
			return nil, &ParseError{Segment: line, Reason: "duplicate DTSTART"}
		}
		civil, loc, err := parseZonedValue(line, value, params, nil)
		if err != nil {
			return nil, err
		}
		if _, _, err := resolveCivil(civil, loc, policy); err != nil {
			return nil, &ParseError{Segment: line, Reason: "unresolvable DTSTART", Err: err}
		}
		set.dtstart, set.loc, set.hasStart = civil, loc, true
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, params, value, err := splitContentLine(line)
		if err != nil {
			return nil, err
		}
		switch name {
		case "DTSTART":
			// handled above
		case "RRULE", "EXRULE":
			opt, err := parseRRuleContent(value)
			if err != nil {
				return nil, err
			}
			opt.Dtstart = set.GetDTStart()
			r, err := NewRRule(opt)
			if err != nil {
				return nil, &ParseError{Segment: line, Reason: "contradictory rule", Err: err}
			}
			if set.hasStart && set.loc == nil {
				r.setDtstart(set.dtstart, nil)
			}
			if name == "RRULE" {
				set.rrules = append(set.rrules, r)
			} else {
				set.exrules = append(set.exrules, r)
			}
		case "RDATE", "EXDATE":
			for _, v := range strings.Split(value, ",") {
				civil, loc, err := parseZonedValue(line, strings.TrimSpace(v), params, set.loc)
				if err != nil {
					return nil, err
				}
				inst, skip, err := resolveCivil(civil, loc, policy)
				if err != nil {
					return nil, &ParseError{Segment: line, Reason: "unresolvable date", Err: err}
				}
				if skip {
					continue
				}
				if name == "RDATE" {
					set.rdates = append(set.rdates, inst)
				} else {
					set.exdates = append(set.exdates, inst)
				}
			}
		default:
			return nil, &ParseError{Segment: line, Reason: "unknown property " + name}
		}
	}
	return set, nil
}

// splitContentLine breaks "NAME;PARAM=V;PARAM=V:VALUE" into its parts.
// Blank lines yield an empty name.
func splitContentLine(line string) (name string, params map[string]string, value string, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, "", nil
	}
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", nil, "", &ParseError{Segment: line, Reason: "missing ':' separator"}
	}
	head, value := line[:idx], line[idx+1:]
	fields := strings.Split(head, ";")
	name = strings.ToUpper(fields[0])
	params = make(map[string]string, len(fields)-1)
	for _, f := range fields[1:] {
		eq := strings.Index(f, "=")
		if eq < 0 {
			return "", nil, "", &ParseError{Segment: line, Reason: "malformed parameter " + f}
		}
		params[strings.ToUpper(f[:eq])] = f[eq+1:]
	}
	return name, params, value, nil
}

// parseZonedValue reads one date-time value with its zone context: a TZID
// parameter names a zone, a trailing Z means UTC, and a bare value is
// floating unless fallback (the set's DTSTART zone) applies.
func parseZonedValue(line, value string, params map[string]string, fallback *time.Location) (civil time.Time, loc *time.Location, err error) {
	if tzid, ok := params["TZID"]; ok {
		loc, err = time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, nil, &ParseError{Segment: line, Reason: "unknown zone identifier " + tzid, Err: err}
		}
	}
	utc := strings.HasSuffix(value, "Z")
	civil, err = parseCivil(strings.TrimSuffix(value, "Z"), params["VALUE"] == "DATE")
	if err != nil {
		return time.Time{}, nil, &ParseError{Segment: line, Reason: "malformed date-time " + value, Err: err}
	}
	switch {
	case utc && loc != nil:
		return time.Time{}, nil, &ParseError{Segment: line, Reason: "UTC value cannot carry a TZID"}
	case utc:
		loc = time.UTC
	case loc == nil:
		loc = fallback
	}
	return civil, loc, nil
}

func parseCivil(v string, dateOnly bool) (time.Time, error) {
	if dateOnly || len(v) == 8 {
		return time.Parse("20060102", v)
	}
	return time.Parse("20060102T150405", v)
}

func parseRRuleContent(content string) (ROption, error) {
	var opt ROption
	seenFreq := false
	for _, field := range strings.Split(content, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		eq := strings.Index(field, "=")
		if eq < 0 {
			return opt, &ParseError{Segment: content, Reason: "malformed field " + field}
		}
		name, value := strings.ToUpper(field[:eq]), field[eq+1:]
		var err error
		switch name {
		case "FREQ":
			opt.Freq, err = parseFrequency(value)
			seenFreq = err == nil
		case "INTERVAL":
			opt.Interval, err = strconv.Atoi(value)
		case "COUNT":
			opt.Count, err = strconv.Atoi(value)
		case "UNTIL":
			var civil time.Time
			civil, err = parseCivil(strings.TrimSuffix(value, "Z"), false)
			// RFC 5545 requires a UTC UNTIL alongside a zoned DTSTART; a
			// bare value is read as UTC too.
			opt.Until = civil
		case "WKST":
			opt.Wkst, err = parseWeekday(value)
		case "BYSECOND":
			opt.BySecond, err = parseIntList(value)
		case "BYMINUTE":
			opt.ByMinute, err = parseIntList(value)
		case "BYHOUR":
			opt.ByHour, err = parseIntList(value)
		case "BYDAY":
			opt.ByDay, err = parseWeekdayList(value)
		case "BYMONTHDAY":
			opt.ByMonthDay, err = parseIntList(value)
		case "BYYEARDAY":
			opt.ByYearDay, err = parseIntList(value)
		case "BYWEEKNO":
			opt.ByWeekNo, err = parseIntList(value)
		case "BYMONTH":
			opt.ByMonth, err = parseIntList(value)
		case "BYSETPOS":
			opt.BySetPos, err = parseIntList(value)
		default:
			return opt, &ParseError{Segment: content, Reason: "unknown rule part " + name}
		}
		if err != nil {
			return opt, &ParseError{Segment: content, Reason: "invalid value for " + name, Err: err}
		}
	}
	if !seenFreq {
		return opt, &ParseError{Segment: content, Reason: "missing FREQ"}
	}
	return opt, nil
}

func parseFrequency(v string) (Frequency, error) {
	for i, name := range freqNames {
		if strings.EqualFold(v, name) {
			return Frequency(i), nil
		}
	}
	return 0, &ParseError{Segment: v, Reason: "unknown frequency token"}
}

func parseWeekday(v string) (Weekday, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	n := 0
	if len(v) > 2 {
		parsed, err := strconv.Atoi(v[:len(v)-2])
		if err != nil {
			return Weekday{}, &ParseError{Segment: v, Reason: "malformed weekday ordinal", Err: err}
		}
		n = parsed
		v = v[len(v)-2:]
	}
	for i, name := range weekdayNames {
		if v == name {
			return Weekday{day: i, n: n}, nil
		}
	}
	return Weekday{}, &ParseError{Segment: v, Reason: "unknown weekday token"}
}

func parseWeekdayList(v string) ([]Weekday, error) {
	parts := strings.Split(v, ",")
	out := make([]Weekday, 0, len(parts))
	for _, p := range parts {
		w, err := parseWeekday(p)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func parseIntList(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
