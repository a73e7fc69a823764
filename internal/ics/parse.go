package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"

	appLog "plan2ics/internal/log"
)

// ParsedAlarm is a VALARM read back from a calendar file.
type ParsedAlarm struct {
	Action      string
	Description string
	// Minutes before the event start (negative TRIGGER durations are
	// positive here).
	Minutes int
}

// ParsedEvent is a VEVENT read back from a calendar file.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string

	Start   time.Time
	End     time.Time
	StartTZ string

	Alarms []ParsedAlarm
}

// ParseICS reads the VEVENTs of an iCalendar payload. It understands what
// Emitter writes: TZID-qualified or UTC date-times and relative TRIGGERs.
func ParseICS(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}

	start, tz, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if err != nil {
		return out, fmt.Errorf("DTSTART of %q: %w", out.UID, err)
	}
	end, _, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
	if err != nil {
		return out, fmt.Errorf("DTEND of %q: %w", out.UID, err)
	}
	out.Start, out.End, out.StartTZ = start, end, tz

	for _, c := range ve.Components {
		alarm, ok := c.(*ical.VAlarm)
		if !ok {
			continue
		}
		pa, err := parseVAlarm(alarm)
		if err != nil {
			return out, fmt.Errorf("VALARM of %q: %w", out.UID, err)
		}
		out.Alarms = append(out.Alarms, pa)
	}

	return out, nil
}

func parseVAlarm(va *ical.VAlarm) (ParsedAlarm, error) {
	var out ParsedAlarm
	if p := va.GetProperty(ical.ComponentPropertyAction); p != nil {
		out.Action = p.Value
	}
	if p := va.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}
	p := va.GetProperty(ical.ComponentPropertyTrigger)
	if p == nil {
		return out, errors.New("missing TRIGGER")
	}
	d, err := ParseDuration(p.Value)
	if err != nil {
		return out, err
	}
	out.Minutes = int(-d / time.Minute)
	return out, nil
}

func propertyTime(p *ical.IANAProperty) (time.Time, string, error) {
	if p == nil {
		return time.Time{}, "", errors.New("missing property")
	}
	tzid := ""
	if params := p.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			tzid = tzs[0]
		}
	}
	t, err := parseICSTime(p.Value, tzid)
	return t, tzid, err
}

// parseICSTime parses DATE-TIME values in UTC ("...Z"), TZID-local or
// floating form.
func parseICSTime(v, tzid string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	loc := time.Local
	if tzid != "" {
		l, err := LoadLocation(tzid)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation(localLayout, v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// ParseDuration parses an RFC 5545 duration such as "-PT15M", "PT0S" or
// "-P1DT2H".
func ParseDuration(s string) (time.Duration, error) {
	v := strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(v, "-"):
		neg = true
		v = v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") || len(v) < 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	v = v[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			inTime = true
			continue
		}
		if num == "" {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		num = ""

		var unit time.Duration
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		total += time.Duration(n) * unit
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	if neg {
		total = -total
	}
	return total, nil
}

// unescapeText reverses TEXT escaping (\, \; \n \\).
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			switch r {
			case 'n', 'N':
				b.WriteRune('\n')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoadLocation wraps time.LoadLocation with the embedded tz database.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
