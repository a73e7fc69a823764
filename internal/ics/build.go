package ics

import (
	"fmt"
	"sort"
	"time"

	"plan2ics/internal/model"
	"plan2ics/internal/schedule"
	"plan2ics/internal/timeslot"
)

const (
	// DefaultTimezone is the civil zone the bell schedule is defined in.
	DefaultTimezone = "Europe/Berlin"

	defaultFirstLeadMinutes = 15
)

// Builder expands days of the schedule into timed calendar events.
type Builder struct {
	Tables   timeslot.Tables
	Location *time.Location

	// FirstLeadMinutes is how long before the first lesson of the day the
	// "before first" alarm fires. Zero selects 15.
	FirstLeadMinutes int
}

// NewBuilder returns a Builder for the given tables. A nil loc falls back to
// Europe/Berlin.
func NewBuilder(tables timeslot.Tables, loc *time.Location) *Builder {
	if loc == nil {
		loc = mustLoadLocation(DefaultTimezone)
	}
	return &Builder{Tables: tables, Location: loc, FirstLeadMinutes: defaultFirstLeadMinutes}
}

// BuildDay returns the events of a single day ordered by start time.
//
// Periods without a slot in the applicable table are dropped. The "end of
// previous" alarm uses the previous period present that day (not
// necessarily the adjacent one) and is only attached when that period has
// a slot.
func (b *Builder) BuildDay(day model.DaySchedule, rem model.ReminderConfig) []model.CalendarEvent {
	table := b.Tables.For(day.Date.Weekday())
	lead := b.FirstLeadMinutes
	if lead <= 0 {
		lead = defaultFirstLeadMinutes
	}

	periods := day.Periods()
	if len(periods) == 0 {
		return nil
	}
	first := periods[0]

	previous := make(map[int]int, len(periods))
	for i := 1; i < len(periods); i++ {
		previous[periods[i]] = periods[i-1]
	}

	events := make([]model.CalendarEvent, 0, len(periods))
	for _, period := range periods {
		slot, ok := table.Lookup(period)
		if !ok {
			continue
		}
		subject := day.Subjects[period]
		start, end := b.instants(day.Date, slot)

		ev := model.CalendarEvent{
			UID:         eventUID(day.Date, period),
			Date:        day.Date,
			Period:      period,
			Summary:     subject,
			Description: fmt.Sprintf("Berufsschule - Period %d", period),
			Start:       start,
			End:         end,
		}

		if rem.BeforeFirst && period == first {
			ev.Alarms = append(ev.Alarms, model.Alarm{
				Minutes: lead,
				Message: "First lesson starting soon: " + subject,
			})
		}

		if rem.EndOfPrevious {
			if prev, ok := previous[period]; ok {
				if prevSlot, ok := table.Lookup(prev); ok {
					_, prevEnd := b.instants(day.Date, prevSlot)
					delta := int(start.Sub(prevEnd) / time.Minute)
					if delta < 0 {
						// Overlapping custom slots: fire at start.
						delta = 0
					}
					ev.Alarms = append(ev.Alarms, model.Alarm{
						Minutes: delta,
						Message: "Next lesson preparation: " + subject,
					})
				}
			}
		}

		events = append(events, ev)
	}

	SortEvents(events)
	return events
}

// BuildWeeks expands every day of the selected weeks, ordered by start.
// Mondays without schedule days contribute nothing.
func (b *Builder) BuildWeeks(table model.ScheduleTable, mondays []model.Date, rem model.ReminderConfig) []model.CalendarEvent {
	seen := make(map[model.Date]struct{}, len(mondays))
	var out []model.CalendarEvent
	for _, mon := range mondays {
		if _, dup := seen[mon]; dup {
			continue
		}
		seen[mon] = struct{}{}
		for _, d := range schedule.DatesIn(table, mon) {
			out = append(out, b.BuildDay(table[d], rem)...)
		}
	}
	SortEvents(out)
	return out
}

func (b *Builder) instants(d model.Date, s timeslot.Slot) (time.Time, time.Time) {
	return d.At(s.Start.Hour, s.Start.Minute, b.Location), d.At(s.End.Hour, s.End.Minute, b.Location)
}

// SortEvents orders events by start, then period, then UID.
func SortEvents(events []model.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, c := events[i], events[j]
		if !a.Start.Equal(c.Start) {
			return a.Start.Before(c.Start)
		}
		if a.Period != c.Period {
			return a.Period < c.Period
		}
		return a.UID < c.UID
	})
}

func eventUID(d model.Date, period int) string {
	return fmt.Sprintf("%s-p%d@plan2ics", d.Format("20060102"), period)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
