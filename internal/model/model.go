package model

import (
	"fmt"
	"sort"
	"time"
)

// Date is a civil calendar date without time or zone. It is comparable and
// used as the key of ScheduleTable.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate returns the Date for y-m-d and reports whether it is a real
// calendar date (time.Date silently normalizes 31 Feb into March).
func NewDate(y int, m time.Month, d int) (Date, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return Date{}, false
	}
	return Date{Year: y, Month: m, Day: d}, true
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

func (d Date) AddDays(n int) Date { return DateOf(d.utc().AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return d.utc().Before(o.utc()) }

func (d Date) IsZero() bool { return d == Date{} }

// Monday returns the Monday of d's week (weeks start on Monday).
func (d Date) Monday() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// At returns the instant of the given wall-clock time on d in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d Date) String() string { return d.utc().Format(dateLayout) }

// Format formats d using a time layout.
func (d Date) Format(layout string) string { return d.utc().Format(layout) }

// SortDates sorts ds ascending in place.
func SortDates(ds []Date) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}

// DaySchedule holds the lessons of one school day.
type DaySchedule struct {
	Date Date
	// Weekday is the label printed in the table ("Mo", "Di", ...).
	Weekday string
	// Subjects maps period number (1-10) to subject name.
	Subjects map[int]string
}

// Periods returns the day's period numbers ascending.
func (d DaySchedule) Periods() []int {
	out := make([]int, 0, len(d.Subjects))
	for p := range d.Subjects {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// ScheduleTable maps each school day to its lessons. Only days with at least
// one real subject are present.
type ScheduleTable map[Date]DaySchedule

// Dates returns the table's dates ascending.
func (t ScheduleTable) Dates() []Date {
	out := make([]Date, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	SortDates(out)
	return out
}

// WeekBucket groups the schedule dates of one Monday-anchored week.
type WeekBucket struct {
	Monday   Date
	Dates    []Date
	Subjects []string
}

// Contains reports whether d falls in [Monday, Monday+7).
func (w WeekBucket) Contains(d Date) bool {
	return !d.Before(w.Monday) && d.Before(w.Monday.AddDays(7))
}

// Label renders the week the way it is offered for selection, e.g.
// "Week 01.09 - 05.09.2025", using the first and last member dates.
func (w WeekBucket) Label() string {
	if len(w.Dates) == 0 {
		return "Week " + w.Monday.Format("02.01.2006")
	}
	first, last := w.Dates[0], w.Dates[len(w.Dates)-1]
	return fmt.Sprintf("Week %s - %s", first.Format("02.01"), last.Format("02.01.2006"))
}

// ReminderConfig toggles the two kinds of alarms.
type ReminderConfig struct {
	// BeforeFirst adds an alarm ahead of the first lesson of each day.
	BeforeFirst bool
	// EndOfPrevious adds an alarm at the end of the preceding lesson.
	EndOfPrevious bool
}

// Alarm is a display reminder firing Minutes before event start.
type Alarm struct {
	Minutes int
	Message string
}

// CalendarEvent is one timed lesson ready for export.
type CalendarEvent struct {
	UID    string
	Date   Date
	Period int

	Summary     string
	Description string

	Start time.Time
	End   time.Time

	Alarms []Alarm
}
