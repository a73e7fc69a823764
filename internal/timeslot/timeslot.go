package timeslot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period numbers printed in the schedule table.
const (
	MinPeriod = 1
	MaxPeriod = 10
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("timeslot: invalid clock %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return Clock{}, fmt.Errorf("timeslot: invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return Clock{}, fmt.Errorf("timeslot: invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("timeslot: clock %q out of range", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Slot is the start/end pair of one period.
type Slot struct {
	Start Clock
	End   Clock
}

// Duration returns End - Start.
func (s Slot) Duration() time.Duration {
	return time.Duration(s.End.minutes()-s.Start.minutes()) * time.Minute
}

// Table maps period number to its slot. Periods without an entry produce no
// calendar event (double lessons only have an entry for their first period).
type Table map[int]Slot

// Lookup returns the slot for period p.
func (t Table) Lookup(p int) (Slot, bool) {
	s, ok := t[p]
	return s, ok
}

// Periods returns the table's periods ascending.
func (t Table) Periods() []int {
	out := make([]int, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Validate checks period range and that every slot starts before it ends.
func (t Table) Validate() error {
	for _, p := range t.Periods() {
		if p < MinPeriod || p > MaxPeriod {
			return fmt.Errorf("timeslot: period %d outside %d-%d", p, MinPeriod, MaxPeriod)
		}
		s := t[p]
		if s.Start.minutes() >= s.End.minutes() {
			return fmt.Errorf("timeslot: period %d starts at %s but ends at %s", p, s.Start, s.End)
		}
	}
	return nil
}

// Tables holds the Monday–Thursday and Friday variants.
type Tables struct {
	Weekday Table
	Friday  Table
}

// For returns the table that applies on the given weekday.
func (ts Tables) For(wd time.Weekday) Table {
	if wd == time.Friday {
		return ts.Friday
	}
	return ts.Weekday
}

func (ts Tables) Validate() error {
	if err := ts.Weekday.Validate(); err != nil {
		return fmt.Errorf("weekday table: %w", err)
	}
	if err := ts.Friday.Validate(); err != nil {
		return fmt.Errorf("friday table: %w", err)
	}
	return nil
}

func slot(start, end string) Slot {
	return Slot{Start: MustClock(start), End: MustClock(end)}
}

// DefaultWeekday is the Monday–Thursday bell schedule.
func DefaultWeekday() Table {
	return Table{
		1: slot("08:00", "09:30"), // 1-2
		3: slot("09:45", "11:15"), // 3-4
		5: slot("11:25", "12:10"),
		6: slot("12:55", "14:25"), // 6-7
		8: slot("14:35", "15:20"),
		9: slot("15:30", "17:00"), // 9-10
	}
}

// DefaultFriday is the Friday bell schedule. Period 7 is the self-study
// slot and has no entry.
func DefaultFriday() Table {
	return Table{
		1: slot("08:00", "09:30"),
		3: slot("09:45", "11:15"),
		5: slot("11:30", "13:00"), // 5-6
	}
}

func Defaults() Tables {
	return Tables{Weekday: DefaultWeekday(), Friday: DefaultFriday()}
}
