package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"plan2ics/internal/model"
)

// DefaultProductID is written as PRODID.
const DefaultProductID = "-//Berufsschule Schedule Converter//mxm.dk//"

const localLayout = "20060102T150405"

// Emitter serializes calendar events into an iCalendar stream.
type Emitter struct {
	ProductID string

	// Location names the TZID written on DTSTART/DTEND. Ignored when UTC
	// is set.
	Location *time.Location

	// UTC writes DTSTART/DTEND as UTC "Z" times instead of TZID-qualified
	// local times.
	UTC bool

	// Stamp is written as DTSTAMP on every event. A zero Stamp omits
	// DTSTAMP, which RFC 5545 requires on VEVENT; callers writing for
	// strict consumers must set it. session.Exporter fills it in unless
	// told not to.
	Stamp time.Time
}

// Calendar builds the golang-ical calendar for events. Events are emitted
// in start order regardless of input order.
func (e *Emitter) Calendar(events []model.CalendarEvent) *ical.Calendar {
	productID := e.ProductID
	if productID == "" {
		productID = DefaultProductID
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	sorted := append([]model.CalendarEvent(nil), events...)
	SortEvents(sorted)

	for _, ev := range sorted {
		e.addEvent(cal, ev)
	}
	return cal
}

func (e *Emitter) addEvent(cal *ical.Calendar, ev model.CalendarEvent) {
	uid := ev.UID
	if uid == "" {
		uid = eventUID(ev.Date, ev.Period)
	}

	vev := cal.AddEvent(uid)
	if !e.Stamp.IsZero() {
		vev.SetDtStampTime(e.Stamp)
	}
	vev.SetSummary(ev.Summary)

	if e.UTC {
		vev.SetStartAt(ev.Start)
		vev.SetEndAt(ev.End)
	} else {
		loc := e.Location
		if loc == nil {
			loc = ev.Start.Location()
		}
		tzid := ical.WithTZID(loc.String())
		vev.SetProperty(ical.ComponentPropertyDtStart, ev.Start.In(loc).Format(localLayout), tzid)
		vev.SetProperty(ical.ComponentPropertyDtEnd, ev.End.In(loc).Format(localLayout), tzid)
	}

	vev.SetDescription(ev.Description)

	for _, a := range ev.Alarms {
		alarm := vev.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetDescription(a.Message)
		alarm.SetTrigger(formatTrigger(a.Minutes))
	}
}

// Serialize renders events as an iCalendar document.
func (e *Emitter) Serialize(events []model.CalendarEvent) string {
	return e.Calendar(events).Serialize()
}

// Encode writes events as an iCalendar document to w.
func (e *Emitter) Encode(w io.Writer, events []model.CalendarEvent) error {
	if err := e.Calendar(events).SerializeTo(w); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// formatTrigger renders a negative (before start) trigger duration.
func formatTrigger(minutes int) string {
	if minutes <= 0 {
		return "PT0S"
	}
	return fmt.Sprintf("-PT%dM", minutes)
}
