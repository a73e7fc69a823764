// Package session composes the conversion pipeline: load an HTML schedule,
// offer its weeks for selection and export the selected weeks as ICS.
//
// A Session is immutable once loaded. Reloading produces a new Session, so a
// failed load never disturbs the previous one.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"plan2ics/internal/atomicfile"
	"plan2ics/internal/ics"
	appLog "plan2ics/internal/log"
	"plan2ics/internal/model"
	"plan2ics/internal/schedule"
)

var (
	// ErrNoSchedule is returned when exporting without loaded schedule data.
	ErrNoSchedule = errors.New("no schedule data loaded")
	// ErrNoWeeksSelected is returned when exporting an empty selection.
	ErrNoWeeksSelected = errors.New("no weeks selected")
)

// Session is a loaded schedule and its derived weeks.
type Session struct {
	source string
	table  model.ScheduleTable
	weeks  []model.WeekBucket
}

// Load reads and parses the HTML schedule at path.
func Load(path string, p *schedule.Parser) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()

	s, err := FromHTML(f, p)
	if err != nil {
		return nil, err
	}
	s.source = path

	appLog.Info("schedule loaded", "path", path, "days", len(s.table), "weeks", len(s.weeks))
	return s, nil
}

// FromHTML parses an HTML schedule from r.
func FromHTML(r io.Reader, p *schedule.Parser) (*Session, error) {
	if p == nil {
		p = schedule.NewParser(schedule.Options{})
	}
	table, err := p.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Session{table: table, weeks: schedule.GroupWeeks(table)}, nil
}

// Source is the path the session was loaded from, if any.
func (s *Session) Source() string { return s.source }

// Table returns the parsed schedule. Callers must not modify it.
func (s *Session) Table() model.ScheduleTable { return s.table }

// Weeks returns the week buckets ordered by Monday.
func (s *Session) Weeks() []model.WeekBucket {
	return append([]model.WeekBucket(nil), s.weeks...)
}

// Empty reports whether the session holds no schedule days.
func (s *Session) Empty() bool { return s == nil || len(s.table) == 0 }

// Selection is the set of included weeks, keyed by Monday.
type Selection map[model.Date]bool

// SelectAll includes every week of the session.
func (s *Session) SelectAll() Selection {
	sel := make(Selection, len(s.weeks))
	for _, w := range s.weeks {
		sel[w.Monday] = true
	}
	return sel
}

// Select builds a selection from dates; each date selects the week it
// falls in.
func Select(dates ...model.Date) Selection {
	sel := make(Selection, len(dates))
	for _, d := range dates {
		sel[d.Monday()] = true
	}
	return sel
}

// Mondays returns the included Mondays ascending.
func (sel Selection) Mondays() []model.Date {
	out := make([]model.Date, 0, len(sel))
	for d, on := range sel {
		if on {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ExportRequest carries everything the presentation layer decides.
type ExportRequest struct {
	Selection Selection
	Reminders model.ReminderConfig
	// Output is the destination file path (Export only).
	Output string
}

// ExportResult summarizes a successful export.
type ExportResult struct {
	Path   string
	Weeks  int
	Events int
	Alarms int
}

// Exporter turns selected weeks into calendar bytes.
type Exporter struct {
	Builder *ics.Builder
	Emitter *ics.Emitter
	// OmitStamp keeps DTSTAMP out when Emitter.Stamp is zero. Otherwise a
	// zero Stamp is replaced by the export time.
	OmitStamp bool
}

func (x *Exporter) emitter() *ics.Emitter {
	if x.OmitStamp || !x.Emitter.Stamp.IsZero() {
		return x.Emitter
	}
	e := *x.Emitter
	e.Stamp = time.Now().UTC()
	return &e
}

// Events validates the request and builds the events of the selected weeks.
func (x *Exporter) Events(s *Session, req ExportRequest) ([]model.CalendarEvent, error) {
	if s.Empty() {
		return nil, ErrNoSchedule
	}
	mondays := req.Selection.Mondays()
	if len(mondays) == 0 {
		return nil, ErrNoWeeksSelected
	}
	return x.Builder.BuildWeeks(s.table, mondays, req.Reminders), nil
}

// Render writes the calendar for req to w.
func (x *Exporter) Render(w io.Writer, s *Session, req ExportRequest) (ExportResult, error) {
	events, err := x.Events(s, req)
	if err != nil {
		return ExportResult{}, err
	}
	if err := x.emitter().Encode(w, events); err != nil {
		return ExportResult{}, err
	}
	return summarize(req, events), nil
}

// Export writes the calendar for req to req.Output. The file is replaced
// atomically; nothing is written when validation or encoding fails.
func (x *Exporter) Export(s *Session, req ExportRequest) (ExportResult, error) {
	if req.Output == "" {
		return ExportResult{}, errors.New("no output file given")
	}
	events, err := x.Events(s, req)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	if err := x.emitter().Encode(&buf, events); err != nil {
		return ExportResult{}, err
	}
	if err := atomicfile.Write(req.Output, buf.Bytes(), 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write calendar: %w", err)
	}

	res := summarize(req, events)
	res.Path = req.Output
	appLog.Info("calendar exported", "path", res.Path, "weeks", res.Weeks, "events", res.Events, "alarms", res.Alarms)
	return res, nil
}

func summarize(req ExportRequest, events []model.CalendarEvent) ExportResult {
	res := ExportResult{Weeks: len(req.Selection.Mondays()), Events: len(events)}
	for _, ev := range events {
		res.Alarms += len(ev.Alarms)
	}
	return res
}
