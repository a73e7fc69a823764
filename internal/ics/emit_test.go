package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan2ics/internal/model"
	"plan2ics/internal/timeslot"
)

func sampleEvents(t *testing.T) []model.CalendarEvent {
	t.Helper()
	b := NewBuilder(timeslot.Defaults(), berlin(t))
	table := model.ScheduleTable{}
	for s, subjects := range map[string]map[int]string{
		"2025-09-01": {1: "Mathe", 3: "Deutsch", 6: "LF3"},
		"2025-09-05": {1: "Englisch", 5: "Politik, Wirtschaft"},
		"2025-10-27": {9: "Sport"},
	} {
		d := date(t, s)
		table[d] = day(d, subjects)
	}
	return b.BuildWeeks(table, []model.Date{date(t, "2025-09-01"), date(t, "2025-10-27")}, allReminders)
}

func TestSerializeHeadersAndBlocks(t *testing.T) {
	e := &Emitter{Location: berlin(t)}
	out := e.Serialize(sampleEvents(t))

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+DefaultProductID)
	assert.Contains(t, out, "VERSION:2.0")
	assert.Contains(t, out, "CALSCALE:GREGORIAN")
	assert.Equal(t, 6, strings.Count(out, "BEGIN:VEVENT"))
	assert.Equal(t, 6, strings.Count(out, "BEGIN:VALARM"))
	assert.Contains(t, out, "DTSTART;TZID=Europe/Berlin:20250901T080000")
	assert.Contains(t, out, "DTEND;TZID=Europe/Berlin:20250901T093000")
	assert.Contains(t, out, "TRIGGER:-PT15M")
	assert.Contains(t, out, "ACTION:DISPLAY")
	assert.Equal(t, strings.Count(out, "BEGIN:VALARM"), strings.Count(out, "ACTION:DISPLAY"))
	assert.NotContains(t, out, "DTSTAMP")
}

func TestSerializeDeterministic(t *testing.T) {
	e := &Emitter{Location: berlin(t), Stamp: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
	events := sampleEvents(t)

	reversed := make([]model.CalendarEvent, len(events))
	for i, ev := range events {
		reversed[len(events)-1-i] = ev
	}

	first := e.Serialize(events)
	assert.Equal(t, first, e.Serialize(events))
	assert.Equal(t, first, e.Serialize(reversed))
	assert.Contains(t, first, "DTSTAMP:20250801T120000Z")
}

func TestEncodeMatchesSerialize(t *testing.T) {
	e := &Emitter{Location: berlin(t)}
	events := sampleEvents(t)

	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf, events))
	assert.Equal(t, e.Serialize(events), buf.String())
}

func TestRoundTrip(t *testing.T) {
	for _, utc := range []bool{false, true} {
		e := &Emitter{Location: berlin(t), UTC: utc}
		events := sampleEvents(t)

		parsed, err := ParseICS([]byte(e.Serialize(events)))
		require.NoError(t, err)
		require.Len(t, parsed, len(events))

		for i, want := range events {
			got := parsed[i]
			assert.Equal(t, want.UID, got.UID)
			assert.Equal(t, want.Summary, got.Summary)
			assert.Equal(t, want.Description, got.Description)
			assert.True(t, want.Start.Equal(got.Start), "start %s != %s", want.Start, got.Start)
			assert.True(t, want.End.Equal(got.End), "end %s != %s", want.End, got.End)
			require.Len(t, got.Alarms, len(want.Alarms))
			for j, a := range want.Alarms {
				assert.Equal(t, a.Minutes, got.Alarms[j].Minutes)
				assert.Equal(t, a.Message, got.Alarms[j].Description)
				assert.Equal(t, "DISPLAY", got.Alarms[j].Action)
			}
		}
		if !utc {
			assert.Equal(t, DefaultTimezone, parsed[0].StartTZ)
		}
	}
}

func TestSerializeEmpty(t *testing.T) {
	out := (&Emitter{}).Serialize(nil)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestFormatTrigger(t *testing.T) {
	assert.Equal(t, "-PT15M", formatTrigger(15))
	assert.Equal(t, "-PT100M", formatTrigger(100))
	assert.Equal(t, "PT0S", formatTrigger(0))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"-PT15M", -15 * time.Minute},
		{"PT0S", 0},
		{"-PT1H30M", -90 * time.Minute},
		{"+PT5M", 5 * time.Minute},
		{"-P1DT2H", -26 * time.Hour},
		{"P1W", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "15M", "PT", "PT15", "P15M", "PTT1M", "-PTXM"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseICSErrors(t *testing.T) {
	_, err := ParseICS(nil)
	assert.Error(t, err)
}

func TestUnescapeText(t *testing.T) {
	assert.Equal(t, "a, b; c\nd\\", unescapeText(`a\, b\; c\nd\\`))
	assert.Equal(t, "plain", unescapeText("plain"))
}
