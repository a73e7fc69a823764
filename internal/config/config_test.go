package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan2ics/internal/timeslot"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 2025, cfg.AcademicYear)
	assert.Equal(t, 15, cfg.FirstLessonLeadMinutes)
	assert.True(t, cfg.Reminders.BeforeFirst)
	assert.True(t, cfg.Reminders.EndPrevious)
	assert.Contains(t, cfg.IgnoreSubjects, "Feiertag")

	tables, err := cfg.Tables()
	require.NoError(t, err)
	assert.Equal(t, timeslot.Defaults(), tables)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "plan2ics.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan2ics.yaml")
	body := `
academic_year: 2026
utc_times: true
reminders:
  end_previous: false
friday_times:
  1: {start: "08:00", end: "09:30"}
  7: {start: "13:00", end: "14:30"}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2026, cfg.AcademicYear)
	assert.True(t, cfg.UTCTimes)
	assert.True(t, cfg.Reminders.BeforeFirst)
	assert.False(t, cfg.Reminders.EndPrevious)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)

	tables, err := cfg.Tables()
	require.NoError(t, err)
	_, ok := tables.Friday.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, timeslot.DefaultWeekday(), tables.Weekday)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("academic_year: [nope"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestTablesRejectsBadSlots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WeekdayTimes = map[int]SlotConfig{1: {Start: "9:99", End: "10:00"}}
	_, err := cfg.Tables()
	assert.Error(t, err)

	cfg.WeekdayTimes = map[int]SlotConfig{1: {Start: "10:00", End: "09:00"}}
	_, err = cfg.Tables()
	assert.Error(t, err)
}

func TestLocationInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := cfg.Location()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan2ics.yaml")
	cfg := DefaultConfig()
	cfg.ProductID = "-//Test//EN"
	cfg.IgnoreSubjects = []string{"Frei"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Error(t, Save(path, nil))
	assert.Error(t, Save("", cfg))
}
