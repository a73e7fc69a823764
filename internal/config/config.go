package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"plan2ics/internal/atomicfile"
	"plan2ics/internal/ics"
	"plan2ics/internal/schedule"
	"plan2ics/internal/timeslot"
)

// SlotConfig is one period's "HH:MM" start and end.
type SlotConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// ReminderDefaults are the initial state of the two reminder toggles.
type ReminderDefaults struct {
	BeforeFirst bool `yaml:"before_first"`
	EndPrevious bool `yaml:"end_previous"`
}

// Config is the top-level converter configuration.
type Config struct {
	// Timezone is the IANA zone lesson times are given in.
	Timezone string `yaml:"timezone"`

	// AcademicYear is the first calendar year of the school year. Rows
	// dated August–December fall in it, January–July in the next year.
	AcademicYear int `yaml:"academic_year"`

	// ProductID is written as the calendar's PRODID.
	ProductID string `yaml:"product_id"`

	// FirstLessonLeadMinutes is the offset of the "before first lesson"
	// alarm.
	FirstLessonLeadMinutes int `yaml:"first_lesson_lead_minutes"`

	// UTCTimes writes DTSTART/DTEND in UTC instead of TZID local time.
	UTCTimes bool `yaml:"utc_times"`

	// IgnoreSubjects are cell values that mean "no lesson".
	IgnoreSubjects []string `yaml:"ignore_subjects"`

	Reminders ReminderDefaults `yaml:"reminders"`

	// WeekdayTimes and FridayTimes map period number to its slot.
	WeekdayTimes map[int]SlotConfig `yaml:"weekday_times"`
	FridayTimes  map[int]SlotConfig `yaml:"friday_times"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Reminders: ReminderDefaults{BeforeFirst: true, EndPrevious: true},
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = ics.DefaultTimezone
	}
	if c.AcademicYear <= 0 {
		c.AcademicYear = schedule.DefaultAcademicYear
	}
	if c.ProductID == "" {
		c.ProductID = ics.DefaultProductID
	}
	if c.FirstLessonLeadMinutes <= 0 {
		c.FirstLessonLeadMinutes = 15
	}
	if c.IgnoreSubjects == nil {
		c.IgnoreSubjects = append([]string(nil), schedule.DefaultIgnoreSubjects...)
	}
	if len(c.WeekdayTimes) == 0 {
		c.WeekdayTimes = fromTable(timeslot.DefaultWeekday())
	}
	if len(c.FridayTimes) == 0 {
		c.FridayTimes = fromTable(timeslot.DefaultFriday())
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Tables converts and validates the configured bell schedules.
func (c *Config) Tables() (timeslot.Tables, error) {
	weekday, err := toTable(c.WeekdayTimes)
	if err != nil {
		return timeslot.Tables{}, fmt.Errorf("weekday_times: %w", err)
	}
	friday, err := toTable(c.FridayTimes)
	if err != nil {
		return timeslot.Tables{}, fmt.Errorf("friday_times: %w", err)
	}
	ts := timeslot.Tables{Weekday: weekday, Friday: friday}
	if err := ts.Validate(); err != nil {
		return timeslot.Tables{}, err
	}
	return ts, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return ics.LoadLocation(c.Timezone)
}

// ParserOptions returns the schedule parser settings.
func (c *Config) ParserOptions() schedule.Options {
	return schedule.Options{AcademicYear: c.AcademicYear, IgnoreSubjects: c.IgnoreSubjects}
}

func toTable(m map[int]SlotConfig) (timeslot.Table, error) {
	t := make(timeslot.Table, len(m))
	for p, sc := range m {
		start, err := timeslot.ParseClock(sc.Start)
		if err != nil {
			return nil, fmt.Errorf("period %d start: %w", p, err)
		}
		end, err := timeslot.ParseClock(sc.End)
		if err != nil {
			return nil, fmt.Errorf("period %d end: %w", p, err)
		}
		t[p] = timeslot.Slot{Start: start, End: end}
	}
	return t, nil
}

func fromTable(t timeslot.Table) map[int]SlotConfig {
	m := make(map[int]SlotConfig, len(t))
	for p, s := range t {
		m[p] = SlotConfig{Start: s.Start.String(), End: s.End.String()}
	}
	return m
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - An empty path returns the defaults without touching disk.
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Reminders default to on unless the file says otherwise.
	cfg := Config{Reminders: ReminderDefaults{BeforeFirst: true, EndPrevious: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
