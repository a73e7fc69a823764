package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"plan2ics/internal/config"
	"plan2ics/internal/ics"
	appLog "plan2ics/internal/log"
	"plan2ics/internal/model"
	"plan2ics/internal/schedule"
	"plan2ics/internal/session"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	in         string
	out        string
	weeks      string
	noFirst    bool
	noPrevious bool
	dtstamp    bool
	debug      bool
	command    string
	args       []string
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	appLog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan2ics:", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout io.Writer) error {
	flags, err := parseFlags(argv)
	if err != nil {
		return err
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return err
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Debug("effective config",
		"version", version,
		"timezone", conf.Timezone,
		"academic_year", conf.AcademicYear,
		"utc_times", conf.UTCTimes,
		"command", flags.command,
	)

	switch flags.command {
	case "weeks":
		return runWeeks(flags, conf, stdout)
	case "export":
		return runExport(flags, conf, stdout)
	case "inspect":
		return runInspect(flags, stdout)
	default:
		return fmt.Errorf("unknown command %q (want weeks, export or inspect)", flags.command)
	}
}

func parseFlags(argv []string) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("plan2ics", flag.ContinueOnError)
	fs.StringVar(&cfg.configPath, "config", "", "Path to YAML config file (created with defaults if missing)")
	fs.StringVar(&cfg.in, "in", "", "HTML schedule file")
	fs.StringVar(&cfg.out, "out", "schedule.ics", "Output ICS file, or - for stdout")
	fs.StringVar(&cfg.weeks, "weeks", "all", "Weeks to export: all, or comma-separated dates (YYYY-MM-DD) inside each week")
	fs.BoolVar(&cfg.noFirst, "no-first", false, "Disable the reminder before the first lesson of the day")
	fs.BoolVar(&cfg.noPrevious, "no-previous", false, "Disable the reminder at the end of the previous lesson")
	fs.BoolVar(&cfg.dtstamp, "dtstamp", true, "Write DTSTAMP (current time) on events")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: plan2ics [flags] [weeks|export|inspect <file.ics>]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return cfg, err
	}

	cfg.command = "export"
	if fs.NArg() > 0 {
		cfg.command = fs.Arg(0)
		cfg.args = fs.Args()[1:]
	}
	return cfg, nil
}

func loadSession(flags flagConfig, conf *config.Config) (*session.Session, error) {
	if flags.in == "" {
		return nil, errors.New("please select an HTML file first (-in)")
	}
	s, err := session.Load(flags.in, schedule.NewParser(conf.ParserOptions()))
	if err != nil {
		appLog.Error("failed to load schedule", err, "path", flags.in)
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return s, nil
}

func runWeeks(flags flagConfig, conf *config.Config, stdout io.Writer) error {
	s, err := loadSession(flags, conf)
	if err != nil {
		return err
	}
	for _, w := range s.Weeks() {
		subjects := "No subjects"
		if len(w.Subjects) > 0 {
			subjects = strings.Join(w.Subjects, ", ")
		}
		fmt.Fprintf(stdout, "%s  %s\n    Subjects: %s\n", w.Monday, w.Label(), subjects)
	}
	return nil
}

func runExport(flags flagConfig, conf *config.Config, stdout io.Writer) error {
	s, err := loadSession(flags, conf)
	if err != nil {
		return err
	}

	sel, err := parseSelection(flags.weeks, s)
	if err != nil {
		return err
	}

	x, err := newExporter(flags, conf)
	if err != nil {
		return err
	}

	req := session.ExportRequest{
		Selection: sel,
		Reminders: model.ReminderConfig{
			BeforeFirst:   conf.Reminders.BeforeFirst && !flags.noFirst,
			EndOfPrevious: conf.Reminders.EndPrevious && !flags.noPrevious,
		},
		Output: flags.out,
	}

	if flags.out == "-" {
		_, err := x.Render(stdout, s, req)
		return err
	}

	res, err := x.Export(s, req)
	if err != nil {
		appLog.Error("failed to save calendar", err, "path", flags.out)
		return err
	}
	fmt.Fprintf(stdout, "Calendar saved successfully to %s (%d events, %d reminders)\n", res.Path, res.Events, res.Alarms)
	return nil
}

func newExporter(flags flagConfig, conf *config.Config) (*session.Exporter, error) {
	tables, err := conf.Tables()
	if err != nil {
		return nil, fmt.Errorf("invalid time tables: %w", err)
	}
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}

	b := ics.NewBuilder(tables, loc)
	b.FirstLeadMinutes = conf.FirstLessonLeadMinutes

	e := &ics.Emitter{ProductID: conf.ProductID, Location: loc, UTC: conf.UTCTimes}
	return &session.Exporter{Builder: b, Emitter: e, OmitStamp: !flags.dtstamp}, nil
}

// parseSelection turns -weeks into a selection. "all" picks every week;
// otherwise each date picks the week it falls in. An empty value selects
// nothing, which Export reports.
func parseSelection(v string, s *session.Session) (session.Selection, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return s.SelectAll(), nil
	}
	var dates []model.Date
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := model.ParseDate(part)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return session.Select(dates...), nil
}

func runInspect(flags flagConfig, stdout io.Writer) error {
	if len(flags.args) == 0 {
		return errors.New("inspect needs an ICS file")
	}
	data, err := os.ReadFile(flags.args[0])
	if err != nil {
		return err
	}
	events, err := ics.ParseICS(data)
	if err != nil {
		return err
	}
	for _, ev := range events {
		fmt.Fprintf(stdout, "%s  %s-%s  %s\n", ev.Start.Format("2006-01-02"), ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Summary)
		for _, a := range ev.Alarms {
			fmt.Fprintf(stdout, "    alarm -%dm  %s\n", a.Minutes, a.Description)
		}
	}
	fmt.Fprintf(stdout, "%d events\n", len(events))
	return nil
}
