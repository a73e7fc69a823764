package schedule

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	appLog "plan2ics/internal/log"
	"plan2ics/internal/model"
)

// Table layout: column 0 is the date, column 1 the weekday label and
// columns 2..11 are periods 1..10. The layout is fixed, not inferred.
const (
	minCells        = 12
	firstPeriodCell = 2
	lastPeriodCell  = 11
)

// DefaultAcademicYear is the first calendar year of the school year the
// table covers. Months Aug–Dec fall in this year, Jan–Jul in the next.
const DefaultAcademicYear = 2025

// DefaultIgnoreSubjects are cell values that mean "no lesson".
var DefaultIgnoreSubjects = []string{"#NV", "Frei", "Betrieb", "Feiertag", "", " "}

// ErrNoTable is reported when the document has no <table> at all.
var ErrNoTable = errors.New("no table found")

// ParseError wraps failures that make the whole document unusable.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse schedule: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

var dateCellRe = regexp.MustCompile(`^(\d{1,2})\.\s*([\p{L}\p{N}_]+)`)

// German month abbreviations (first three letters, lowercase).
var monthByAbbrev = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mär": time.March,
	"apr": time.April,
	"mai": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"okt": time.October,
	"nov": time.November,
	"dez": time.December,
}

// Options tunes the parser. Zero values select the defaults.
type Options struct {
	AcademicYear   int
	IgnoreSubjects []string
}

// Parser turns the HTML schedule export into a ScheduleTable.
type Parser struct {
	academicYear int
	ignore       map[string]struct{}
}

func NewParser(opts Options) *Parser {
	year := opts.AcademicYear
	if year <= 0 {
		year = DefaultAcademicYear
	}
	ignoreList := opts.IgnoreSubjects
	if ignoreList == nil {
		ignoreList = DefaultIgnoreSubjects
	}
	ignore := make(map[string]struct{}, len(ignoreList))
	for _, s := range ignoreList {
		ignore[s] = struct{}{}
	}
	return &Parser{academicYear: year, ignore: ignore}
}

// Ignored reports whether subject marks a free slot.
func (p *Parser) Ignored(subject string) bool {
	_, ok := p.ignore[subject]
	return ok
}

// ParseString is Parse over an in-memory document.
func (p *Parser) ParseString(html string) (model.ScheduleTable, error) {
	return p.Parse(strings.NewReader(html))
}

// Parse reads the first <table> of the document. Rows that are not lesson
// rows (headers, separators, invalid dates) are skipped without error; only
// a missing table fails.
func (p *Parser) Parse(r io.Reader) (model.ScheduleTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("read schedule html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &ParseError{Err: ErrNoTable}
	}

	out := make(model.ScheduleTable)
	rows := table.Find("tr")
	kept := 0

	rows.Each(func(_ int, row *goquery.Selection) {
		day, ok := p.parseRow(row.Find("td, th"))
		if !ok {
			return
		}
		// A repeated date overwrites the earlier row.
		out[day.Date] = day
		kept++
	})

	appLog.Debug("schedule parsed", "rows", rows.Length(), "lesson_rows", kept, "days", len(out))
	return out, nil
}

func (p *Parser) parseRow(cells *goquery.Selection) (model.DaySchedule, bool) {
	if cells.Length() < minCells {
		return model.DaySchedule{}, false
	}

	date, ok := p.parseDateCell(strings.TrimSpace(cells.Eq(0).Text()))
	if !ok {
		return model.DaySchedule{}, false
	}

	subjects := make(map[int]string)
	for i := firstPeriodCell; i <= lastPeriodCell; i++ {
		subject := firstLine(cellText(cells.Eq(i)))
		if subject == "" || p.Ignored(subject) {
			continue
		}
		subjects[i-1] = subject
	}
	if len(subjects) == 0 {
		return model.DaySchedule{}, false
	}

	return model.DaySchedule{
		Date:     date,
		Weekday:  strings.TrimSpace(cells.Eq(1).Text()),
		Subjects: subjects,
	}, true
}

// parseDateCell reads "02. Sep" style cells. Unknown month names map to
// January; the year comes from the academic-year boundary.
func (p *Parser) parseDateCell(text string) (model.Date, bool) {
	m := dateCellRe.FindStringSubmatch(text)
	if m == nil {
		return model.Date{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return model.Date{}, false
	}

	month, ok := monthByAbbrev[abbrev(m[2])]
	if !ok {
		month = time.January
	}

	year := p.academicYear
	if month < time.August {
		year++
	}

	return model.NewDate(year, month, day)
}

func abbrev(name string) string {
	r := []rune(strings.ToLower(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// cellText returns the cell's text with <br> turned into line breaks.
func cellText(cell *goquery.Selection) string {
	c := cell.Clone()
	c.Find("br").ReplaceWithHtml("\n")
	return c.Text()
}

func firstLine(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
